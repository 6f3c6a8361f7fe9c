package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"stampbot/internal/models"
)

// FileStore keeps all configurations in memory and rewrites a flat JSON file,
// keyed by decimal user ID, on every change.
type FileStore struct {
	path string
	log  *zap.Logger

	mu   sync.RWMutex
	data map[int64]models.WatermarkConfig
	// written is the last content saveLocked put on disk.
	written []byte
}

// OpenFileStore loads path. A missing file is an empty store.
func OpenFileStore(path string, log *zap.Logger) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	s := &FileStore{path: abs, log: log}
	data, err := readSettingsFile(abs)
	if err != nil {
		return nil, err
	}
	s.data = data

	log.Info("settings loaded", zap.String("path", abs), zap.Int("users", len(data)))
	return s, nil
}

func readSettingsFile(path string) (map[int64]models.WatermarkConfig, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[int64]models.WatermarkConfig), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return decodeSettings(raw)
}

func decodeSettings(raw []byte) (map[int64]models.WatermarkConfig, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	data := make(map[int64]models.WatermarkConfig, len(entries))
	for key, entry := range entries {
		userID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode settings: invalid user id %q", key)
		}
		// Fields missing from the file keep their defaults.
		cfg := models.DefaultWatermarkConfig()
		if err := json.Unmarshal(entry, &cfg); err != nil {
			return nil, fmt.Errorf("decode settings for %d: %w", userID, err)
		}
		data[userID] = cfg
	}
	return data, nil
}

func (s *FileStore) Get(ctx context.Context, userID int64) (models.WatermarkConfig, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.WatermarkConfig{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.data[userID]
	if !ok {
		return models.DefaultWatermarkConfig(), false, nil
	}
	return cfg, true, nil
}

func (s *FileStore) Update(ctx context.Context, userID int64, fn UpdateFunc) (models.WatermarkConfig, error) {
	if err := ctx.Err(); err != nil {
		return models.WatermarkConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.data[userID]
	current := prev
	if !existed {
		current = models.DefaultWatermarkConfig()
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	s.data[userID] = next
	if err := s.saveLocked(); err != nil {
		if existed {
			s.data[userID] = prev
		} else {
			delete(s.data, userID)
		}
		return current, err
	}
	return next, nil
}

// saveLocked writes the whole map to a temporary file next to path and
// renames it into place. Callers hold s.mu.
func (s *FileStore) saveLocked() error {
	out := make(map[string]models.WatermarkConfig, len(s.data))
	for userID, cfg := range s.data {
		out[strconv.FormatInt(userID, 10)] = cfg
	}
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("save settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.written = raw
	return nil
}

// Reload replaces the in-memory map with the file's contents. On a decode
// error the current map is kept. The file is read under the write lock so a
// concurrent Update cannot be overwritten by an older snapshot; content the
// store wrote itself is skipped.
func (s *FileStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.data = make(map[int64]models.WatermarkConfig)
		s.written = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if bytes.Equal(raw, s.written) {
		return nil
	}

	data, err := decodeSettings(raw)
	if err != nil {
		return err
	}
	s.data = data
	return nil
}

// Watch reloads the store when the settings file is changed by another
// process. It blocks until ctx is done.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic saves replace the file's inode.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch settings dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				s.log.Warn("settings reload failed", zap.String("path", s.path), zap.Error(err))
				continue
			}
			s.log.Debug("settings reloaded", zap.String("path", s.path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("settings watcher error", zap.Error(err))
		}
	}
}

func (s *FileStore) Close() error {
	return nil
}
