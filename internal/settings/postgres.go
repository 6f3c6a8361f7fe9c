package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"stampbot/internal/models"
)

const settingsSchema = `
CREATE TABLE IF NOT EXISTS watermark_settings (
	user_id    BIGINT PRIMARY KEY,
	settings   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps configurations in the watermark_settings table.
type PostgresStore struct {
	DB *pgxpool.Pool
}

// OpenPostgresStore creates the table if needed.
func OpenPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, settingsSchema); err != nil {
		return nil, fmt.Errorf("ensure settings schema: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID int64) (models.WatermarkConfig, bool, error) {
	var raw []byte
	err := s.DB.QueryRow(ctx,
		`SELECT settings FROM watermark_settings WHERE user_id = $1`, userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultWatermarkConfig(), false, nil
	}
	if err != nil {
		return models.WatermarkConfig{}, false, fmt.Errorf("load settings for %d: %w", userID, err)
	}

	cfg, err := decodeRow(raw)
	if err != nil {
		return models.WatermarkConfig{}, false, fmt.Errorf("load settings for %d: %w", userID, err)
	}
	return cfg, true, nil
}

func (s *PostgresStore) Update(ctx context.Context, userID int64, fn UpdateFunc) (models.WatermarkConfig, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return models.WatermarkConfig{}, err
	}
	defer tx.Rollback(ctx)

	current := models.DefaultWatermarkConfig()
	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT settings FROM watermark_settings WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return current, fmt.Errorf("lock settings for %d: %w", userID, err)
	default:
		if current, err = decodeRow(raw); err != nil {
			return current, err
		}
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		return current, fmt.Errorf("encode settings: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO watermark_settings (user_id, settings, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = now()`,
		userID, string(encoded))
	if err != nil {
		return current, fmt.Errorf("save settings for %d: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return current, err
	}
	return next, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.DB.Close()
	return nil
}

func decodeRow(raw []byte) (models.WatermarkConfig, error) {
	cfg := models.DefaultWatermarkConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("decode settings row: %w", err)
	}
	return cfg, nil
}
