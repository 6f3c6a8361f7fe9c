package watermarking

import (
	"fmt"
	"sort"
	"sync"

	"stampbot/internal/models"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]Watermarker)
)

// Register makes an engine available by name. Engines call it from init.
func Register(name string, w Watermarker) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = w
}

// GetWatermarker retrieves a watermarker from the registry.
func GetWatermarker(name string) (Watermarker, error) {
	mu.RLock()
	defer mu.RUnlock()
	wm, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("watermarker '%s' not found", name)
	}
	return wm, nil
}

// ListSupportedAlgorithms returns the registered engines sorted by name.
func ListSupportedAlgorithms() []models.Algorithm {
	mu.RLock()
	defer mu.RUnlock()

	algorithms := make([]models.Algorithm, 0, len(registry))
	for name, watermarker := range registry {
		algorithms = append(algorithms, models.Algorithm{
			Name:        name,
			Description: watermarker.Description(),
		})
	}
	sort.Slice(algorithms, func(i, j int) bool { return algorithms[i].Name < algorithms[j].Name })
	return algorithms
}
