package hashing

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"stampbot/internal/models"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]Hasher)
)

// Register makes a hasher available by name. Implementations call it from init.
func Register(name string, h Hasher) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = h
}

// GetHasher retrieves a hasher from the registry by name.
func GetHasher(name string) (Hasher, error) {
	mu.RLock()
	defer mu.RUnlock()
	hasher, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("hasher '%s' not found in registry", name)
	}
	return hasher, nil
}

// SumBytes hashes data with the named hasher.
func SumBytes(name string, data []byte) (string, error) {
	h, err := GetHasher(name)
	if err != nil {
		return "", err
	}
	return h.Sum(bytes.NewReader(data))
}

// ListSupportedAlgorithms returns all registered hashers sorted by name.
func ListSupportedAlgorithms() []models.Algorithm {
	mu.RLock()
	defer mu.RUnlock()

	algorithms := make([]models.Algorithm, 0, len(registry))
	for name, hasher := range registry {
		algorithms = append(algorithms, models.Algorithm{
			Name:        name,
			Description: hasher.Description(),
		})
	}
	sort.Slice(algorithms, func(i, j int) bool { return algorithms[i].Name < algorithms[j].Name })
	return algorithms
}
