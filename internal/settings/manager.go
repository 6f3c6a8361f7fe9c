package settings

import (
	"context"

	"stampbot/internal/models"
	"stampbot/internal/validation"
)

// Manager applies settings commands to a Store.
type Manager struct {
	store     Store
	validator *validation.Validator
}

// NewManager returns a Manager over store.
func NewManager(store Store, v *validation.Validator) *Manager {
	return &Manager{store: store, validator: v}
}

// Get returns the user's configuration and whether one was ever saved.
func (m *Manager) Get(ctx context.Context, userID int64) (models.WatermarkConfig, bool, error) {
	return m.store.Get(ctx, userID)
}

// Set parses args and applies them to the user's configuration. Either every
// update is applied and the result is valid, or nothing is saved.
func (m *Manager) Set(ctx context.Context, userID int64, args string) (models.WatermarkConfig, error) {
	updates, err := ParseArgs(args)
	if err != nil {
		return models.WatermarkConfig{}, err
	}
	return m.store.Update(ctx, userID, func(current models.WatermarkConfig) (models.WatermarkConfig, error) {
		next, err := Apply(current, updates)
		if err != nil {
			return current, err
		}
		if err := m.validator.Validate(next); err != nil {
			return current, err
		}
		return next, nil
	})
}

// Reset stores the defaults for the user.
func (m *Manager) Reset(ctx context.Context, userID int64) (models.WatermarkConfig, error) {
	return m.store.Update(ctx, userID, func(models.WatermarkConfig) (models.WatermarkConfig, error) {
		return models.DefaultWatermarkConfig(), nil
	})
}
