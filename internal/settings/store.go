// Package settings keeps each user's watermark configuration.
package settings

import (
	"context"

	"stampbot/internal/models"
)

// UpdateFunc computes a user's next configuration from the current one. An
// error leaves the stored value untouched.
type UpdateFunc func(current models.WatermarkConfig) (models.WatermarkConfig, error)

// Store persists one WatermarkConfig per user ID.
type Store interface {
	// Get returns the user's configuration. ok is false when the user never
	// saved one, in which case cfg holds the defaults.
	Get(ctx context.Context, userID int64) (cfg models.WatermarkConfig, ok bool, err error)
	// Update applies fn to the user's configuration (defaults when unset) and
	// saves the result. Load, modify and save happen under one lock.
	Update(ctx context.Context, userID int64, fn UpdateFunc) (models.WatermarkConfig, error)
	Close() error
}
