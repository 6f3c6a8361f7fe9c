package watermarking

import (
	"context"

	"stampbot/internal/models"
)

// Watermarker defines the standard interface for watermarking engines.
type Watermarker interface {
	Name() string
	Description() string
	// Embed stamps cfg onto every page of the PDF in src and returns the new
	// document. The page count and order of the output match src.
	Embed(ctx context.Context, src []byte, cfg models.WatermarkConfig) ([]byte, error)
}
