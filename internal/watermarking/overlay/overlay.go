// Package overlay is the default watermarking engine. It renders the
// configured text onto a single transparent page with gofpdf and merges that
// page on top of every page of the upload with pdfcpu.
package overlay

import (
	"context"
	"os"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/models"
	"stampbot/internal/watermarking"
)

const Algorithm = "overlay"

type Engine struct {
	Renderer   *Renderer
	Compositor *Compositor
}

func init() {
	// TEMP_DIR is read directly so the engine is usable before config loads.
	engine := New(os.Getenv("TEMP_DIR"))
	watermarking.Register(Algorithm, engine)
}

// New returns an engine writing overlay files to tempDir.
func New(tempDir string) *Engine {
	return &Engine{
		Renderer:   &Renderer{TempDir: tempDir, Compress: true},
		Compositor: &Compositor{},
	}
}

func (e *Engine) Name() string {
	return Algorithm
}

func (e *Engine) Description() string {
	return "Draws semi-transparent rotated text on a letter-size overlay and stamps it on top of every page"
}

// Embed parses src, renders cfg and composes the two. The overlay file is
// removed before returning.
func (e *Engine) Embed(ctx context.Context, src []byte, cfg models.WatermarkConfig) ([]byte, error) {
	doc, err := ParseDocument(src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "cancelled before render")
	}

	ov, err := e.Renderer.Render(cfg)
	if err != nil {
		return nil, err
	}
	defer ov.Close()

	if err := ctx.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "cancelled before compose")
	}

	out, err := e.Compositor.Compose(doc, ov)
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
