package overlay

import (
	"os"

	"github.com/jung-kurt/gofpdf"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/models"
)

// Letter page size in points.
const (
	PageWidth  = 612.0
	PageHeight = 792.0
)

// RGBA is a fill colour with its opacity.
type RGBA struct {
	R, G, B int
	Alpha   float64
}

// Point is a page-space coordinate with the origin at the bottom-left corner.
type Point struct {
	X, Y float64
}

var colors = map[models.Color]RGBA{
	models.ColorGray: {R: 128, G: 128, B: 128, Alpha: 0.3},
	models.ColorRed:  {R: 255, G: 0, B: 0, Alpha: 0.3},
	models.ColorBlue: {R: 0, G: 0, B: 255, Alpha: 0.3},
}

var anchors = map[models.Position]Point{
	models.PositionTopLeft:     {X: 50, Y: 750},
	models.PositionTopRight:    {X: 500, Y: 750},
	models.PositionCenter:      {X: 300, Y: 400},
	models.PositionBottomLeft:  {X: 50, Y: 100},
	models.PositionBottomRight: {X: 500, Y: 100},
}

// ResolveColor maps c to its fill. Unknown colours get gray.
func ResolveColor(c models.Color) RGBA {
	if rgba, ok := colors[c]; ok {
		return rgba
	}
	return colors[models.ColorGray]
}

// ResolvePosition maps p to its anchor. Unknown positions get center.
func ResolvePosition(p models.Position) Point {
	if pt, ok := anchors[p]; ok {
		return pt
	}
	return anchors[models.PositionCenter]
}

// fontFace splits a standard PDF font name into the family and style gofpdf
// expects, e.g. "Times-BoldItalic" -> ("Times", "BI").
func fontFace(name string) (family, style string, ok bool) {
	switch models.CanonicalFont(name) {
	case "Helvetica":
		return "Helvetica", "", true
	case "Helvetica-Bold":
		return "Helvetica", "B", true
	case "Helvetica-Oblique":
		return "Helvetica", "I", true
	case "Helvetica-BoldOblique":
		return "Helvetica", "BI", true
	case "Times-Roman":
		return "Times", "", true
	case "Times-Bold":
		return "Times", "B", true
	case "Times-Italic":
		return "Times", "I", true
	case "Times-BoldItalic":
		return "Times", "BI", true
	case "Courier":
		return "Courier", "", true
	case "Courier-Bold":
		return "Courier", "B", true
	case "Courier-Oblique":
		return "Courier", "I", true
	case "Courier-BoldOblique":
		return "Courier", "BI", true
	case "Symbol":
		return "Symbol", "", true
	case "ZapfDingbats":
		return "ZapfDingbats", "", true
	}
	return "", "", false
}

// Overlay is a rendered one-page watermark stored in a temporary file. It can
// be merged onto any number of documents and must be closed afterwards.
type Overlay struct {
	Path string
}

// Close removes the overlay's temporary file.
func (o *Overlay) Close() error {
	if o == nil || o.Path == "" {
		return nil
	}
	err := os.Remove(o.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Renderer draws watermark overlays.
type Renderer struct {
	// TempDir holds overlay files. Empty means os.TempDir().
	TempDir string
	// Compress deflates the overlay's content stream.
	Compress bool
}

// Render draws cfg onto a fresh letter-size page: the text is centred on the
// anchor for cfg.Position and rotated counter-clockwise by cfg.RotationAngle
// degrees around it. Each call writes its own temporary file.
func (r *Renderer) Render(cfg models.WatermarkConfig) (*Overlay, error) {
	family, style, ok := fontFace(cfg.Font)
	if !ok {
		return nil, domainerrors.RenderFailuref("unknown font %q", cfg.Font)
	}
	if cfg.FontSize <= 0 {
		return nil, domainerrors.RenderFailuref("font size must be positive, got %d", cfg.FontSize)
	}

	fill := ResolveColor(cfg.Color)
	anchor := ResolvePosition(cfg.Position)
	// gofpdf measures y from the top edge.
	x, y := anchor.X, PageHeight-anchor.Y

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(r.Compress)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetFont(family, style, float64(cfg.FontSize))
	pdf.SetTextColor(fill.R, fill.G, fill.B)
	pdf.SetAlpha(fill.Alpha, "Normal")

	text := cfg.Text
	if family != "Symbol" && family != "ZapfDingbats" {
		text = pdf.UnicodeTranslatorFromDescriptor("")(text)
	}

	pdf.TransformBegin()
	pdf.TransformRotate(float64(cfg.RotationAngle), x, y)
	pdf.Text(x-pdf.GetStringWidth(text)/2, y, text)
	pdf.TransformEnd()

	if err := pdf.Error(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeRenderFailure, "draw overlay")
	}

	f, err := os.CreateTemp(r.TempDir, "overlay-*.pdf")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeRenderFailure, "create overlay file")
	}
	ov := &Overlay{Path: f.Name()}

	if err := pdf.OutputAndClose(f); err != nil {
		ov.Close()
		return nil, domainerrors.Wrap(err, domainerrors.CodeRenderFailure, "write overlay")
	}
	return ov, nil
}
