package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// -- Watermark configuration --

// Color names a fill colour for the watermark text.
type Color string

const (
	ColorGray Color = "gray"
	ColorRed  Color = "red"
	ColorBlue Color = "blue"
)

// Position names an anchor point on the page.
type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionCenter      Position = "center"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
)

// Colors lists the supported colours in display order.
var Colors = []Color{ColorGray, ColorRed, ColorBlue}

// Positions lists the supported anchor positions in display order.
var Positions = []Position{
	PositionTopLeft,
	PositionTopRight,
	PositionCenter,
	PositionBottomLeft,
	PositionBottomRight,
}

// Fonts lists the standard PDF fonts a watermark can be drawn with.
var Fonts = []string{
	"Helvetica", "Helvetica-Bold", "Helvetica-Oblique", "Helvetica-BoldOblique",
	"Times-Roman", "Times-Bold", "Times-Italic", "Times-BoldItalic",
	"Courier", "Courier-Bold", "Courier-Oblique", "Courier-BoldOblique",
	"Symbol", "ZapfDingbats",
}

// WatermarkConfig is one user's watermark settings. The JSON keys match the
// flat settings file.
//
// Color and Position are stored as given; values outside the known set are
// kept and resolved to gray/center when rendering.
type WatermarkConfig struct {
	Text          string   `json:"text" validate:"required,max=200"`
	FontSize      int      `json:"size" validate:"gt=0,lte=500"`
	RotationAngle int      `json:"angle" validate:"gte=-360,lte=360"`
	Color         Color    `json:"color"`
	Position      Position `json:"position"`
	Font          string   `json:"font" validate:"required,font"`
}

// DefaultWatermarkConfig returns the settings applied before any update.
func DefaultWatermarkConfig() WatermarkConfig {
	return WatermarkConfig{
		Text:          "CONFIDENTIAL",
		FontSize:      40,
		RotationAngle: 45,
		Color:         ColorGray,
		Position:      PositionCenter,
		Font:          "Helvetica",
	}
}

// KnownFont reports whether name is one of Fonts, ignoring case.
func KnownFont(name string) bool {
	return CanonicalFont(name) != ""
}

// CanonicalFont returns the Fonts entry matching name case-insensitively, or
// "" if there is none.
func CanonicalFont(name string) string {
	for _, f := range Fonts {
		if strings.EqualFold(f, name) {
			return f
		}
	}
	return ""
}

// -- Engine listing --

type Algorithm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// -- Watermark history --

// Job statuses stored in the history.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// WatermarkRecord is one processed document in the watermark history.
type WatermarkRecord struct {
	DocumentID   uuid.UUID       `json:"document_id"`
	JobID        string          `json:"job_id"`
	UserID       int64           `json:"user_id"`
	FileName     string          `json:"file_name"`
	Engine       string          `json:"engine"`
	Status       string          `json:"status"`
	ErrorCode    string          `json:"error_code,omitempty"`
	InputSHA256  string          `json:"input_sha256"`
	OutputSHA256 string          `json:"output_sha256,omitempty"`
	OutputMD5    string          `json:"output_md5,omitempty"`
	Config       WatermarkConfig `json:"config"`
	CreatedAt    time.Time       `json:"created_at"`
}

// --- Response Structs ---

type StylesResponse struct {
	Colors    []Color         `json:"colors"`
	Positions []Position      `json:"positions"`
	Fonts     []string        `json:"fonts"`
	Defaults  WatermarkConfig `json:"defaults"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// WatermarkRequest is the optional "config" part of an API upload. Nil fields
// keep their defaults.
type WatermarkRequest struct {
	Text          *string `json:"text"`
	FontSize      *int    `json:"size"`
	RotationAngle *int    `json:"angle"`
	Color         *string `json:"color"`
	Position      *string `json:"position"`
	Font          *string `json:"font"`
}

// ApplyTo returns cfg with the request's non-nil fields copied over it.
func (r WatermarkRequest) ApplyTo(cfg WatermarkConfig) WatermarkConfig {
	if r.Text != nil {
		cfg.Text = *r.Text
	}
	if r.FontSize != nil {
		cfg.FontSize = *r.FontSize
	}
	if r.RotationAngle != nil {
		cfg.RotationAngle = *r.RotationAngle
	}
	if r.Color != nil {
		cfg.Color = Color(strings.ToLower(*r.Color))
	}
	if r.Position != nil {
		cfg.Position = Position(strings.ToLower(*r.Position))
	}
	if r.Font != nil {
		cfg.Font = *r.Font
	}
	return cfg
}
