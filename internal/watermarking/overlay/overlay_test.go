package overlay

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/models"
	"stampbot/internal/testutil"
	"stampbot/internal/watermarking"
)

func secretConfig() models.WatermarkConfig {
	return models.WatermarkConfig{
		Text:          "SECRET",
		FontSize:      60,
		RotationAngle: 90,
		Color:         models.ColorRed,
		Position:      models.PositionTopRight,
		Font:          "Helvetica",
	}
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(data), newConfiguration())
	require.NoError(t, err)
	return n
}

func TestResolveColor(t *testing.T) {
	tests := []struct {
		in   models.Color
		want RGBA
	}{
		{models.ColorGray, RGBA{128, 128, 128, 0.3}},
		{models.ColorRed, RGBA{255, 0, 0, 0.3}},
		{models.ColorBlue, RGBA{0, 0, 255, 0.3}},
		{"purple", RGBA{128, 128, 128, 0.3}},
		{"", RGBA{128, 128, 128, 0.3}},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveColor(tt.in))
		})
	}
}

func TestResolvePosition(t *testing.T) {
	tests := []struct {
		in   models.Position
		want Point
	}{
		{models.PositionTopLeft, Point{50, 750}},
		{models.PositionTopRight, Point{500, 750}},
		{models.PositionCenter, Point{300, 400}},
		{models.PositionBottomLeft, Point{50, 100}},
		{models.PositionBottomRight, Point{500, 100}},
		{"somewhere", Point{300, 400}},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePosition(tt.in))
		})
	}
}

func TestRender_DrawsConfiguredText(t *testing.T) {
	r := &Renderer{TempDir: t.TempDir()}

	ov, err := r.Render(secretConfig())
	require.NoError(t, err)
	defer ov.Close()

	data, err := os.ReadFile(ov.Path)
	require.NoError(t, err)

	assert.Equal(t, 1, pageCount(t, data))
	assert.Contains(t, string(data), "(SECRET) Tj")
	assert.Contains(t, string(data), "1.000 0.000 0.000 rg", "red fill")
	assert.Contains(t, string(data), "/ca 0.3", "reduced opacity")
}

func TestRender_UnknownColorAndPositionFallBack(t *testing.T) {
	r := &Renderer{TempDir: t.TempDir()}
	cfg := secretConfig()
	cfg.Color = "purple"
	cfg.Position = "nowhere"

	ov, err := r.Render(cfg)
	require.NoError(t, err)
	defer ov.Close()

	data, err := os.ReadFile(ov.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0.502 g", "gray fill")
}

func TestRender_AllFonts(t *testing.T) {
	r := &Renderer{TempDir: t.TempDir(), Compress: true}
	for _, font := range models.Fonts {
		t.Run(font, func(t *testing.T) {
			cfg := models.DefaultWatermarkConfig()
			cfg.Font = font
			ov, err := r.Render(cfg)
			require.NoError(t, err)
			assert.NoError(t, ov.Close())
		})
	}
}

func TestRender_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.WatermarkConfig)
	}{
		{"unknown font", func(c *models.WatermarkConfig) { c.Font = "Comic Sans" }},
		{"zero size", func(c *models.WatermarkConfig) { c.FontSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultWatermarkConfig()
			tt.mutate(&cfg)
			_, err := (&Renderer{TempDir: t.TempDir()}).Render(cfg)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrRenderFailure))
		})
	}
}

func TestRender_FilesAreRequestScoped(t *testing.T) {
	r := &Renderer{TempDir: t.TempDir()}

	a, err := r.Render(secretConfig())
	require.NoError(t, err)
	b, err := r.Render(secretConfig())
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)

	require.NoError(t, a.Close())
	_, err = os.Stat(a.Path)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, b.Path)
	require.NoError(t, b.Close())
	assert.NoError(t, b.Close(), "closing twice is fine")
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument(testutil.PDF(t, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, doc.PageCount())
}

func TestParseDocument_Malformed(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"plain":     []byte("this is not a pdf"),
		"truncated": testutil.PDF(t, 2)[:64],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument(data)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrMalformedDocument))
		})
	}
}

func TestCompose_PreservesPageCount(t *testing.T) {
	r := &Renderer{TempDir: t.TempDir(), Compress: true}
	c := &Compositor{}

	configs := []models.WatermarkConfig{models.DefaultWatermarkConfig(), secretConfig()}
	for _, pages := range []int{1, 3, 7} {
		for _, cfg := range configs {
			doc, err := ParseDocument(testutil.PDF(t, pages))
			require.NoError(t, err)

			ov, err := r.Render(cfg)
			require.NoError(t, err)

			out, err := c.Compose(doc, ov)
			require.NoError(t, err)
			require.NoError(t, ov.Close())

			assert.Equal(t, pages, out.PageCount())
			assert.Equal(t, pages, pageCount(t, out.Bytes()))
		}
	}
}

func TestCompose_IsAdditive(t *testing.T) {
	src := testutil.PDF(t, 3)
	doc, err := ParseDocument(src)
	require.NoError(t, err)

	ov, err := (&Renderer{TempDir: t.TempDir()}).Render(secretConfig())
	require.NoError(t, err)
	defer ov.Close()

	out, err := (&Compositor{}).Compose(doc, ov)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		assert.Contains(t, string(out.Bytes()), testutil.PageText(i))
	}
	assert.NotEqual(t, src, out.Bytes())
	assert.Equal(t, src, doc.Bytes(), "source document is untouched")
}

// pageContent returns the decoded content stream of page n of data.
func pageContent(t *testing.T, data []byte, n int) string {
	t.Helper()
	ctx, err := api.ReadContext(bytes.NewReader(data), newConfiguration())
	require.NoError(t, err)
	r, err := pdfcpu.ExtractPageContent(ctx, n)
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(raw)
}

func TestCompose_KeepsPageOrder(t *testing.T) {
	const pages = 3
	doc, err := ParseDocument(testutil.PDF(t, pages))
	require.NoError(t, err)

	ov, err := (&Renderer{TempDir: t.TempDir()}).Render(secretConfig())
	require.NoError(t, err)
	defer ov.Close()

	out, err := (&Compositor{}).Compose(doc, ov)
	require.NoError(t, err)

	for i := 1; i <= pages; i++ {
		content := pageContent(t, out.Bytes(), i)
		assert.Contains(t, content, testutil.PageText(i), "page %d keeps its own text", i)
		assert.Contains(t, content, " Do", "page %d draws the overlay", i)
		for j := 1; j <= pages; j++ {
			if j != i {
				assert.NotContains(t, content, testutil.PageText(j), "page %d holds text of page %d", i, j)
			}
		}
	}
}

func TestCompose_OverlayIsReusable(t *testing.T) {
	ov, err := (&Renderer{TempDir: t.TempDir()}).Render(secretConfig())
	require.NoError(t, err)
	defer ov.Close()

	c := &Compositor{}
	for _, pages := range []int{2, 5} {
		doc, err := ParseDocument(testutil.PDF(t, pages))
		require.NoError(t, err)
		out, err := c.Compose(doc, ov)
		require.NoError(t, err)
		assert.Equal(t, pages, out.PageCount())
	}
}

func TestEngine_SecretScenario(t *testing.T) {
	e := New(t.TempDir())

	out, err := e.Embed(context.Background(), testutil.PDF(t, 3), secretConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, pageCount(t, out))

	entries, err := os.ReadDir(e.Renderer.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "overlay file removed after embed")
}

func TestEngine_RejectsMalformed(t *testing.T) {
	_, err := New(t.TempDir()).Embed(context.Background(), []byte("%PDF-1.4 broken"), secretConfig())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrMalformedDocument))
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(t.TempDir()).Embed(ctx, testutil.PDF(t, 1), secretConfig())
	assert.Error(t, err)
}

func TestEngine_Registered(t *testing.T) {
	wm, err := watermarking.GetWatermarker(Algorithm)
	require.NoError(t, err)
	assert.Equal(t, Algorithm, wm.Name())

	algs := watermarking.ListSupportedAlgorithms()
	require.NotEmpty(t, algs)
	assert.Equal(t, Algorithm, algs[0].Name)
}
