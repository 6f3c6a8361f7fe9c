package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	_ "stampbot/internal/hashing/md5"
	_ "stampbot/internal/hashing/sha256"
	"stampbot/internal/history"
	"stampbot/internal/models"
	"stampbot/internal/ratelimit"
	"stampbot/internal/testutil"
	"stampbot/internal/validation"
	"stampbot/internal/watermarking/overlay"
	"stampbot/internal/worker"
)

type fixture struct {
	router  http.Handler
	history *history.Memory
}

func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)

	store := history.NewMemory(100)
	queue := worker.NewQueue(10, overlay.New(t.TempDir()), log).WithHistory(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- queue.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	limiter := ratelimit.New(100, 100, 0)
	t.Cleanup(limiter.Stop)

	deps := Deps{
		Queue:         queue,
		History:       store,
		Validator:     validation.New(),
		Limiter:       limiter,
		Log:           log,
		MaxUploadSize: 1 << 20,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return &fixture{router: NewRouter(deps), history: store}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, name string, data []byte, config string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		part, err := mw.CreateFormFile(documentField, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	if config != "" {
		require.NoError(t, mw.WriteField("config", config))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/watermarks", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "192.0.2.10:5555"
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bot is alive.", rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestEmbedWatermark_ReturnsWatermarkedPDF(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(uploadRequest(t, "report.pdf", testutil.PDF(t, 2), `{"text":"API","color":"RED"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="watermarked_report.pdf"`)
	assert.Len(t, rec.Header().Get("X-Content-SHA256"), 64)
	assert.NotEmpty(t, rec.Header().Get("X-Job-ID"))

	doc, err := overlay.ParseDocument(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())

	documentID, err := uuid.Parse(rec.Header().Get("X-Document-ID"))
	require.NoError(t, err)

	get := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/watermarks/"+documentID.String(), nil))
	require.Equal(t, http.StatusOK, get.Code)

	var record models.WatermarkRecord
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &record))
	assert.Equal(t, models.StatusDone, record.Status)
	assert.Equal(t, "report.pdf", record.FileName)
	assert.Equal(t, "API", record.Config.Text)
	assert.Equal(t, models.ColorRed, record.Config.Color)
	assert.Equal(t, rec.Header().Get("X-Content-SHA256"), record.OutputSHA256)
}

func TestEmbedWatermark_Rejections(t *testing.T) {
	onePage := testutil.PDF(t, 1)

	tests := []struct {
		name   string
		file   string
		data   []byte
		config string
		status int
		code   string
	}{
		{"not a pdf", "cat.png", []byte("\x89PNG\r\n\x1a\nrest"), "", http.StatusUnsupportedMediaType, "INVALID_INPUT_TYPE"},
		{"missing document", "", nil, `{"text":"X"}`, http.StatusBadRequest, "VALIDATION"},
		{"bad config json", "a.pdf", onePage, `{"text":`, http.StatusBadRequest, "VALIDATION"},
		{"invalid size", "a.pdf", onePage, `{"size":0}`, http.StatusBadRequest, "VALIDATION"},
		{"unknown font", "a.pdf", onePage, `{"font":"Papyrus"}`, http.StatusBadRequest, "VALIDATION"},
		{"malformed pdf", "a.pdf", []byte("%PDF-1.4\nnot really"), "", http.StatusUnprocessableEntity, "MALFORMED_DOCUMENT"},
	}

	f := newFixture(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(uploadRequest(t, tt.file, tt.data, tt.config))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestEmbedWatermark_TooLarge(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.MaxUploadSize = 64 })

	rec := f.do(uploadRequest(t, "big.pdf", testutil.PDF(t, 1), ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION", resp.Code)
	assert.Contains(t, resp.Error, "exceeds 64 bytes")
}

func TestEmbedWatermark_RateLimited(t *testing.T) {
	limiter := ratelimit.New(0.001, 1, time.Minute)
	t.Cleanup(limiter.Stop)
	f := newFixture(t, func(d *Deps) { d.Limiter = limiter })

	first := f.do(uploadRequest(t, "a.pdf", testutil.PDF(t, 1), ""))
	assert.Equal(t, http.StatusOK, first.Code)

	second := f.do(uploadRequest(t, "a.pdf", testutil.PDF(t, 1), ""))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, second).Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestGetWatermark_NotFound(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/watermarks/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestListings(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/watermarks/algorithms", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var engines struct {
		Algorithms []models.Algorithm `json:"algorithms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &engines))
	assert.Contains(t, engines.Algorithms, models.Algorithm{Name: overlay.Algorithm, Description: overlay.New("").Description()})

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/hashes/algorithms", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var hashes struct {
		Algorithms []models.Algorithm `json:"algorithms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hashes))
	names := make([]string, 0, len(hashes.Algorithms))
	for _, a := range hashes.Algorithms {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"md5", "sha256"}, names)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/watermarks/styles", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var styles models.StylesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &styles))
	assert.Equal(t, models.Colors, styles.Colors)
	assert.Equal(t, models.Positions, styles.Positions)
	assert.Equal(t, models.DefaultWatermarkConfig(), styles.Defaults)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodOptions, "/api/v1/watermarks", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebhook(t *testing.T) {
	var calls int
	hook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	f := newFixture(t, func(d *Deps) {
		d.Webhook = hook
		d.WebhookSecret = "s3cr3t"
	})

	rec := f.do(httptest.NewRequest(http.MethodPost, "/webhook/s3cr3t", bytes.NewBufferString("{}")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/webhook/guess", bytes.NewBufferString("{}")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestWebhook_NotMountedInPollingMode(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/webhook/anything", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	assert.Equal(t, "198.51.100.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	assert.Equal(t, "203.0.113.1", clientIP(req))
}
