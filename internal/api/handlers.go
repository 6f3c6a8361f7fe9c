package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/hashing"
	"stampbot/internal/id"
	"stampbot/internal/models"
	"stampbot/internal/watermarking"
	"stampbot/internal/worker"
)

var errRateLimited = domainerrors.RateLimited("too many uploads, slow down")

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Deps
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(deps Deps) *Handlers {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Handlers{Deps: deps}
}

// --- Helper Functions ---

// respondWithJSON is a helper to send a JSON response.
func (h *Handlers) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.Log.Warn("failed to encode response", zap.Error(err))
		}
	}
}

// respondWithError sends err as an ErrorResponse with the status of its code.
// Errors without a code are reported as internal and their text is hidden.
func (h *Handlers) respondWithError(w http.ResponseWriter, err error) {
	var domainErr *domainerrors.Error
	if !domainerrors.As(err, &domainErr) {
		domainErr = domainerrors.Wrap(err, domainerrors.CodeInternal, "internal error")
	}

	status := domainErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed", zap.String("code", string(domainErr.Code)), zap.Error(err))
	} else {
		h.Log.Debug("request rejected", zap.String("code", string(domainErr.Code)), zap.Error(err))
	}

	h.respondWithJSON(w, status, models.ErrorResponse{
		Error:   domainErr.Message,
		Code:    string(domainErr.Code),
		Details: domainErr.Details,
	})
}

// --- Liveness ---

// HandleRoot answers uptime probes that hit the bare host.
func (h *Handlers) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Bot is alive."))
}

// HandleHealth is the container health check.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// --- Watermarking ---

// apiSink hands a job's outcome back to the request that queued it.
type apiSink struct {
	done chan outcome
}

type outcome struct {
	result worker.Result
	err    error
}

func (s *apiSink) Started(context.Context, *worker.Job) {}

func (s *apiSink) Completed(_ context.Context, _ *worker.Job, result worker.Result) {
	s.done <- outcome{result: result}
}

func (s *apiSink) Failed(_ context.Context, _ *worker.Job, err error) {
	s.done <- outcome{err: err}
}

// HandleEmbedWatermark watermarks the uploaded PDF and streams it back. The
// job goes through the same queue as chat uploads.
func (h *Handlers) HandleEmbedWatermark(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, h.MaxUploadSize)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	cfg := models.DefaultWatermarkConfig()
	if configStr := r.FormValue("config"); configStr != "" {
		var req models.WatermarkRequest
		if err := json.Unmarshal([]byte(configStr), &req); err != nil {
			h.respondWithError(w, domainerrors.Validationf("invalid config JSON: %v", err))
			return
		}
		cfg = req.ApplyTo(cfg)
	}
	if err := h.Validator.Validate(cfg); err != nil {
		h.respondWithError(w, err)
		return
	}

	jobID, err := id.Generate(id.Job)
	if err != nil {
		h.respondWithError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate job id"))
		return
	}

	sink := &apiSink{done: make(chan outcome, 1)}
	job := &worker.Job{
		ID:         jobID,
		DocumentID: uuid.New(),
		FileName:   upload.Name,
		Data:       upload.Data,
		Config:     cfg,
		Sink:       sink,
	}
	if err := h.Queue.Enqueue(job); err != nil {
		h.respondWithError(w, err)
		return
	}

	var out outcome
	select {
	case out = <-sink.done:
	case <-r.Context().Done():
		h.Log.Info("client went away before job finished", zap.String("job_id", jobID))
		return
	}
	if out.err != nil {
		h.respondWithError(w, out.err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.result.FileName))
	w.Header().Set("X-Document-ID", job.DocumentID.String())
	w.Header().Set("X-Job-ID", jobID)
	w.Header().Set("X-Content-SHA256", out.result.OutputSHA256)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.result.Data); err != nil {
		h.Log.Warn("failed to write document", zap.String("job_id", jobID), zap.Error(err))
	}
}

// HandleGetWatermark returns the history record of one processed document.
func (h *Handlers) HandleGetWatermark(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(mux.Vars(r)["uuid"])
	if err != nil {
		h.respondWithError(w, domainerrors.Validation("invalid document id"))
		return
	}
	if h.History == nil {
		h.respondWithError(w, domainerrors.NotFound("history is disabled"))
		return
	}

	rec, err := h.History.Get(r.Context(), documentID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, rec)
}

// HandleWatermarkStyles lists the values /set_watermark and the upload
// config accept.
func (h *Handlers) HandleWatermarkStyles(w http.ResponseWriter, _ *http.Request) {
	h.respondWithJSON(w, http.StatusOK, models.StylesResponse{
		Colors:    models.Colors,
		Positions: models.Positions,
		Fonts:     models.Fonts,
		Defaults:  models.DefaultWatermarkConfig(),
	})
}

// HandleHashAlgorithmListing returns a list of supported hash algorithms.
func (h *Handlers) HandleHashAlgorithmListing(w http.ResponseWriter, _ *http.Request) {
	algorithms := hashing.ListSupportedAlgorithms()
	h.respondWithJSON(w, http.StatusOK, map[string]any{"algorithms": algorithms})
}

// HandleWatermarkAlgorithmListing returns a list of supported watermarking algorithms.
func (h *Handlers) HandleWatermarkAlgorithmListing(w http.ResponseWriter, _ *http.Request) {
	watermarks := watermarking.ListSupportedAlgorithms()
	h.respondWithJSON(w, http.StatusOK, map[string]any{"algorithms": watermarks})
}
