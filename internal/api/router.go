package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"stampbot/internal/history"
	"stampbot/internal/ratelimit"
	"stampbot/internal/validation"
	"stampbot/internal/worker"
)

const uuidPattern = "{uuid:[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}}"

// Deps holds everything the router needs.
type Deps struct {
	Queue     *worker.Queue
	History   history.Store
	Validator *validation.Validator
	Limiter   *ratelimit.KeyedRateLimiter
	Log       *zap.Logger

	// MaxUploadSize caps the document part of an upload.
	MaxUploadSize int64

	// Webhook receives Telegram updates. Nil in polling mode.
	Webhook       http.Handler
	WebhookSecret string
}

// corsMiddleware adds CORS headers to each response
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Document-ID, X-Job-ID, X-Content-SHA256")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs one line per request.
func loggingMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.String("remote", clientIP(r)),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

// rateLimitMiddleware rejects clients that upload faster than the limiter allows.
func (h *Handlers) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter != nil && !h.Limiter.Allow("ip:"+clientIP(r)) {
			w.Header().Set("Retry-After", "5")
			h.respondWithError(w, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// webhookHandler forwards updates posted to the secret path and hides the
// endpoint from everyone else.
func (h *Handlers) webhookHandler(w http.ResponseWriter, r *http.Request) {
	secret := mux.Vars(r)["secret"]
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.WebhookSecret)) != 1 {
		http.NotFound(w, r)
		return
	}
	h.Webhook.ServeHTTP(w, r)
}

// NewRouter creates and configures a new application router.
func NewRouter(deps Deps) *mux.Router {
	router := mux.NewRouter()

	router.Use(loggingMiddleware(deps.Log))
	router.Use(corsMiddleware)

	h := NewHandlers(deps)

	router.HandleFunc("/", h.HandleRoot).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)

	if deps.Webhook != nil {
		router.HandleFunc("/webhook/{secret}", h.webhookHandler).Methods(http.MethodPost)
	}

	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	apiV1.HandleFunc("/hashes/algorithms", h.HandleHashAlgorithmListing).Methods(http.MethodGet)
	apiV1.HandleFunc("/watermarks/algorithms", h.HandleWatermarkAlgorithmListing).Methods(http.MethodGet)
	apiV1.HandleFunc("/watermarks/styles", h.HandleWatermarkStyles).Methods(http.MethodGet)
	apiV1.HandleFunc("/watermarks/"+uuidPattern, h.HandleGetWatermark).Methods(http.MethodGet)
	apiV1.Handle("/watermarks", h.rateLimitMiddleware(http.HandlerFunc(h.HandleEmbedWatermark))).
		Methods(http.MethodPost, http.MethodOptions)

	return router
}
