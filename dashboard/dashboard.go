// Package dashboard serves the reservoir analysis page, its JSON API and the
// websocket used to re-run an analysis when the frequency changes.
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/kaireichart/embalse-analysis/config"
	"github.com/kaireichart/embalse-analysis/metrics"
	"github.com/kaireichart/embalse-analysis/reservoir"
)

// Handler serves the dashboard. It holds no per-user state: every request
// carries the whole upload.
type Handler struct {
	metrics  *metrics.Recorder
	upload   config.UploadConfig
	upgrader websocket.Upgrader
	// limiter is shared by the upload routes and every websocket message
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a dashboard handler.
func New(rec *metrics.Recorder, upload config.UploadConfig) *Handler {
	return &Handler{
		metrics: rec,
		upload:  upload,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		limiter: NewLimiter(upload.RateLimit, upload.Burst),
		now:     time.Now,
	}
}

// SetupHandlers registers the dashboard routes on r.
func (h *Handler) SetupHandlers(r chi.Router) {
	r.Get("/", h.servePage)
	r.Get("/health", h.handleHealth)
	r.Get("/ws", h.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(h.limiter, h.metrics))
		r.Post("/analyze", h.handleAnalyze)
		r.Post("/export", h.handleExport)
		r.Post("/api/analyze", h.handleAPIAnalyze)
	})
}

// run executes one pipeline run and records its outcome.
func (h *Handler) run(ctx context.Context, req reservoir.Request) (*reservoir.Report, error) {
	log := zerolog.Ctx(ctx)
	start := time.Now()

	rep, err := reservoir.Run(ctx, req, h.now())
	elapsed := time.Since(start)
	kind := reservoir.ErrorKind(err)

	h.metrics.ObserveUpload(len(req.Content))
	h.metrics.ObserveRun(kind, elapsed)

	if err != nil {
		event := log.Warn()
		if !reservoir.IsInputError(err) {
			event = log.Error()
		}
		event.Err(err).
			Str("kind", kind).
			Str("filename", req.Filename).
			Str("frequency", req.Frequency).
			Dur("duration", elapsed).
			Msg("analysis failed")
		return nil, err
	}

	h.metrics.ObserveBuckets(rep.Frequency.Label, len(rep.Resampled))
	log.Info().
		Str("run_id", rep.RunID).
		Str("filename", req.Filename).
		Str("frequency", rep.Frequency.Label).
		Int("rows", rep.Frame.Len()).
		Int("buckets", len(rep.Resampled)).
		Dur("duration", elapsed).
		Msg("analysis finished")
	return rep, nil
}

// statusFor maps a pipeline error to the HTTP status returned to the client.
func statusFor(err error) int {
	if reservoir.IsInputError(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
