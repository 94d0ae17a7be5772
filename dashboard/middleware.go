package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/kaireichart/embalse-analysis/metrics"
)

// RequestLogger attaches a request scoped logger to the context and logs one
// line per request. It must run after middleware.RequestID.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := base.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			ctx := log.WithContext(r.Context())

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("request completed")
		})
	}
}

// NewLimiter returns the limiter shared by every upload route, or nil when rps is
// not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// allowUpload takes a token from the limiter, recording and logging a refusal.
// A nil limiter allows everything.
func allowUpload(r *http.Request, limiter *rate.Limiter, rec *metrics.Recorder) bool {
	if limiter == nil || limiter.Allow() {
		return true
	}
	rec.RateLimited()
	zerolog.Ctx(r.Context()).Warn().
		Str("path", r.URL.Path).
		Str("remote_addr", r.RemoteAddr).
		Msg("rate limit exceeded")
	return false
}

// RateLimit rejects requests the limiter refuses with 429.
func RateLimit(limiter *rate.Limiter, rec *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowUpload(r, limiter, rec) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, errRateLimited, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const errRateLimited = "too many uploads, retry shortly"
