package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fkhayef/splitledger/pkg/logger"
)

// RequestLogger attaches a request-scoped logger to the context and writes one
// access line per request. It must run after chi's RequestID middleware.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			if reqID := chimw.GetReqID(ctx); reqID != "" {
				ctx = log.WithRequestID(ctx, reqID)
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			event := log.Ctx(ctx).Info()
			if ww.Status() >= http.StatusInternalServerError {
				event = log.Ctx(ctx).Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// LogActingUser adds the acting user id to the request logger, when known
func LogActingUser(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := GetUserID(r.Context()); ok {
				r = r.WithContext(log.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
