package logging

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Middleware attaches a request-scoped logger to the request context and
// logs one line per request. It expects chi's RequestID middleware to run
// first.
func Middleware(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			ctx := WithContext(r.Context(), l)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				l.Error("request", append(fields, zap.Any("headers", MaskHeaders(r.Header)))...)
			case ww.Status() >= http.StatusBadRequest:
				l.Warn("request", fields...)
			default:
				l.Debug("request", fields...)
			}
		})
	}
}
