package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vortex-fintech/supvx2/logger"
)

// requestContext puts the chi request id into the logger context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logger.ContextWithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog logs one line per request and turns panics into a 500.
func accessLog(log logger.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.ErrorwCtx(r.Context(), "panic serving request",
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					if ww.Status() == 0 {
						writeError(ww, errPanic)
					}
				}

				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				kv := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				}
				switch {
				case status >= 500:
					log.ErrorwCtx(r.Context(), "request", kv...)
				case status >= 400:
					log.WarnwCtx(r.Context(), "request", kv...)
				default:
					log.InfowCtx(r.Context(), "request", kv...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
