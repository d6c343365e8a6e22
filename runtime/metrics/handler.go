// Package metrics serves the admin endpoints: /metrics, /health and /ready.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vortex-fintech/supvx2/logger"
)

const (
	healthCheckConcurrencyLimit = 64
	defaultCheckTimeout         = 500 * time.Millisecond
)

// Check is a health or readiness probe. It must return promptly once ctx is done.
type Check func(ctx context.Context) error

type Options struct {
	Registry *prometheus.Registry
	Register func(reg prometheus.Registerer) error

	// DBPool, when set, exports pool statistics labelled with DBName.
	DBPool pgxpoolprometheus.Stater
	DBName string

	Health Check
	Ready  Check

	MetricsPath string
	HealthPath  string
	ReadyPath   string

	HealthTimeout time.Duration
	ReadyTimeout  time.Duration

	Logger logger.LoggerInterface
}

// New builds the admin handler and returns it with the registry in use.
// Registration failures are logged; the remaining collectors still serve.
func New(opts Options) (http.Handler, *prometheus.Registry) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	register := func(name string, c prometheus.Collector) {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				log.Errorw("metrics register failed", "collector", name, "err", err)
			}
		}
	}
	register("process", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	register("go", collectors.NewGoCollector())
	register("build_info", collectors.NewBuildInfoCollector())
	if opts.DBPool != nil {
		register("pgxpool", pgxpoolprometheus.NewCollector(opts.DBPool, map[string]string{"db_name": opts.DBName}))
	}
	if opts.Register != nil {
		if err := opts.Register(reg); err != nil {
			log.Errorw("metrics register failed", "collector", "custom", "err", err)
		}
	}

	metricsPath := normalizePath(opts.MetricsPath, "/metrics")
	healthPath := normalizePath(opts.HealthPath, "/health")
	readyPath := normalizePath(opts.ReadyPath, "/ready")

	sem := make(chan struct{}, healthCheckConcurrencyLimit)
	promHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})

	mux := http.NewServeMux()
	mux.Handle(metricsPath, withLog(log, getOnly(promHandler)))
	mux.Handle(healthPath, withLog(log, getOnly(probe(opts.Health, timeoutOr(opts.HealthTimeout), sem))))
	mux.Handle(readyPath, withLog(log, getOnly(probe(opts.Ready, timeoutOr(opts.ReadyTimeout), sem))))
	return mux, reg
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultCheckTimeout
	}
	return d
}

func getOnly(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.ServeHTTP(w, r)
	})
}

// probe runs check with a timeout. At most cap(sem) checks run at once;
// beyond that the endpoint answers 503 without calling check.
func probe(check Check, timeout time.Duration, sem chan struct{}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check == nil {
			writeStatus(w, r, http.StatusOK, "OK")
			return
		}

		select {
		case sem <- struct{}{}:
		default:
			w.Header().Set("Retry-After", "1")
			writeStatus(w, r, http.StatusServiceUnavailable, "health check busy")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() { <-sem }()
			done <- check(ctx)
		}()

		select {
		case err := <-done:
			if err != nil {
				writeStatus(w, r, http.StatusServiceUnavailable, err.Error())
				return
			}
			writeStatus(w, r, http.StatusOK, "OK")
		case <-ctx.Done():
			w.Header().Set("Retry-After", "1")
			writeStatus(w, r, http.StatusServiceUnavailable, "health check timeout")
		}
	})
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(msg))
	}
}

func normalizePath(p, def string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		p = def
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return p
}

func withLog(log logger.LoggerInterface, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusWriter{ResponseWriter: w}
		h.ServeHTTP(lrw, r)
		if lrw.status == 0 {
			lrw.status = http.StatusOK
		}
		kv := []any{"path", r.URL.Path, "method", r.Method, "status", lrw.status, "duration", time.Since(start)}
		switch {
		case lrw.status >= 500:
			log.Errorw("admin request", kv...)
		case lrw.status >= 400:
			log.Warnw("admin request", kv...)
		default:
			log.Debugw("admin request", kv...)
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(p)
}

func (s *statusWriter) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusWriter) Unwrap() http.ResponseWriter { return s.ResponseWriter }
