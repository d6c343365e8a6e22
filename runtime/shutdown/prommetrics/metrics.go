// Package prommetrics exports shutdown statistics to Prometheus.
package prommetrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const Subsystem = "shutdown"

// PromMetrics implements shutdown.Metrics.
//
// Series, prefixed with {namespace}_shutdown_:
//   - graceful_stop_total{result}
//   - server_serve_errors_total{name}
//   - server_stop_result_total{name,result}
//   - graceful_duration_seconds
type PromMetrics struct {
	stopTotal        *prometheus.CounterVec
	serveErrors      *prometheus.CounterVec
	serverStopResult *prometheus.CounterVec
	gracefulDuration prometheus.Histogram
}

// New registers the shutdown series on reg. Registering twice on the same
// registry is not an error.
func New(reg prometheus.Registerer, namespace string) (*PromMetrics, error) {
	if reg == nil {
		return nil, errors.New("prommetrics: registerer is nil")
	}

	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: namespace, Subsystem: Subsystem, Name: name, Help: help}
	}

	pm := &PromMetrics{
		stopTotal:        prometheus.NewCounterVec(opts("graceful_stop_total", "Graceful stops by result."), []string{"result"}),
		serveErrors:      prometheus.NewCounterVec(opts("server_serve_errors_total", "Abnormal Serve errors by server."), []string{"name"}),
		serverStopResult: prometheus.NewCounterVec(opts("server_stop_result_total", "Per-server stop result."), []string{"name", "result"}),
		gracefulDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: Subsystem,
			Name:    "graceful_duration_seconds",
			Help:    "Duration of the whole graceful stop.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30, 60},
		}),
	}

	for _, c := range []prometheus.Collector{pm.stopTotal, pm.serveErrors, pm.serverStopResult, pm.gracefulDuration} {
		if err := register(reg, c); err != nil {
			return nil, err
		}
	}
	return pm, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return fmt.Errorf("prommetrics: register: %w", err)
	}
	return nil
}

func (p *PromMetrics) IncStopTotal(result string) {
	p.stopTotal.WithLabelValues(result).Inc()
}

func (p *PromMetrics) ObserveGracefulDuration(d time.Duration) {
	p.gracefulDuration.Observe(d.Seconds())
}

func (p *PromMetrics) IncServeError(name string) {
	p.serveErrors.WithLabelValues(name).Inc()
}

func (p *PromMetrics) IncServerStopResult(name, result string) {
	p.serverStopResult.WithLabelValues(name, result).Inc()
}
