// Package app wires configuration, the database pool and the HTTP servers
// into one process lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vortex-fintech/supvx2/api"
	"github.com/vortex-fintech/supvx2/config"
	"github.com/vortex-fintech/supvx2/db/postgres"
	apperr "github.com/vortex-fintech/supvx2/errors"
	"github.com/vortex-fintech/supvx2/logger"
	"github.com/vortex-fintech/supvx2/retry"
	"github.com/vortex-fintech/supvx2/runtime/metrics"
	"github.com/vortex-fintech/supvx2/runtime/shutdown"
	"github.com/vortex-fintech/supvx2/runtime/shutdown/adapters"
	"github.com/vortex-fintech/supvx2/runtime/shutdown/prommetrics"
)

const (
	opStart = "app.start"
	opServe = "app.serve"

	readHeaderTimeout = 10 * time.Second
)

var errNotStartable = errors.New("application is not in a startable state")

type Application struct {
	settings *config.Settings
	db       *postgres.Client
	log      logger.LoggerInterface

	// retryPolicy drives the opt-in startup retry.
	retryPolicy retry.Policy
	// handleSignals makes Run stop on SIGINT/SIGTERM.
	handleSignals bool

	state atomic.Int32

	api   *adapters.HTTP
	admin *adapters.HTTP

	shutdownOnce sync.Once
}

// Open builds the database pool from settings and returns an application
// in StatePoolReady. No connection is made yet.
func Open(ctx context.Context, s *config.Settings, log logger.LoggerInterface) (*Application, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := postgres.Open(ctx, PoolConfig(s), log.Named("postgres"))
	if err != nil {
		return nil, err
	}
	return New(s, db, log), nil
}

// PoolConfig derives the pool policy from settings.
func PoolConfig(s *config.Settings) postgres.Config {
	cfg := postgres.DefaultConfig(s.ConnString())
	cfg.Echo = bool(s.Debug)
	cfg.ApplicationName = s.ServiceName
	return cfg
}

// New wraps an existing client. The application starts in StatePoolReady.
func New(s *config.Settings, db *postgres.Client, log logger.LoggerInterface) *Application {
	if log == nil {
		log = logger.Nop()
	}
	a := &Application{
		settings:      s,
		db:            db,
		log:           log,
		retryPolicy:   retry.StartupPolicy(),
		handleSignals: true,
	}
	a.state.Store(int32(StatePoolReady))
	return a
}

func (a *Application) State() State { return State(a.state.Load()) }

// Handler is the API handler served on HTTPAddr.
func (a *Application) Handler() http.Handler {
	return api.NewRouter(api.Options{
		Debug:          bool(a.settings.Debug),
		AllowedOrigins: a.settings.AllowedOrigins(),
		Logger:         a.log,
	})
}

// Start verifies database connectivity. On failure the pool is disposed and
// the application can no longer serve.
func (a *Application) Start(ctx context.Context) error {
	if s := a.State(); s != StatePoolReady {
		return fmt.Errorf("%s: %w: %s", opStart, errNotStartable, s)
	}

	a.log.Info("starting up")
	if err := a.verify(ctx); err != nil {
		a.log.Errorw("startup failed", "err", err)
		a.dispose()
		return err
	}
	a.state.Store(int32(StateConnectivityVerified))
	a.log.Info("startup completed")
	return nil
}

func (a *Application) verify(ctx context.Context) error {
	if !a.settings.StartupRetry {
		return a.db.VerifyConnectivity(ctx)
	}

	err := retry.Do(ctx, a.retryPolicy,
		func() error { return a.db.VerifyConnectivity(ctx) },
		func(err error, next time.Duration) {
			a.log.Warnw("database not ready; retrying", "err", err, "next", next)
		},
	)
	if err != nil && !errors.Is(err, apperr.ErrConnectivity) {
		err = apperr.Connectivity(opStart, err)
	}
	return err
}

// Run starts the application if needed, serves until ctx is done (or a
// signal arrives) and then shuts down. Listeners are opened only after the
// connectivity check passed.
func (a *Application) Run(ctx context.Context) error {
	if a.State() == StatePoolReady {
		if err := a.Start(ctx); err != nil {
			return err
		}
	}
	if s := a.State(); s != StateConnectivityVerified {
		return fmt.Errorf("%s: %w: %s", opServe, errNotStartable, s)
	}

	m, err := a.listen()
	if err != nil {
		a.log.Errorw("failed to open listener", "err", err)
		a.Shutdown()
		return err
	}

	a.state.Store(int32(StateServing))
	a.log.Infow("serving", "addr", a.api.Addr().String(), "debug", a.settings.Debug)

	runErr := m.Run(ctx)
	if runErr != nil {
		a.log.Errorw("server stopped with error", "err", runErr)
	}
	a.Shutdown()
	return runErr
}

// listen binds the API listener and, when configured, the admin listener.
func (a *Application) listen() (*shutdown.Manager, error) {
	mcfg := shutdown.Config{
		ShutdownTimeout: a.settings.ShutdownTimeout,
		HandleSignals:   a.handleSignals,
		Logger:          a.log,
	}

	a.api = &adapters.HTTP{
		Srv:     &http.Server{Addr: a.settings.HTTPAddr, Handler: a.Handler(), ReadHeaderTimeout: readHeaderTimeout},
		NameStr: "api",
	}
	if err := a.api.Listen(); err != nil {
		return nil, err
	}

	if a.settings.MetricsAddr != "" {
		handler, pm, err := a.adminHandler()
		if err != nil {
			_ = a.api.Lis.Close()
			return nil, err
		}
		mcfg.Metrics = pm
		a.admin = &adapters.HTTP{
			Srv:     &http.Server{Addr: a.settings.MetricsAddr, Handler: handler, ReadHeaderTimeout: readHeaderTimeout},
			NameStr: "admin",
		}
		if err := a.admin.Listen(); err != nil {
			_ = a.api.Lis.Close()
			return nil, err
		}
	}

	m := shutdown.New(mcfg)
	m.Add(a.api)
	if a.admin != nil {
		m.Add(a.admin)
	}
	return m, nil
}

func (a *Application) adminHandler() (http.Handler, *prommetrics.PromMetrics, error) {
	reg := prometheus.NewRegistry()
	pm, err := prommetrics.New(reg, metricsNamespace(a.settings.ServiceName))
	if err != nil {
		return nil, nil, err
	}

	opts := metrics.Options{
		Registry: reg,
		DBName:   a.settings.DatabaseName,
		Ready:    a.ready,
		Logger:   a.log.Named("admin"),
	}
	if raw := a.db.RawPool(); raw != nil {
		opts.DBPool = raw
	}
	h, _ := metrics.New(opts)
	return h, pm, nil
}

// ready reports whether the API is serving and the database answers.
func (a *Application) ready(ctx context.Context) error {
	if s := a.State(); s != StateServing {
		return fmt.Errorf("state %s", s)
	}
	return a.db.Ping(ctx)
}

// Shutdown disposes the pool. Failures are logged, not returned.
// Safe to call more than once.
func (a *Application) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.log.Info("shutting down")
		a.closePool()
		a.state.Store(int32(StateDisposed))
		a.log.Info("shutdown completed")
	})
}

// dispose releases the pool after a failed startup.
func (a *Application) dispose() {
	a.shutdownOnce.Do(func() {
		a.closePool()
		a.state.Store(int32(StateDisposed))
	})
}

func (a *Application) closePool() {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownBudget())
	defer cancel()
	// Close logs its own failure.
	_ = a.db.Close(ctx)
}

func (a *Application) shutdownBudget() time.Duration {
	if a.settings.ShutdownTimeout > 0 {
		return a.settings.ShutdownTimeout
	}
	return time.Second
}

// APIAddr is the bound API address, or nil before Run opened it.
func (a *Application) APIAddr() net.Addr {
	if a.api == nil {
		return nil
	}
	return a.api.Addr()
}

// AdminAddr is the bound admin address, or nil when disabled or not started.
func (a *Application) AdminAddr() net.Addr {
	if a.admin == nil {
		return nil
	}
	return a.admin.Addr()
}

// metricsNamespace turns the service name into a valid Prometheus name prefix.
func metricsNamespace(service string) string {
	ns := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, service)
	if ns != "" && ns[0] >= '0' && ns[0] <= '9' {
		ns = "_" + ns
	}
	return ns
}
