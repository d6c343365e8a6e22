// Package shutdown runs a set of servers and stops them together.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vortex-fintech/supvx2/logger"
)

// Server is anything the Manager can start and stop.
type Server interface {
	Serve(ctx context.Context) error
	GracefulStopWithTimeout(ctx context.Context) error
	ForceStop()
	Name() string
}

// Metrics collects shutdown statistics.
type Metrics interface {
	IncStopTotal(result string)
	ObserveGracefulDuration(d time.Duration)
	IncServeError(name string)
	IncServerStopResult(name, result string)
}

const (
	resultSuccess = "success"
	resultForce   = "force"

	// waitSlack bounds how long Run waits for Serve goroutines after Stop.
	waitSlack = 2 * time.Second
)

type Config struct {
	// ShutdownTimeout is the budget for graceful stop. Zero forces immediately.
	ShutdownTimeout time.Duration

	// HandleSignals stops on SIGINT and SIGTERM.
	HandleSignals bool

	// IsNormalError classifies Serve errors expected during shutdown.
	// Default: DefaultIsNormalErr.
	IsNormalError func(error) bool

	Logger  logger.LoggerInterface
	Metrics Metrics
}

// Manager coordinates Serve, GracefulStopWithTimeout and ForceStop calls.
type Manager struct {
	cfg     Config
	log     logger.LoggerInterface
	mu      sync.Mutex
	servers []Server
	stopped bool
}

func New(cfg Config) *Manager {
	if cfg.IsNormalError == nil {
		cfg.IsNormalError = DefaultIsNormalErr
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{cfg: cfg, log: log.Named("shutdown")}
}

// Add registers a server. Nil servers are ignored.
func (m *Manager) Add(s Server) {
	if s == nil {
		return
	}
	m.mu.Lock()
	m.servers = append(m.servers, s)
	m.mu.Unlock()
}

// Run serves until ctx is done, a signal arrives (HandleSignals) or a server
// fails, then stops everything. It returns the first abnormal Serve error.
func (m *Manager) Run(ctx context.Context) error {
	if m.cfg.HandleSignals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range m.snapshot() {
		g.Go(func() error {
			name := safeName(srv)
			m.log.Infow("serve start", "name", name)
			err := srv.Serve(gctx)
			if err != nil && !m.cfg.IsNormalError(err) && gctx.Err() == nil {
				m.log.Errorw("serve error", "name", name, "err", err)
				if m.cfg.Metrics != nil {
					m.cfg.Metrics.IncServeError(name)
				}
				return err
			}
			m.log.Infow("serve stop", "name", name, "err", errString(err))
			return nil
		})
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- g.Wait() }()

	var groupDone bool
	var groupErr error

	select {
	case <-ctx.Done():
		m.log.Info("context done; starting graceful stop")
	case err := <-waitCh:
		groupDone, groupErr = true, err
		if err != nil {
			m.log.Warnw("server failed; starting graceful stop", "err", err)
		} else {
			m.log.Info("servers finished; starting graceful stop")
		}
	}

	m.Stop()

	if !groupDone {
		select {
		case groupErr = <-waitCh:
		case <-time.After(m.cfg.ShutdownTimeout + waitSlack):
			return fmt.Errorf("shutdown: servers still running %s after stop", m.cfg.ShutdownTimeout+waitSlack)
		}
	}
	if groupErr != nil && !m.cfg.IsNormalError(groupErr) {
		return groupErr
	}
	return nil
}

// Stop gracefully stops all servers within ShutdownTimeout and forces the
// ones that miss it. Only the first call has an effect.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	servers := append([]Server(nil), m.servers...)
	m.mu.Unlock()

	started := time.Now()
	deadline := started.Add(m.cfg.ShutdownTimeout)
	var forcedAny atomic.Bool

	var g errgroup.Group
	for _, srv := range servers {
		g.Go(func() error {
			if !m.stopOne(srv, deadline) {
				forcedAny.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.ObserveGracefulDuration(time.Since(started))
		result := resultSuccess
		if forcedAny.Load() {
			result = resultForce
		}
		m.cfg.Metrics.IncStopTotal(result)
	}
}

// stopOne reports whether srv stopped gracefully.
func (m *Manager) stopOne(srv Server, deadline time.Time) bool {
	name := safeName(srv)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	graceDone := make(chan error, 1)
	go func() { graceDone <- srv.GracefulStopWithTimeout(ctx) }()

	var err error
	select {
	case err = <-graceDone:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		m.log.Warnw("graceful stop failed; forcing", "name", name, "err", err)
		srv.ForceStop()
		m.stopResult(name, resultForce)
		return false
	}
	m.log.Infow("graceful stop done", "name", name)
	m.stopResult(name, resultSuccess)
	return true
}

func (m *Manager) stopResult(name, result string) {
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.IncServerStopResult(name, result)
	}
}

func (m *Manager) snapshot() []Server {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Server(nil), m.servers...)
}

// DefaultIsNormalErr reports whether err is expected while servers close:
// nil, http.ErrServerClosed, context cancellation, or a closed listener.
func DefaultIsNormalErr(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

func safeName(s Server) string {
	if n := s.Name(); n != "" {
		return n
	}
	return "server"
}
