// Package adapters plugs concrete servers into the shutdown manager.
package adapters

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
)

var errNoServer = errors.New("http adapter: Srv is nil")

// HTTP adapts *http.Server to shutdown.Server.
// Call Listen to bind early; otherwise Serve binds Srv.Addr itself.
type HTTP struct {
	Srv     *http.Server
	Lis     net.Listener
	NameStr string

	mu sync.Mutex
}

func (h *HTTP) Name() string {
	if h.NameStr == "" {
		return "http"
	}
	return h.NameStr
}

// Listen binds Srv.Addr unless a listener is already set.
func (h *HTTP) Listen() error {
	if h.Srv == nil {
		return errNoServer
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Lis != nil {
		return nil
	}
	addr := h.Srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	h.Lis = ln
	return nil
}

// Addr is the bound address, or nil before Listen.
func (h *HTTP) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Lis == nil {
		return nil
	}
	return h.Lis.Addr()
}

// Serve blocks until ctx is done or the server stops.
// Request contexts derive from ctx.
func (h *HTTP) Serve(ctx context.Context) error {
	if err := h.Listen(); err != nil {
		return err
	}

	h.Srv.BaseContext = func(net.Listener) context.Context { return ctx }

	h.mu.Lock()
	ln := h.Lis
	h.mu.Unlock()

	errCh := make(chan error, 1)
	go func() { errCh <- h.Srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (h *HTTP) GracefulStopWithTimeout(ctx context.Context) error {
	if h.Srv == nil {
		return errNoServer
	}
	return h.Srv.Shutdown(ctx)
}

func (h *HTTP) ForceStop() {
	if h.Srv != nil {
		_ = h.Srv.Close()
	}
}
