//go:build unix

package shutdown

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRun_SIGTERMStops(t *testing.T) {
	s := newFakeServer("api")
	m := New(Config{ShutdownTimeout: 300 * time.Millisecond, HandleSignals: true})
	m.Add(s)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	p, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, p.Signal(syscall.SIGTERM))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop after SIGTERM")
	}
}
