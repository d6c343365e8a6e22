package adapters

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, h http.Handler) *HTTP {
	t.Helper()
	ad := &HTTP{Srv: &http.Server{Addr: "127.0.0.1:0", Handler: h}, NameStr: "api"}
	require.NoError(t, ad.Listen())
	return ad
}

func serve(ad *HTTP) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ad.Serve(ctx) }()
	return cancel, done
}

func TestHTTP_ListenThenServe(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") })
	ad := newAdapter(t, mux)
	require.NotNil(t, ad.Addr())
	require.NoError(t, ad.Listen(), "second Listen is a no-op")

	cancel, done := serve(ad)
	defer cancel()

	resp, err := (&http.Client{Timeout: time.Second}).Get("http://" + ad.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	shCtx, shCancel := context.WithTimeout(context.Background(), time.Second)
	defer shCancel()
	require.NoError(t, ad.GracefulStopWithTimeout(shCtx))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not exit after Shutdown")
	}
}

func TestHTTP_ListenFailsOnBusyPort(t *testing.T) {
	t.Parallel()

	first := newAdapter(t, http.NewServeMux())
	defer first.Lis.Close()

	second := &HTTP{Srv: &http.Server{Addr: first.Addr().String()}}
	require.Error(t, second.Listen())
	assert.Nil(t, second.Addr())
}

func TestHTTP_InflightRequestFinishesOnGracefulStop(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		time.Sleep(150 * time.Millisecond)
		_, _ = io.WriteString(w, "ok")
	})
	ad := newAdapter(t, mux)
	cancel, done := serve(ad)
	defer cancel()

	got := make(chan string, 1)
	go func() {
		resp, err := (&http.Client{Timeout: 2 * time.Second}).Get("http://" + ad.Addr().String() + "/slow")
		if err != nil {
			got <- err.Error()
			return
		}
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		got <- string(b)
	}()
	<-started

	shCtx, shCancel := context.WithTimeout(context.Background(), time.Second)
	defer shCancel()
	require.NoError(t, ad.GracefulStopWithTimeout(shCtx))
	assert.Equal(t, "ok", <-got)
	<-done
}

func TestHTTP_ForceStop(t *testing.T) {
	t.Parallel()

	ad := newAdapter(t, http.NewServeMux())
	cancel, done := serve(ad)
	defer cancel()

	time.Sleep(20 * time.Millisecond)
	ad.ForceStop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not exit after ForceStop")
	}
}

func TestHTTP_NilServer(t *testing.T) {
	t.Parallel()

	ad := &HTTP{}
	assert.Equal(t, "http", ad.Name())
	assert.ErrorIs(t, ad.Serve(context.Background()), errNoServer)
	assert.ErrorIs(t, ad.GracefulStopWithTimeout(context.Background()), errNoServer)
	ad.ForceStop()
}
