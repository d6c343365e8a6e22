package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:8080"}

func preflight(origin, reqHeaders string) map[string]string {
	h := map[string]string{
		"Origin":                        origin,
		"Access-Control-Request-Method": "PATCH",
	}
	if reqHeaders != "" {
		h["Access-Control-Request-Headers"] = reqHeaders
	}
	return h
}

func TestCORS_PreflightAllowed(t *testing.T) {
	t.Parallel()

	h := NewRouter(Options{AllowedOrigins: defaultOrigins})
	rec := do(h, http.MethodOptions, "/", preflight("http://localhost:3000", "X-Custom, Authorization"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, corsAllowMethods, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "X-Custom, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestCORS_PreflightDisallowed(t *testing.T) {
	t.Parallel()

	h := NewRouter(Options{AllowedOrigins: defaultOrigins})
	rec := do(h, http.MethodOptions, "/", preflight("http://evil.example", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgDisallowedOrigin, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_SimpleRequest(t *testing.T) {
	t.Parallel()

	h := NewRouter(Options{AllowedOrigins: defaultOrigins})

	rec := do(h, http.MethodGet, "/", map[string]string{"Origin": "http://localhost:8080"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = do(h, http.MethodGet, "/", map[string]string{"Origin": "http://evil.example"})
	assert.Equal(t, http.StatusOK, rec.Code, "disallowed origins are not blocked, only left without CORS headers")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(h, http.MethodGet, "/", nil)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Values("Vary"))
}

func TestCORS_WildcardEchoesOrigin(t *testing.T) {
	t.Parallel()

	h := NewRouter(Options{AllowedOrigins: []string{"*"}})

	rec := do(h, http.MethodGet, "/", map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(h, http.MethodOptions, "/anything", preflight("https://other.example", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://other.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_HeadersOnErrorResponses(t *testing.T) {
	t.Parallel()

	h := NewRouter(Options{AllowedOrigins: defaultOrigins})
	rec := do(h, http.MethodGet, "/missing", map[string]string{"Origin": "http://localhost:3000"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PlainOptionsReachesRouter(t *testing.T) {
	t.Parallel()

	h := NewRouter(Options{AllowedOrigins: defaultOrigins})
	rec := do(h, http.MethodOptions, "/", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
