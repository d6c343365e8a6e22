package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/vortex-fintech/supvx2/errors"
)

var allKeys = []string{
	"DATABASE_HOSTNAME", "DATABASE_PORT", "DATABASE_USERNAME", "DATABASE_PASSWORD",
	"DATABASE_NAME", "DEBUG", "BACKEND_CORS_ORIGINS", "SERVICE_NAME", "HTTP_ADDR",
	"METRICS_ADDR", "SHUTDOWN_TIMEOUT", "DATABASE_STARTUP_RETRY",
}

// isolateEnv unsets every settings key for the duration of the test.
// t.Setenv restores the previous state, including keys set later by godotenv.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_HOSTNAME", "db.internal")
	t.Setenv("DATABASE_USERNAME", "app")
	t.Setenv("DATABASE_PASSWORD", "s3cret")
	t.Setenv("DATABASE_NAME", "supvx2")
}

func noEnvFile(t *testing.T) Options {
	return Options{EnvFile: filepath.Join(t.TempDir(), "absent.env")}
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)
	setRequired(t)

	s, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", s.DatabaseHostname)
	assert.Equal(t, 5432, s.DatabasePort)
	assert.False(t, bool(s.Debug))
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, s.AllowedOrigins())
	assert.Equal(t, ":8000", s.HTTPAddr)
	assert.Equal(t, "", s.MetricsAddr)
	assert.Equal(t, 15*time.Second, s.ShutdownTimeout)
	assert.False(t, bool(s.StartupRetry))
	assert.Equal(t, "supvx2", s.ServiceName)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, missing := range []string{"DATABASE_HOSTNAME", "DATABASE_USERNAME", "DATABASE_PASSWORD", "DATABASE_NAME"} {
		t.Run(missing, func(t *testing.T) {
			isolateEnv(t)
			setRequired(t)
			require.NoError(t, os.Unsetenv(missing))

			s, err := Load(noEnvFile(t))
			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, apperr.ErrConfiguration)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoad_EmptyHostnameRejected(t *testing.T) {
	isolateEnv(t)
	setRequired(t)
	t.Setenv("DATABASE_HOSTNAME", "")

	_, err := Load(noEnvFile(t))
	require.ErrorIs(t, err, apperr.ErrConfiguration)
	assert.Contains(t, err.Error(), "DatabaseHostname=required")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"port not a number", "DATABASE_PORT", "abc"},
		{"port out of range", "DATABASE_PORT", "70000"},
		{"debug not a bool", "DEBUG", "maybe"},
		{"debug empty", "DEBUG", ""},
		{"startup retry not a bool", "DATABASE_STARTUP_RETRY", "enabled"},
		{"origin with path", "BACKEND_CORS_ORIGINS", "http://localhost:3000/app"},
		{"origins bad json", "BACKEND_CORS_ORIGINS", `["http://a"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolateEnv(t)
			setRequired(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load(noEnvFile(t))
			assert.ErrorIs(t, err, apperr.ErrConfiguration)
		})
	}
}

func TestLoad_DebugSpellings(t *testing.T) {
	tests := map[string]bool{
		"1": true, "t": true, "true": true, "y": true, "yes": true, "on": true,
		"TRUE": true, "Yes": true, "ON": true, " on ": true,
		"0": false, "f": false, "false": false, "n": false, "no": false, "off": false,
		"FALSE": false, "No": false, "OFF": false,
	}

	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			isolateEnv(t)
			setRequired(t)
			t.Setenv("DEBUG", raw)
			t.Setenv("DATABASE_STARTUP_RETRY", raw)

			s, err := Load(noEnvFile(t))
			require.NoError(t, err)
			assert.Equal(t, want, bool(s.Debug))
			assert.Equal(t, want, bool(s.StartupRetry))
		})
	}
}

func TestLoad_OriginsFormats(t *testing.T) {
	tests := map[string][]string{
		`["https://a.example.com", "https://b.example.com"]`: {"https://a.example.com", "https://b.example.com"},
		"https://a.example.com, https://b.example.com":        {"https://a.example.com", "https://b.example.com"},
		"*": {"*"},
	}

	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			isolateEnv(t)
			setRequired(t)
			t.Setenv("BACKEND_CORS_ORIGINS", raw)

			s, err := Load(noEnvFile(t))
			require.NoError(t, err)
			assert.Equal(t, want, s.AllowedOrigins())
		})
	}
}

func TestLoad_EnvFile_ProcessEnvWins(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DATABASE_HOSTNAME", "from-process")

	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"DATABASE_HOSTNAME=from-file",
		"DATABASE_USERNAME=file-user",
		"DATABASE_PASSWORD=file-pass",
		"DATABASE_NAME=file-db",
		"DATABASE_PORT=6543",
		"DEBUG=true",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := Load(Options{EnvFile: path})
	require.NoError(t, err)

	assert.Equal(t, "from-process", s.DatabaseHostname)
	assert.Equal(t, "file-user", s.DatabaseUsername)
	assert.Equal(t, 6543, s.DatabasePort)
	assert.True(t, bool(s.Debug))
}

func TestLoad_NamesAreCaseSensitive(t *testing.T) {
	isolateEnv(t)
	setRequired(t)
	t.Setenv("debug", "true")

	s, err := Load(noEnvFile(t))
	require.NoError(t, err)
	assert.False(t, bool(s.Debug))
}

func TestDatabaseURL_Template(t *testing.T) {
	s := &Settings{
		DatabaseHostname: "pg.local",
		DatabasePort:     6432,
		DatabaseUsername: "svc",
		DatabasePassword: "p@ss",
		DatabaseName:     "core",
	}

	assert.Equal(t, "postgresql+asyncpg://svc:p@ss@pg.local:6432/core", s.DatabaseURL())
	assert.Equal(t, s.DatabaseURL(), s.DatabaseURL())
}

func TestConnString_EscapesAndIPv6(t *testing.T) {
	s := &Settings{
		DatabaseHostname: "::1",
		DatabasePort:     5432,
		DatabaseUsername: "svc",
		DatabasePassword: "p@ss/word",
		DatabaseName:     "core",
	}

	assert.Equal(t, "postgres://svc:p%40ss%2Fword@[::1]:5432/core", s.ConnString())
}

func TestAllowedOrigins_ReturnsCopy(t *testing.T) {
	s := &Settings{BackendCORSOrigins: Origins{"http://a"}}
	got := s.AllowedOrigins()
	got[0] = "http://evil"

	assert.Equal(t, "http://a", s.BackendCORSOrigins[0])
}

func TestString_RedactsPassword(t *testing.T) {
	s := &Settings{DatabaseUsername: "svc", DatabasePassword: "hunter2", DatabaseHostname: "h", DatabasePort: 1, DatabaseName: "d"}
	out := s.String()

	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "[REDACTED]")
}

func TestProvider_ReturnsSameInstance(t *testing.T) {
	isolateEnv(t)
	setRequired(t)

	p := NewProvider(noEnvFile(t))
	first, err := p.Get()
	require.NoError(t, err)

	t.Setenv("DATABASE_HOSTNAME", "changed")
	second, err := p.Get()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "db.internal", second.DatabaseHostname)
}

func TestProvider_ErrorIsSticky(t *testing.T) {
	isolateEnv(t)

	p := NewProvider(noEnvFile(t))
	_, err1 := p.Get()
	setRequired(t)
	s, err2 := p.Get()

	assert.ErrorIs(t, err1, apperr.ErrConfiguration)
	assert.Same(t, err1, err2)
	assert.Nil(t, s)
}
