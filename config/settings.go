package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultEnvFile is read when present; process environment takes precedence over it.
const DefaultEnvFile = ".env"

// Settings is the process configuration. Treat it as read-only after Load.
type Settings struct {
	DatabaseHostname string `envconfig:"DATABASE_HOSTNAME" required:"true" validate:"required"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432" validate:"min=1,max=65535"`
	DatabaseUsername string `envconfig:"DATABASE_USERNAME" required:"true" validate:"required"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseName     string `envconfig:"DATABASE_NAME" required:"true" validate:"required"`

	Debug Flag `envconfig:"DEBUG" default:"false"`

	BackendCORSOrigins Origins `envconfig:"BACKEND_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:8080" validate:"dive,origin"`

	ServiceName     string        `envconfig:"SERVICE_NAME" default:"supvx2" validate:"required"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8000" validate:"required"`
	MetricsAddr     string        `envconfig:"METRICS_ADDR"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s" validate:"gte=0"`
	StartupRetry    Flag          `envconfig:"DATABASE_STARTUP_RETRY" default:"false"`
}

// DatabaseURL is the canonical connection URL of the async PostgreSQL driver.
// Fields are interpolated verbatim.
func (s *Settings) DatabaseURL() string {
	return fmt.Sprintf("postgresql+asyncpg://%s:%s@%s:%d/%s",
		s.DatabaseUsername, s.DatabasePassword, s.DatabaseHostname, s.DatabasePort, s.DatabaseName)
}

// ConnString is the pgx DSN for the same database: escaped credentials, IPv6-safe host.
func (s *Settings) ConnString() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.DatabaseUsername, s.DatabasePassword),
		Host:   net.JoinHostPort(s.DatabaseHostname, strconv.Itoa(s.DatabasePort)),
		Path:   "/" + strings.TrimPrefix(s.DatabaseName, "/"),
	}
	return u.String()
}

// AllowedOrigins returns a copy of the CORS allow-list.
func (s *Settings) AllowedOrigins() []string {
	return append([]string(nil), s.BackendCORSOrigins...)
}

// String renders the settings with the password redacted.
func (s *Settings) String() string {
	pw := ""
	if s.DatabasePassword != "" {
		pw = "[REDACTED]"
	}
	return fmt.Sprintf(
		"database=%s@%s:%d/%s password=%s debug=%t cors_origins=%s http_addr=%s metrics_addr=%s shutdown_timeout=%s startup_retry=%t",
		s.DatabaseUsername, s.DatabaseHostname, s.DatabasePort, s.DatabaseName, pw,
		s.Debug, strings.Join(s.BackendCORSOrigins, ","), s.HTTPAddr, s.MetricsAddr,
		s.ShutdownTimeout, s.StartupRetry,
	)
}
