package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperr "github.com/vortex-fintech/supvx2/errors"
	"github.com/vortex-fintech/supvx2/logger"
)

const (
	opOpen   = "postgres.open"
	opVerify = "postgres.verify"
	opClose  = "postgres.close"

	prePingTimeout = 5 * time.Second
)

// Test hooks (replaceable in unit tests).
var (
	newPool  = pgxpool.NewWithConfig
	pingConn = func(ctx context.Context, c *pgx.Conn) error { return c.Ping(ctx) }
)

// Pool is the part of *pgxpool.Pool the client depends on.
type Pool interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Client owns the connection pool and hands out sessions.
type Client struct {
	pool Pool
	raw  *pgxpool.Pool
	log  logger.LoggerInterface
}

// NewClient wraps an existing pool.
func NewClient(p Pool, log logger.LoggerInterface) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{pool: p, log: log}
	if raw, ok := p.(*pgxpool.Pool); ok {
		c.raw = raw
	}
	return c
}

// Open builds the pool. Connections are established lazily, so a reachable
// database is not required here; use VerifyConnectivity for that.
func Open(ctx context.Context, cfg Config, log logger.LoggerInterface) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.Nop()
	}

	if err := cfg.validate(); err != nil {
		return nil, apperr.Configuration(opOpen, err)
	}

	pcfg, err := poolConfig(cfg, log)
	if err != nil {
		return nil, apperr.Configuration(opOpen, err)
	}

	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, apperr.Configuration(opOpen, err)
	}

	log.Infow("database pool ready",
		"host", pcfg.ConnConfig.Host,
		"port", pcfg.ConnConfig.Port,
		"db", pcfg.ConnConfig.Database,
		"user", pcfg.ConnConfig.User,
		"max_conns", pcfg.MaxConns,
		"min_conns", pcfg.MinConns,
		"max_conn_lifetime", pcfg.MaxConnLifetime,
		"pre_ping", cfg.PrePing,
		"echo", cfg.Echo,
	)

	return NewClient(pool, log), nil
}

func poolConfig(cfg Config, log logger.LoggerInterface) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(buildURL(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pcfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		pcfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	if cfg.PrePing {
		pcfg.BeforeAcquire = prePing(log)
	}
	if cfg.Echo {
		pcfg.ConnConfig.Tracer = echoTracer(log)
	}

	rp := pcfg.ConnConfig.Config.RuntimeParams
	if rp == nil {
		rp = map[string]string{}
		pcfg.ConnConfig.Config.RuntimeParams = rp
	}
	if _, ok := rp["application_name"]; !ok {
		name := cfg.ApplicationName
		if name == "" {
			name = defaultApplicationName
		}
		rp["application_name"] = name
	}
	if _, ok := rp["TimeZone"]; !ok {
		rp["TimeZone"] = "UTC"
	}

	return pcfg, nil
}

// prePing rejects connections that fail a ping; the pool destroys them
// and acquires another one.
func prePing(log logger.LoggerInterface) func(context.Context, *pgx.Conn) bool {
	return func(ctx context.Context, conn *pgx.Conn) bool {
		pctx, cancel := context.WithTimeout(ctx, prePingTimeout)
		defer cancel()
		if err := pingConn(pctx, conn); err != nil {
			log.Warnw("discarding stale database connection", "err", err)
			return false
		}
		return true
	}
}

// VerifyConnectivity runs SELECT 1 in a transaction. Single attempt.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return c.connectivityFailed(err)
	}
	if _, err := tx.Exec(ctx, "SELECT 1"); err != nil {
		_ = tx.Rollback(ctx)
		return c.connectivityFailed(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return c.connectivityFailed(err)
	}

	c.log.Info("database connection successful")
	return nil
}

func (c *Client) connectivityFailed(err error) error {
	c.log.Errorw("failed to connect to database", "err", err)
	return apperr.Connectivity(opVerify, err)
}

// Ping checks that a connection can be acquired and answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close disposes the pool. It waits for acquired connections to be released
// until ctx is done; on timeout the pool keeps closing in the background.
func (c *Client) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	done := make(chan struct{})
	go func() {
		c.pool.Close()
		close(done)
	}()

	select {
	case <-done:
		c.log.Info("database connection closed")
		return nil
	case <-ctx.Done():
		err := apperr.Shutdown(opClose, fmt.Errorf("waiting for in-use connections: %w", ctx.Err()))
		c.log.Errorw("error closing database connection", "err", err)
		return err
	}
}

// Stat returns pool statistics, or nil when the client wraps a non-pgx pool.
func (c *Client) Stat() *pgxpool.Stat {
	if c.raw == nil {
		return nil
	}
	return c.raw.Stat()
}

// RawPool exposes the underlying pgx pool (nil for non-pgx pools).
func (c *Client) RawPool() *pgxpool.Pool { return c.raw }

// buildURL applies cfg.Params to cfg.URL when params are provided.
func buildURL(cfg Config) string {
	base := strings.TrimSpace(cfg.URL)
	if len(cfg.Params) == 0 {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, v := range cfg.Params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
