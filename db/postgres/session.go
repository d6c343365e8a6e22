package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperr "github.com/vortex-fintech/supvx2/errors"
	"github.com/vortex-fintech/supvx2/logger"
)

const (
	opSession  = "postgres.session"
	opBegin    = "postgres.session.begin"
	opCommit   = "postgres.session.commit"
	opRollback = "postgres.session.rollback"
	opRelease  = "postgres.session.close"

	releaseTimeout = 5 * time.Second
)

var (
	ErrSessionClosed = errors.New("postgres: session is closed")
	ErrTxInProgress  = errors.New("postgres: transaction already begun")
)

// Session is a unit of work bound to at most one open transaction.
// A transaction starts on the first statement and ends only on an explicit
// Commit or Rollback; Close rolls back whatever is still open.
// Not safe for concurrent use.
type Session struct {
	id     uuid.UUID
	pool   Pool
	log    logger.LoggerInterface
	opts   pgx.TxOptions
	tx     pgx.Tx
	closed bool
}

// NewSession returns a session without touching the pool.
// Callers must Close it.
func (c *Client) NewSession() *Session {
	return &Session{
		id:   uuid.New(),
		pool: c.pool,
		log:  c.log,
	}
}

// WithSession runs fn with a fresh session and closes it on every path,
// panics included. If fn fails the open transaction is rolled back and the
// error is returned as a session error. Nothing is committed on fn's behalf.
func (c *Client) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) (err error) {
	s := c.NewSession()
	ctx = logger.ContextWithSessionID(ctx, s.id.String())

	defer func() {
		if p := recover(); p != nil {
			c.log.ErrorwCtx(ctx, "database session panicked", "panic", p)
			_ = s.Close(ctx)
			panic(p)
		}
		if cerr := s.Close(ctx); cerr != nil && err == nil {
			err = apperr.Session(opRelease, cerr)
		}
	}()

	if ferr := fn(ctx, s); ferr != nil {
		c.log.ErrorwCtx(ctx, "database session error", "err", ferr)
		if rerr := s.Rollback(ctx); rerr != nil {
			c.log.ErrorwCtx(ctx, "database session rollback failed", "err", rerr)
		}
		return apperr.Session(opSession, ferr)
	}
	return nil
}

func (s *Session) ID() uuid.UUID { return s.id }

// InTransaction reports whether a transaction is open.
func (s *Session) InTransaction() bool { return s.tx != nil }

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed }

// Begin opens a transaction with explicit options.
func (s *Session) Begin(ctx context.Context, opts pgx.TxOptions) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return ErrTxInProgress
	}
	s.opts = opts
	_, err := s.begin(ctx)
	return err
}

func (s *Session) begin(ctx context.Context) (pgx.Tx, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.pool.BeginTx(ctx, s.opts)
	if err != nil {
		return nil, apperr.Session(opBegin, err)
	}
	s.tx = tx
	return tx, nil
}

func (s *Session) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return tx.Exec(ctx, sql, args...)
}

func (s *Session) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx.Query(ctx, sql, args...)
}

func (s *Session) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	tx, err := s.begin(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return tx.QueryRow(ctx, sql, args...)
}

// Commit ends the open transaction. The session stays usable and the next
// statement starts a new transaction. Commit with nothing open is a no-op.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return apperr.Session(opCommit, err)
	}
	return nil
}

// Rollback discards the open transaction. No-op with nothing open.
func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperr.Session(opRollback, err)
	}
	return nil
}

// Close rolls back anything still open and returns the connection to the
// pool. The rollback runs even if ctx is already canceled. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tx == nil {
		return nil
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	return s.Rollback(rctx)
}
