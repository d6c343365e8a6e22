// Package pgtest provides in-memory stand-ins for a pgx pool and transaction.
package pgtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotSupported is returned by Tx methods the fakes do not model.
var ErrNotSupported = errors.New("pgtest: not supported")

// Pool is a fake postgres.Pool with a bounded number of connections.
// Each open transaction holds one slot until Commit or Rollback.
// Error fields must be set before the pool is shared between goroutines.
type Pool struct {
	BeginErr error
	// BeginFailures limits BeginErr to the first n BeginTx calls; 0 means always.
	BeginFailures int

	PingErr     error
	ExecErr     error
	CommitErr   error
	RollbackErr error
	// CloseGate, when set, blocks Close until it is closed.
	CloseGate chan struct{}

	slots chan struct{}

	mu     sync.Mutex
	events []string
	txs    []*Tx
	begins int
	closed bool
}

// NewPool returns a pool with size connection slots.
func NewPool(size int) *Pool {
	return &Pool{slots: make(chan struct{}, size)}
}

func (p *Pool) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if p.beginFails() {
		p.record("begin_error")
		return nil, p.BeginErr
	}
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	tx := &Tx{pool: p}
	p.mu.Lock()
	p.txs = append(p.txs, tx)
	p.mu.Unlock()
	p.record("begin")
	return tx, nil
}

func (p *Pool) beginFails() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.begins++
	return p.BeginErr != nil && (p.BeginFailures == 0 || p.begins <= p.BeginFailures)
}

func (p *Pool) Ping(context.Context) error {
	p.record("ping")
	return p.PingErr
}

func (p *Pool) Close() {
	if p.CloseGate != nil {
		<-p.CloseGate
	}
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.record("close")
}

// InUse is the number of connections held by open transactions.
func (p *Pool) InUse() int { return len(p.slots) }

// Size is the connection limit.
func (p *Pool) Size() int { return cap(p.slots) }

func (p *Pool) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Events returns the recorded calls in order, e.g. "begin", "exec:SELECT 1",
// "rollback", "commit", "ping", "close".
func (p *Pool) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// Txs returns every transaction begun so far.
func (p *Pool) Txs() []*Tx {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Tx(nil), p.txs...)
}

// Record appends a marker to the event log.
func (p *Pool) Record(event string) { p.record(event) }

func (p *Pool) record(event string) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func (p *Pool) release() { <-p.slots }

// Tx is a fake pgx.Tx bound to a Pool slot.
type Tx struct {
	pool *Pool

	mu         sync.Mutex
	execs      []string
	done       bool
	committed  bool
	rolledBack bool
}

var _ pgx.Tx = (*Tx)(nil)

func (t *Tx) Begin(context.Context) (pgx.Tx, error) { return nil, ErrNotSupported }

func (t *Tx) Commit(context.Context) error {
	if err := t.finish(true); err != nil {
		return err
	}
	t.pool.record("commit")
	return t.pool.CommitErr
}

func (t *Tx) Rollback(context.Context) error {
	if err := t.finish(false); err != nil {
		return err
	}
	t.pool.record("rollback")
	return t.pool.RollbackErr
}

func (t *Tx) finish(commit bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.committed = commit
	t.rolledBack = !commit
	t.pool.release()
	return nil
}

func (t *Tx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, ErrNotSupported
}

func (t *Tx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *Tx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *Tx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, ErrNotSupported
}

func (t *Tx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return pgconn.CommandTag{}, pgx.ErrTxClosed
	}
	t.execs = append(t.execs, sql)
	t.mu.Unlock()

	t.pool.record("exec:" + sql)
	if t.pool.ExecErr != nil {
		return pgconn.CommandTag{}, t.pool.ExecErr
	}
	return pgconn.NewCommandTag(strings.ToUpper(firstWord(sql))), nil
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if _, err := t.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}
	return nil, ErrNotSupported
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	_, err := t.Exec(ctx, sql, args...)
	if err == nil {
		err = pgx.ErrNoRows
	}
	return row{err: err}
}

func (t *Tx) Conn() *pgx.Conn { return nil }

// Execs returns the statements run in this transaction.
func (t *Tx) Execs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.execs...)
}

func (t *Tx) Committed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed
}

func (t *Tx) RolledBack() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rolledBack
}

type row struct{ err error }

func (r row) Scan(...any) error { return r.err }

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		return s[:i]
	}
	return s
}
