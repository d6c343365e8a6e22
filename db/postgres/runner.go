package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Runner is the statement surface shared by sessions and transactions.
type Runner interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Runner = (*Session)(nil)
	_ Runner = (pgx.Tx)(nil)
)

// errRow defers an acquisition error to Scan.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
