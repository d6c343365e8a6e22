package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes used by this package.
const (
	SQLStateUniqueViolation     = "23505"
	SQLStateForeignKeyViolation = "23503"
	SQLStateNotNullViolation    = "23502"
	SQLStateCheckViolation      = "23514"
)

type ConstraintInfo struct {
	Code   string // SQLSTATE (e.g. 23505)
	Name   string // constraint name from PG
	Schema string
	Table  string
	Detail string
}

// Constraint extracts constraint details from a PG error anywhere in the chain.
func Constraint(err error) (ConstraintInfo, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ConstraintInfo{}, false
	}
	return ConstraintInfo{
		Code:   pgErr.Code,
		Name:   pgErr.ConstraintName,
		Schema: pgErr.SchemaName,
		Table:  pgErr.TableName,
		Detail: pgErr.Detail,
	}, true
}

func IsUniqueViolation(err error) bool     { return hasCode(err, SQLStateUniqueViolation) }
func IsForeignKeyViolation(err error) bool { return hasCode(err, SQLStateForeignKeyViolation) }
func IsNotNullViolation(err error) bool    { return hasCode(err, SQLStateNotNullViolation) }
func IsCheckViolation(err error) bool      { return hasCode(err, SQLStateCheckViolation) }

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
