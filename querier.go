package hugsql

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier runs row-returning statements through database/sql.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer extends Querier with ExecContext. Generated database/sql code
// requires an Execer because execute queries return a sql.Result.
type Execer interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PgxQuerier is the handle used by code generated for the pgx runtime.
// Implemented by *pgx.Conn, *pgxpool.Pool, and pgx.Tx.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var (
	_ Execer     = (*sql.DB)(nil)
	_ Execer     = (*sql.Tx)(nil)
	_ Execer     = (*sql.Conn)(nil)
	_ PgxQuerier = (*pgx.Conn)(nil)
)
