package verifier

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/lib/pq"              // registers the "postgres" database/sql driver
)

// Supported driver names for Open.
const (
	DriverPgx       = "pgx"
	DriverPostgres  = "postgres"
	DriverPgxStdlib = "pgx-stdlib"
)

// Drivers lists the names Open accepts.
var Drivers = []string{DriverPgx, DriverPostgres, DriverPgxStdlib}

// Statement is the server's view of a prepared statement.
// Params and Columns are only populated by preparers that receive a
// statement description (pgx).
type Statement struct {
	Name    string   `json:"name"`
	SQL     string   `json:"sql"`
	Params  []Type   `json:"params,omitempty"`
	Columns []Column `json:"columns,omitempty"`
}

// Type is a PostgreSQL type reference.
type Type struct {
	OID  uint32 `json:"oid"`
	Name string `json:"name,omitempty"`
}

// Column is one result column of a prepared statement.
type Column struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Preparer prepares statements on a database connection.
type Preparer interface {
	// Prepare parses and plans sql on the server without executing it.
	Prepare(ctx context.Context, name, sql string) (*Statement, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Open connects with the named driver and returns a Preparer.
//
//   - "pgx" uses a native pgx connection and reports parameter and column types.
//   - "postgres" uses database/sql with lib/pq.
//   - "pgx-stdlib" uses database/sql with the pgx stdlib driver.
func Open(ctx context.Context, driver, dsn string) (Preparer, error) {
	switch driver {
	case DriverPgx, "":
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		return NewPgx(conn), nil

	case DriverPostgres, DriverPgxStdlib:
		name := "postgres"
		if driver == DriverPgxStdlib {
			name = "pgx"
		}
		db, err := sql.Open(name, dsn)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		return NewSQL(db), nil

	default:
		return nil, fmt.Errorf("unknown driver %q (supported: %v)", driver, Drivers)
	}
}

type pgxPreparer struct {
	conn *pgx.Conn
}

// NewPgx returns a Preparer over a pgx connection. Statements are
// deallocated right after preparation.
func NewPgx(conn *pgx.Conn) Preparer {
	return &pgxPreparer{conn: conn}
}

func (p *pgxPreparer) Prepare(ctx context.Context, name, sql string) (*Statement, error) {
	sd, err := p.conn.Prepare(ctx, name, sql)
	if err != nil {
		return nil, err
	}
	defer func() { _ = p.conn.Deallocate(ctx, name) }()

	stmt := &Statement{Name: name, SQL: sql}
	for _, oid := range sd.ParamOIDs {
		stmt.Params = append(stmt.Params, p.typeOf(oid))
	}
	for _, f := range sd.Fields {
		stmt.Columns = append(stmt.Columns, Column{Name: f.Name, Type: p.typeOf(f.DataTypeOID)})
	}
	return stmt, nil
}

func (p *pgxPreparer) typeOf(oid uint32) Type {
	t := Type{OID: oid}
	if pt, ok := p.conn.TypeMap().TypeForOID(oid); ok {
		t.Name = pt.Name
	}
	return t
}

func (p *pgxPreparer) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

type sqlPreparer struct {
	db *sql.DB
}

// NewSQL returns a Preparer over a database/sql handle.
func NewSQL(db *sql.DB) Preparer {
	return &sqlPreparer{db: db}
}

func (p *sqlPreparer) Prepare(ctx context.Context, name, query string) (*Statement, error) {
	stmt, err := p.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	_ = stmt.Close()
	return &Statement{Name: name, SQL: query}, nil
}

func (p *sqlPreparer) Close(context.Context) error {
	return p.db.Close()
}
