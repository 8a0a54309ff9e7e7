// Package hugsql turns annotated SQL files into data-access code.
//
// # Module Structure
//
// The root package is the runtime imported by generated code. It holds the
// database handle interfaces, the row helpers and the sentinel errors. The
// rest of the module is tooling:
//
//   - pkg/query: the Query model (Kind, Method, Query)
//   - pkg/parser: annotation file parsing
//   - pkg/condblock: conditional block parsing and assembly
//   - pkg/loader: annotation file discovery
//   - pkg/codegen: Go code generation
//   - pkg/verifier: statement verification against PostgreSQL
//
// # Annotation Files
//
// Queries live in plain .sql files. Each statement is preceded by a :name
// declaration and an optional :doc declaration:
//
//	-- :name fetch_user_by_id :typed :1
//	-- :doc Fetches a user by its identifier
//	SELECT user_id, email, name FROM users WHERE user_id = $1
//
// The kind token (:untyped, :typed or :<>, :mapped or :||) selects how rows
// are handed back. The method token (:! execute, :* fetch all, :1 fetch one,
// :? fetch optional, :^ fetch many) selects the result cardinality.
//
// # Conditional Blocks
//
// Parts of a statement can be switched on at call time:
//
//	-- :name find_users :typed :*
//	SELECT * FROM users
//	WHERE 1=1
//	--~{ active_only
//	AND active = true
//	--~}
//
// Generated code exposes one enum type per query with conditional blocks and
// takes an include function that decides which blocks are kept.
//
// # Basic Usage
//
// Generated code for the database/sql runtime wraps any Execer:
//
//	q := queries.New(db)
//	users, err := queries.FindUsers[User](ctx, q, func(c queries.FindUsersCond) bool {
//	    return c == queries.FindUsersActiveOnly
//	})
//
// The pgx runtime accepts any PgxQuerier (*pgx.Conn, *pgxpool.Pool, pgx.Tx).
//
// # Transaction Support
//
// Execer is satisfied by *sql.DB, *sql.Tx and *sql.Conn, so generated
// queries run inside a transaction by constructing them over the *sql.Tx:
//
//	tx, _ := db.BeginTx(ctx, nil)
//	q := queries.New(tx)
package hugsql
