// Package codegen is the public API for generating Go data-access code from
// annotated queries.
//
// Code generation turns each query into a typed call site. Instead of
// passing SQL strings around, callers use generated functions whose
// parameters and results follow the query's kind and method:
//
//	// Before: SQL text and row decoding at every call site
//	rows, err := db.QueryContext(ctx, "SELECT * FROM users WHERE active")
//
//	// After: one generated function per query
//	users, err := queries.FetchActiveUsers[User](ctx, q)
//
// Typical workflow (run via go:generate or build script):
//
//	set, _ := loader.Load("db/queries")
//	qs, _ := set.Queries()
//	files, _ := codegen.Generate("go", qs, &codegen.Config{Package: "queries"})
//	for name, src := range files {
//	    os.WriteFile(filepath.Join("internal/queries", name), src, 0o644)
//	}
//
// The generated file should be committed to version control so the build
// does not depend on the annotation files.
package codegen

import (
	"fmt"
	"strings"

	"github.com/pthm/hugsql"
	internal "github.com/pthm/hugsql/internal/codegen"
	_ "github.com/pthm/hugsql/internal/codegen/go"  // register the database/sql runtime
	_ "github.com/pthm/hugsql/internal/codegen/pgx" // register the pgx runtime
	"github.com/pthm/hugsql/pkg/query"
)

// Config is an alias for the generator configuration.
type Config = internal.Config

// Generate renders queries with the generator registered for runtime.
// It returns a map of relative filename to formatted Go source.
//
// A nil cfg uses the runtime's defaults; empty Package and Type fields are
// filled from them.
func Generate(runtime string, queries []query.Query, cfg *Config) (map[string][]byte, error) {
	gen := internal.Get(runtime)
	if gen == nil {
		return nil, fmt.Errorf("%w %q (available: %s)", hugsql.ErrUnknownRuntime, runtime, strings.Join(ListRuntimes(), ", "))
	}
	return gen.Generate(queries, cfg)
}

// ListRuntimes returns the names of all registered runtimes, sorted.
func ListRuntimes() []string {
	return internal.List()
}

// Registered reports whether a generator exists for runtime.
func Registered(runtime string) bool {
	return internal.Registered(runtime)
}

// DefaultConfig returns the default configuration of runtime, or nil when
// the runtime is not registered.
func DefaultConfig(runtime string) *Config {
	gen := internal.Get(runtime)
	if gen == nil {
		return nil
	}
	return gen.DefaultConfig()
}
