// Package gogen generates data-access code for database/sql.
//
// The output is a single queries_gen.go file. Each query becomes a method
// on the configured type, or a generic package function when it decodes
// rows into a caller-chosen type:
//
//	q := queries.New(db)
//	res, err := q.DeleteUser(ctx, id)                       // :!
//	users, err := queries.FetchUsers[User](ctx, q)          // :typed :*
//	for row, err := range q.StreamEvents(ctx, since) { ... } // :^
package gogen

import (
	"github.com/pthm/hugsql/internal/codegen"
	"github.com/pthm/hugsql/pkg/query"
)

func init() {
	codegen.Register(&Generator{})
}

// Filename is the name of the generated file.
const Filename = "queries_gen.go"

var runtime = &codegen.Runtime{
	Description:     "database/sql",
	Handle:          "hugsql.Execer",
	ExecMethod:      "ExecContext",
	QueryMethod:     "QueryContext",
	Rows:            "*sql.Rows",
	ExecResult:      "sql.Result",
	Row:             "hugsql.Row",
	RowToMap:        "hugsql.RowToMap",
	RowToStruct:     "hugsql.RowToStructByName[" + codegen.TypeParam + "]",
	Mapper:          "hugsql.RowMapper[" + codegen.TypeParam + "]",
	CollectAll:      "hugsql.CollectRows",
	CollectOne:      "hugsql.CollectOneRow",
	CollectOptional: "hugsql.CollectOptionalRow",
	Iter:            "hugsql.IterRows",
	Imports: map[string]string{
		"sql": "database/sql",
	},
}

// Generator implements codegen.Generator for database/sql.
type Generator struct{}

// Name returns "go" as the runtime identifier.
func (g *Generator) Name() string { return "go" }

// DefaultConfig returns default configuration for database/sql code generation.
func (g *Generator) DefaultConfig() *codegen.Config {
	return &codegen.Config{
		Package: codegen.DefaultPackage,
		Type:    codegen.DefaultType,
		Options: make(map[string]any),
	}
}

// Generate renders queries into queries_gen.go.
// If cfg is nil, uses DefaultConfig().
func (g *Generator) Generate(queries []query.Query, cfg *codegen.Config) (map[string][]byte, error) {
	cfg = codegen.WithDefaults(cfg, g.DefaultConfig())

	src, err := codegen.Render(queries, cfg, runtime)
	if err != nil {
		return nil, err
	}
	return map[string][]byte{Filename: src}, nil
}
