// Package pgxgen generates data-access code for pgx.
//
// The output mirrors the database/sql runtime over hugsql.PgxQuerier:
// execute queries return pgconn.CommandTag, rows are decoded with the pgx
// collection helpers, and mapped queries take a pgx.RowToFunc.
package pgxgen

import (
	"github.com/pthm/hugsql/internal/codegen"
	"github.com/pthm/hugsql/pkg/query"
)

func init() {
	codegen.Register(&Generator{})
}

// Filename is the name of the generated file.
const Filename = "queries_pgx_gen.go"

var runtime = &codegen.Runtime{
	Description:     "pgx",
	Handle:          "hugsql.PgxQuerier",
	ExecMethod:      "Exec",
	QueryMethod:     "Query",
	Rows:            "pgx.Rows",
	ExecResult:      "pgconn.CommandTag",
	Row:             "hugsql.Row",
	RowToMap:        "hugsql.PgxRowToMap",
	RowToStruct:     "pgx.RowToStructByName[" + codegen.TypeParam + "]",
	Mapper:          "pgx.RowToFunc[" + codegen.TypeParam + "]",
	CollectAll:      "pgx.CollectRows",
	CollectOne:      "hugsql.PgxCollectOneRow",
	CollectOptional: "hugsql.PgxCollectOptionalRow",
	Iter:            "hugsql.PgxIterRows",
	Imports: map[string]string{
		"pgx":    "github.com/jackc/pgx/v5",
		"pgconn": "github.com/jackc/pgx/v5/pgconn",
	},
}

// Generator implements codegen.Generator for pgx.
type Generator struct{}

// Name returns "pgx" as the runtime identifier.
func (g *Generator) Name() string { return "pgx" }

// DefaultConfig returns default configuration for pgx code generation.
func (g *Generator) DefaultConfig() *codegen.Config {
	return &codegen.Config{
		Package: codegen.DefaultPackage,
		Type:    codegen.DefaultType,
		Options: make(map[string]any),
	}
}

// Generate renders queries into queries_pgx_gen.go.
// If cfg is nil, uses DefaultConfig().
func (g *Generator) Generate(queries []query.Query, cfg *codegen.Config) (map[string][]byte, error) {
	cfg = codegen.WithDefaults(cfg, g.DefaultConfig())

	src, err := codegen.Render(queries, cfg, runtime)
	if err != nil {
		return nil, err
	}
	return map[string][]byte{Filename: src}, nil
}
