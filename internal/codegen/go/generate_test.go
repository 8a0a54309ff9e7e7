package gogen_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hugsql"
	"github.com/pthm/hugsql/internal/codegen"
	gogen "github.com/pthm/hugsql/internal/codegen/go"
	hparser "github.com/pthm/hugsql/pkg/parser"
	"github.com/pthm/hugsql/pkg/query"
)

const annotations = `
-- :name fetch_users :typed :*
-- :doc Returns all the users.
-- Inactive users are included.
SELECT user_id, email FROM users

-- :name fetch_user_by_id :1
SELECT * FROM users WHERE user_id = $1

-- :name find_user :mapped :?
SELECT * FROM users WHERE email = $1

-- :name stream_events :^
SELECT * FROM events WHERE created_at > $1

-- :name delete_user :typed :!
DELETE FROM users WHERE user_id = $1

-- :name search_users :typed :*
SELECT * FROM users
WHERE 1=1
--~{ active_only
AND active = true
--~}
--~{ by_team
AND team_id = $1
--~}
--~{ active_only
AND verified = true
--~}
`

func parseQueries(t *testing.T, src string) []query.Query {
	t.Helper()
	queries, err := hparser.ParseQueries(src)
	require.NoError(t, err)
	return queries
}

func parseGenerated(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "queries_gen.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))
	return f
}

func imports(f *ast.File) []string {
	var out []string
	for _, imp := range f.Imports {
		p, _ := strconv.Unquote(imp.Path.Value)
		out = append(out, p)
	}
	return out
}

func typeNames(f *ast.File) []string {
	var out []string
	for _, d := range f.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			out = append(out, s.(*ast.TypeSpec).Name.Name)
		}
	}
	return out
}

func funcs(f *ast.File) map[string]*ast.FuncDecl {
	out := make(map[string]*ast.FuncDecl)
	for _, d := range f.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			name := fd.Name.Name
			if fd.Recv != nil {
				name = exprString(fd.Recv.List[0].Type) + "." + name
			}
			out[name] = fd
		}
	}
	return out
}

func exprString(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.StarExpr:
		return exprString(v.X)
	case *ast.Ident:
		return v.Name
	default:
		return ""
	}
}

func TestGenerator_Interface(t *testing.T) {
	gen := &gogen.Generator{}

	assert.Equal(t, "go", gen.Name())

	cfg := gen.DefaultConfig()
	assert.Equal(t, "queries", cfg.Package)
	assert.Equal(t, "Queries", cfg.Type)
	assert.True(t, codegen.Registered("go"))
}

func TestGenerator_Generate(t *testing.T) {
	gen := &gogen.Generator{}
	queries := parseQueries(t, annotations)

	files, err := gen.Generate(queries, &codegen.Config{
		Package:    "store",
		Version:    "v1.0.0",
		SourcePath: "db/queries",
	})
	require.NoError(t, err)
	require.Len(t, files, 1)

	src := files[gogen.Filename]
	require.NotEmpty(t, src)
	code := string(src)
	f := parseGenerated(t, src)

	t.Run("header and package", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(code, "// Code generated by hugsql v1.0.0. DO NOT EDIT.\n// Source: db/queries\n"))
		assert.Equal(t, "store", f.Name.Name)
	})

	t.Run("imports only what is used", func(t *testing.T) {
		assert.ElementsMatch(t, []string{
			"context",
			"database/sql",
			"iter",
			"github.com/pthm/hugsql",
			"github.com/pthm/hugsql/pkg/condblock",
		}, imports(f))
	})

	t.Run("one enum per query with conditions", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"Queries", "SearchUsersCond"}, typeNames(f))
		assert.Contains(t, code, `SearchUsersActiveOnly SearchUsersCond = `+"`active_only`")
		assert.Contains(t, code, `SearchUsersByTeam     SearchUsersCond = `+"`by_team`")
		assert.Equal(t, 1, strings.Count(code, "SearchUsersActiveOnly SearchUsersCond"))
	})

	t.Run("methods and generic functions", func(t *testing.T) {
		fns := funcs(f)
		for _, name := range []string{
			"New",
			"Queries.FetchUserById",
			"Queries.StreamEvents",
			"Queries.DeleteUser",
			"FetchUsers",
			"FindUser",
			"SearchUsers",
			"SearchUsersCond.String",
		} {
			assert.Contains(t, fns, name)
		}

		assert.NotNil(t, fns["FetchUsers"].Type.TypeParams)
		assert.Nil(t, fns["Queries.DeleteUser"].Type.TypeParams)
	})

	t.Run("signatures", func(t *testing.T) {
		assert.Contains(t, code, "func FetchUsers[T any](ctx context.Context, q *Queries, args ...any) ([]T, error)")
		assert.Contains(t, code, "func (q *Queries) FetchUserById(ctx context.Context, args ...any) (hugsql.Row, error)")
		assert.Contains(t, code, "func FindUser[T any](ctx context.Context, q *Queries, mapper hugsql.RowMapper[T], args ...any) (*T, error)")
		assert.Contains(t, code, "func (q *Queries) StreamEvents(ctx context.Context, args ...any) iter.Seq2[hugsql.Row, error]")
		assert.Contains(t, code, "func (q *Queries) DeleteUser(ctx context.Context, args ...any) (sql.Result, error)")
		assert.Contains(t, code, "func SearchUsers[T any](ctx context.Context, q *Queries, include func(SearchUsersCond) bool, args ...any) ([]T, error)")
	})

	t.Run("doc becomes comment", func(t *testing.T) {
		assert.Contains(t, code, "// FetchUsers runs the fetch_users query (typed, fetch_all).\n//\n// Returns all the users.\n// Inactive users are included.\n")
	})

	t.Run("conditional blocks are assembled at call time", func(t *testing.T) {
		assert.Contains(t, code, "condblock.Assemble(searchUsersBlocks, func(c string) bool {")
		assert.Contains(t, code, "condblock.Conditional(\"by_team\", `AND team_id = $1`)")
		assert.Contains(t, code, "const fetchUsersSQL = `SELECT user_id, email FROM users`")
	})
}

func TestGenerator_NoConditionsNoIter(t *testing.T) {
	gen := &gogen.Generator{}
	files, err := gen.Generate(parseQueries(t, "-- :name ping :1\nSELECT 1"), nil)
	require.NoError(t, err)

	f := parseGenerated(t, files[gogen.Filename])
	assert.ElementsMatch(t, []string{"context", "github.com/pthm/hugsql"}, imports(f))
}

func TestGenerator_Empty(t *testing.T) {
	gen := &gogen.Generator{}
	files, err := gen.Generate(nil, nil)
	require.NoError(t, err)

	f := parseGenerated(t, files[gogen.Filename])
	assert.Equal(t, []string{"github.com/pthm/hugsql"}, imports(f))
	assert.Equal(t, []string{"Queries"}, typeNames(f))
}

func TestGenerator_QuotesBackticks(t *testing.T) {
	gen := &gogen.Generator{}
	files, err := gen.Generate(parseQueries(t, "-- :name odd :1\nSELECT '`' AS tick"), nil)
	require.NoError(t, err)

	code := string(files[gogen.Filename])
	assert.Contains(t, code, "const oddSQL = \"SELECT '`' AS tick\"")
	parseGenerated(t, files[gogen.Filename])
}

func TestGenerator_Errors(t *testing.T) {
	gen := &gogen.Generator{}

	tests := []struct {
		name    string
		src     string
		cfg     *codegen.Config
		wantErr error
	}{
		{
			name:    "condition collision",
			src:     "-- :name q :*\nSELECT 1\n--~{ a_b\nX\n--~}\n--~{ a-b\nY\n--~}",
			wantErr: hugsql.ErrConditionCollision,
		},
		{
			name:    "empty condition",
			src:     "-- :name q :*\nSELECT 1\n--~{\nX\n--~}",
			wantErr: hugsql.ErrEmptyCondition,
		},
		{
			name:    "query labels collide",
			src:     "-- :name fetch_users\nSELECT 1\n-- :name fetchUsers\nSELECT 2",
			wantErr: hugsql.ErrDuplicateQuery,
		},
		{
			name:    "query collides with type",
			src:     "-- :name queries\nSELECT 1",
			wantErr: hugsql.ErrDuplicateQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gen.Generate(parseQueries(t, tt.src), tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("invalid package", func(t *testing.T) {
		_, err := gen.Generate(nil, &codegen.Config{Package: "my-pkg"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid package name")
	})
}
