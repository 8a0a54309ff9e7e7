package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hugsql"
	"github.com/pthm/hugsql/pkg/codegen"
	"github.com/pthm/hugsql/pkg/query"
)

func TestListRuntimes(t *testing.T) {
	runtimes := codegen.ListRuntimes()
	assert.Contains(t, runtimes, "go")
	assert.Contains(t, runtimes, "pgx")
	assert.True(t, codegen.Registered("go"))
	assert.False(t, codegen.Registered("python"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := codegen.DefaultConfig("go")
	require.NotNil(t, cfg)
	assert.Equal(t, "queries", cfg.Package)
	assert.Nil(t, codegen.DefaultConfig("nope"))
}

func TestGenerate(t *testing.T) {
	qs := []query.Query{{Name: "ping", Method: query.MethodFetchOne, SQL: "SELECT 1"}}

	files, err := codegen.Generate("go", qs, nil)
	require.NoError(t, err)
	assert.Contains(t, string(files["queries_gen.go"]), "func (q *Queries) Ping(")

	_, err = codegen.Generate("cobol", qs, nil)
	require.ErrorIs(t, err, hugsql.ErrUnknownRuntime)
	assert.Contains(t, err.Error(), "available: go, pgx")
}
