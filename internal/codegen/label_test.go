package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hugsql"
	"github.com/pthm/hugsql/pkg/query"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fetch_users", "FetchUsers"},
		{"active_only", "ActiveOnly"},
		{"active-only", "ActiveOnly"},
		{"active only", "ActiveOnly"},
		{"include.deleted", "IncludeDeleted"},
		{"fetchUsers", "FetchUsers"},
		{"_private", "Private"},
		{"", ""},
		{"___", ""},
		{"$%!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.in))
		})
	}

	t.Run("leading digit", func(t *testing.T) {
		got := Label("2fa")
		assert.True(t, strings.HasPrefix(got, "X2"), got)
	})
}

func TestConditionEnum(t *testing.T) {
	t.Run("no conditions", func(t *testing.T) {
		enum, err := ConditionEnum(query.Query{Name: "q", SQL: "SELECT 1"})
		require.NoError(t, err)
		assert.Nil(t, enum)
	})

	t.Run("distinct and repeated identifiers", func(t *testing.T) {
		q := query.Query{
			Name: "find_users",
			SQL: "SELECT * FROM users WHERE 1=1\n" +
				"--~{ active_only\nAND active\n--~}\n" +
				"--~{ by_team\nAND team_id = $1\n--~}\n" +
				"--~{ active_only\nAND verified\n--~}",
		}
		enum, err := ConditionEnum(q)
		require.NoError(t, err)
		require.NotNil(t, enum)
		assert.Equal(t, "FindUsersCond", enum.Type)
		assert.Equal(t, []Variant{
			{Name: "FindUsersActiveOnly", Identifier: "active_only"},
			{Name: "FindUsersByTeam", Identifier: "by_team"},
		}, enum.Variants)
	})

	t.Run("empty identifier", func(t *testing.T) {
		q := query.Query{Name: "q", SQL: "SELECT 1\n--~{\nAND x\n--~}"}
		_, err := ConditionEnum(q)
		assert.ErrorIs(t, err, hugsql.ErrEmptyCondition)
	})

	t.Run("identifier without usable characters", func(t *testing.T) {
		q := query.Query{Name: "q", SQL: "SELECT 1\n--~{ ???\nAND x\n--~}"}
		_, err := ConditionEnum(q)
		assert.ErrorIs(t, err, hugsql.ErrEmptyCondition)
	})

	t.Run("collision", func(t *testing.T) {
		q := query.Query{Name: "q", SQL: "SELECT 1\n--~{ active_only\nA\n--~}\n--~{ active-only\nB\n--~}"}
		_, err := ConditionEnum(q)
		require.Error(t, err)
		assert.True(t, hugsql.IsConditionCollisionErr(err))
		assert.Contains(t, err.Error(), `"active_only" and "active-only"`)
	})
}

func TestRegistry(t *testing.T) {
	assert.False(t, Registered("nope"))
	assert.Nil(t, Get("nope"))

	Register(stubGenerator{name: "stub-registry-test"})
	assert.True(t, Registered("stub-registry-test"))
	assert.Contains(t, List(), "stub-registry-test")

	assert.Panics(t, func() { Register(stubGenerator{name: "stub-registry-test"}) })
}

type stubGenerator struct{ name string }

func (g stubGenerator) Name() string { return g.name }

func (g stubGenerator) Generate([]query.Query, *Config) (map[string][]byte, error) {
	return nil, nil
}

func (g stubGenerator) DefaultConfig() *Config { return &Config{} }

func TestWithDefaults(t *testing.T) {
	def := &Config{Package: DefaultPackage, Type: DefaultType}

	assert.Same(t, def, WithDefaults(nil, def))

	got := WithDefaults(&Config{Package: "db", Version: "v1.2.3"}, def)
	assert.Equal(t, "db", got.Package)
	assert.Equal(t, DefaultType, got.Type)
	assert.Equal(t, "v1.2.3", got.Version)
}
