package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hugsql"
	"github.com/pthm/hugsql/pkg/query"
)

func strPtr(s string) *string { return &s }

func TestParseQueries_Defaults(t *testing.T) {
	input := `
-- :name fetch_users
-- :doc Returns all the users from DB
SELECT user_id, email, name, picture FROM users
`

	queries, err := ParseQueries(input)
	require.NoError(t, err)
	require.Len(t, queries, 1)

	q := queries[0]
	assert.Equal(t, "fetch_users", q.Name)
	assert.Equal(t, query.KindUntyped, q.Kind)
	assert.Equal(t, query.MethodExecute, q.Method)
	assert.Equal(t, strPtr("Returns all the users from DB"), q.Doc)
	assert.Equal(t, "SELECT user_id, email, name, picture FROM users", q.SQL)
	assert.Equal(t, 2, q.Line)
	assert.Empty(t, q.Source)
}

func TestParseQueries_Tokens(t *testing.T) {
	tests := []struct {
		name       string
		decl       string
		wantKind   query.Kind
		wantMethod query.Method
	}{
		{"method only", "-- :name fetch_users :^", query.KindUntyped, query.MethodFetchMany},
		{"kind only", "-- :name fetch_users :<>", query.KindTyped, query.MethodExecute},
		{"kind and method", "-- :name fetch_users :<> :^", query.KindTyped, query.MethodFetchMany},
		{"method then kind", "-- :name fetch_users :^ :<>", query.KindTyped, query.MethodFetchMany},
		{"mapped word", "-- :name fetch_users :mapped", query.KindMapped, query.MethodExecute},
		{"mapped symbol", "-- :name fetch_users :|| :*", query.KindMapped, query.MethodFetchAll},
		{"typed word", "-- :name fetch_users :typed :1", query.KindTyped, query.MethodFetchOne},
		{"untyped word", "-- :name fetch_users :untyped :?", query.KindUntyped, query.MethodFetchOptional},
		{"execute", "-- :name fetch_users :!", query.KindUntyped, query.MethodExecute},
		{"no space after marker", "--:name fetch_users :*", query.KindUntyped, query.MethodFetchAll},
		{"extra spacing", "   --   :name   fetch_users   :typed\t:^  ", query.KindTyped, query.MethodFetchMany},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries, err := ParseQueries(tt.decl + "\nSELECT user_id, email, name, picture FROM users\n")
			require.NoError(t, err)
			require.Len(t, queries, 1)
			assert.Equal(t, "fetch_users", queries[0].Name)
			assert.Nil(t, queries[0].Doc)
			assert.Equal(t, tt.wantKind, queries[0].Kind)
			assert.Equal(t, tt.wantMethod, queries[0].Method)
		})
	}
}

func TestParseQueries_Multiple(t *testing.T) {
	input := `
-- :name fetch_users
-- :doc Returns all the users from DB
SELECT user_id, email, name, picture FROM users

-- :name fetch_user_by_id :untyped :1
-- :doc Fetches user by its identifier
SELECT user_id, email, name, picture
  FROM users
 WHERE user_id = $1

-- :name set_picture :typed :1
-- :doc Sets user's picture.
-- Picture is expected to be a valid URL.
UPDATE users
   -- expected URL to the picture
   SET picture = ?
 WHERE user_id = ?

-- :name delete_user :typed :1
DELETE FROM users
 WHERE user_id = ?
`

	queries, err := ParseQueries(input)
	require.NoError(t, err)
	require.Len(t, queries, 4)

	assert.Equal(t, "fetch_users", queries[0].Name)
	assert.Equal(t, strPtr("Returns all the users from DB"), queries[0].Doc)
	assert.Equal(t, query.KindUntyped, queries[0].Kind)
	assert.Equal(t, query.MethodExecute, queries[0].Method)

	assert.Equal(t, "fetch_user_by_id", queries[1].Name)
	assert.Equal(t, strPtr("Fetches user by its identifier"), queries[1].Doc)
	assert.Equal(t, query.KindUntyped, queries[1].Kind)
	assert.Equal(t, query.MethodFetchOne, queries[1].Method)
	assert.Equal(t, "SELECT user_id, email, name, picture\n  FROM users\n WHERE user_id = $1", queries[1].SQL)

	assert.Equal(t, "set_picture", queries[2].Name)
	assert.Equal(t, strPtr("Sets user's picture.\nPicture is expected to be a valid URL."), queries[2].Doc)
	assert.Equal(t, query.KindTyped, queries[2].Kind)
	assert.Equal(t, query.MethodFetchOne, queries[2].Method)
	assert.Equal(t, "UPDATE users\n   -- expected URL to the picture\n   SET picture = ?\n WHERE user_id = ?", queries[2].SQL)

	assert.Equal(t, "delete_user", queries[3].Name)
	assert.Nil(t, queries[3].Doc)
	assert.Equal(t, query.KindTyped, queries[3].Kind)
	assert.Equal(t, query.MethodFetchOne, queries[3].Method)
	assert.Equal(t, 20, queries[3].Line)
}

func TestParseQueries_DocBeforeName(t *testing.T) {
	input := "-- :doc Deletes a user.\n-- Irreversible.\n-- :name delete_user :!\nDELETE FROM users WHERE id = $1"

	queries, err := ParseQueries(input)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "delete_user", queries[0].Name)
	assert.Equal(t, strPtr("Deletes a user.\nIrreversible."), queries[0].Doc)
	assert.Equal(t, "DELETE FROM users WHERE id = $1", queries[0].SQL)
	assert.Equal(t, 1, queries[0].Line)
}

func TestParseQueries_DeclarationOrderIndependent(t *testing.T) {
	tests := []struct {
		name      string
		nameFirst string
		docFirst  string
	}{
		{"with sql", "-- :name a :1\n-- :doc D\nSELECT 1", "-- :doc D\n-- :name a :1\nSELECT 1"},
		{"without sql", "-- :name a\n-- :doc D\n", "-- :doc D\n-- :name a\n"},
		{"without sql before next unit", "-- :name a\n-- :doc D\n-- :name b\nSELECT 2", "-- :doc D\n-- :name a\n-- :name b\nSELECT 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q1, err1 := ParseQueries(tt.nameFirst)
			q2, err2 := ParseQueries(tt.docFirst)

			if diff := cmp.Diff(q1, q2); diff != "" {
				t.Errorf("queries differ by declaration order (-name first +doc first):\n%s", diff)
			}
			if err1 == nil || err2 == nil {
				assert.Equal(t, err1, err2)
				return
			}
			assert.Equal(t, err1.Error(), err2.Error())
		})
	}
}

func TestParseQueries_DocStopsAtBlockMarker(t *testing.T) {
	input := "-- :name q :*\n-- :doc Filtered.\n--~{ active\nWHERE active\n--~}"

	queries, err := ParseQueries(input)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, strPtr("Filtered."), queries[0].Doc)
	assert.Equal(t, "--~{ active\nWHERE active\n--~}", queries[0].SQL)
	assert.True(t, queries[0].HasConditions())
}

func TestParseQueries_ConditionalBody(t *testing.T) {
	input := `-- :name find_users :typed :*
SELECT * FROM users
WHERE 1=1
--~{ active_only
AND active = true
--~}
`
	queries, err := ParseQueries(input)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "SELECT * FROM users\nWHERE 1=1\n--~{ active_only\nAND active = true\n--~}", queries[0].SQL)

	blocks := queries[0].Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "active_only", blocks[1].Condition)
}

func TestParseQueries_HeaderCommentsIgnored(t *testing.T) {
	input := "-- Queries for the users table.\n-- Owned by the accounts team.\n\n-- :name count_users :1\nSELECT count(*) FROM users\n"

	queries, err := ParseQueries(input)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "count_users", queries[0].Name)
}

func TestParseQueries_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "\n\n  \n", "-- just a comment\n"} {
		queries, err := ParseQueries(in)
		require.NoError(t, err)
		assert.Empty(t, queries)
	}
}

func TestParseQueries_EmptyBody(t *testing.T) {
	queries, err := ParseQueries("-- :name a\n-- :name b\nSELECT 1")
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "a", queries[0].Name)
	assert.Empty(t, queries[0].SQL)
	assert.Empty(t, queries[0].Blocks())
	assert.Equal(t, "b", queries[1].Name)
	assert.Equal(t, "SELECT 1", queries[1].SQL)
}

func TestParseQueries_CRLF(t *testing.T) {
	queries, err := ParseQueries("-- :name a :*\r\n-- :doc Doc\r\nSELECT 1\r\nFROM t\r\n")
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, strPtr("Doc"), queries[0].Doc)
	assert.Equal(t, "SELECT 1\nFROM t", queries[0].SQL)
}

func TestParseQueries_CountMatchesNameDeclarations(t *testing.T) {
	input := `
-- :name a
SELECT 1
-- :name b :*
-- :doc B
SELECT 2
-- :doc C
-- :name c :^
SELECT 3
-- :name d :typed
SELECT 4
`
	queries, err := ParseQueries(input)
	require.NoError(t, err)
	require.Len(t, queries, 4)
	for i, name := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, name, queries[i].Name)
	}
}

func TestParseQueries_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		wantLine int
	}{
		{"missing name", "-- :doc Orphan doc\nSELECT 1", hugsql.ErrMissingName, 1},
		{"empty name", "-- :name\nSELECT 1", hugsql.ErrMissingName, 1},
		{"name starts with digit", "-- :name 1users\nSELECT 1", hugsql.ErrMissingName, 1},
		{"name with dash", "-- :name fetch-users\nSELECT 1", hugsql.ErrMissingName, 1},
		{"unknown token", "-- :name q :foo\nSELECT 1", hugsql.ErrInvalidToken, 1},
		{"legacy parens token", "-- :name q :() :1\nSELECT 1", hugsql.ErrInvalidToken, 1},
		{"two kinds", "-- :name q :typed :mapped\nSELECT 1", hugsql.ErrDuplicateToken, 1},
		{"two methods", "-- :name q :1 :*\nSELECT 1", hugsql.ErrDuplicateToken, 1},
		{"doc without sql", "-- :name q\n-- :doc Lonely", hugsql.ErrUnterminatedDoc, 1},
		{"doc first without sql", "-- :doc Lonely\n-- :name q", hugsql.ErrUnterminatedDoc, 1},
		{"sql before first name", "\nSELECT 1\n-- :name q\nSELECT 2", hugsql.ErrMissingName, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQueries(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, hugsql.ErrInvalidAnnotation)

			var errs Errors
			require.ErrorAs(t, err, &errs)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantLine, errs[0].Line)
		})
	}
}

func TestParseQueries_BatchErrors(t *testing.T) {
	input := `
-- :name good_one :*
SELECT 1

-- :doc Unit without a name
SELECT broken

-- :name good_two :1
SELECT 2

-- :name bad :nope
SELECT 3

-- :name good_three
SELECT 4
`
	queries, err := ParseQueries(input)
	require.Error(t, err)

	require.Len(t, queries, 3)
	assert.Equal(t, "good_one", queries[0].Name)
	assert.Equal(t, "good_two", queries[1].Name)
	assert.Equal(t, "good_three", queries[2].Name)

	var errs Errors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 2)

	assert.ErrorIs(t, errs[0], hugsql.ErrMissingName)
	assert.Equal(t, 5, errs[0].Line)
	assert.Equal(t, "SELECT broken", errs[0].SQL)
	assert.Contains(t, errs[0].Error(), `Query: "SELECT broken"`)

	assert.ErrorIs(t, errs[1], hugsql.ErrInvalidToken)
	assert.Equal(t, "bad", errs[1].Name)
	assert.Contains(t, err.Error(), "2 invalid query units")
}

func TestAnnotationError_Message(t *testing.T) {
	e := &AnnotationError{
		Line:   7,
		Source: "db/users.sql",
		Name:   "fetch",
		SQL:    "SELECT\n  a,\n  b\nFROM t",
		Err:    hugsql.ErrUnterminatedDoc,
	}
	assert.Equal(t,
		`db/users.sql:7: hugsql: :doc declaration is not followed by SQL (query fetch). Query: "SELECT a, b FROM t"`,
		e.Error())
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.sql")
	err := os.WriteFile(path, []byte("-- :name fetch_users :*\nSELECT * FROM users\n"), 0o644)
	require.NoError(t, err)

	queries, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, path, queries[0].Source)

	_, err = ParseFile(filepath.Join(dir, "missing.sql"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading query file")
}

func TestParseSource(t *testing.T) {
	content := "-- :name ok :*\nSELECT 1\n-- :name bad :zzz\nSELECT 2\n"

	queries, err := ParseSource(content, "db/users.sql")
	require.Len(t, queries, 1)
	assert.Equal(t, "db/users.sql", queries[0].Source)

	var errs Errors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "db/users.sql", errs[0].Source)
	assert.Contains(t, errs[0].Error(), "db/users.sql:3:")

	path := filepath.Join(t.TempDir(), "users.sql")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	fromFile, fileErr := ParseFile(path)
	fromSource, sourceErr := ParseSource(content, path)
	assert.Equal(t, fromSource, fromFile)
	assert.Equal(t, sourceErr.Error(), fileErr.Error())
}
