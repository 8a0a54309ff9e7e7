// Package parser provides annotation file parsing for hugsql.
//
// An annotation file is a sequence of query units. Each unit starts with a
// :name declaration and an optional :doc declaration (in either order),
// followed by the SQL body up to the next declaration:
//
//	-- :name fetch_users :typed :*
//	-- :doc Returns all users.
//	-- Continuation comment lines are part of the doc.
//	SELECT user_id, email FROM users
//
//	-- :name delete_user :!
//	DELETE FROM users WHERE user_id = $1
//
// # Basic Usage
//
// Parse a file:
//
//	queries, err := parser.ParseFile("db/queries/users.sql")
//
// Parse from a string:
//
//	queries, err := parser.ParseQueries(content)
//
// # Batch Errors
//
// Parsing never stops at the first malformed unit. When one or more units
// fail, the returned error is a parser.Errors value holding one
// *AnnotationError per failed unit, and the returned slice still holds every
// unit that parsed successfully. Failed units never contribute a Query.
//
//	queries, err := parser.ParseQueries(content)
//	var errs parser.Errors
//	if errors.As(err, &errs) {
//	    for _, e := range errs {
//	        fmt.Println(e)
//	    }
//	}
//
// Every *AnnotationError matches hugsql.ErrInvalidAnnotation and one of the
// specific sentinels (hugsql.ErrMissingName, hugsql.ErrInvalidToken,
// hugsql.ErrDuplicateToken, hugsql.ErrUnterminatedDoc) via errors.Is.
//
// The parser treats SQL bodies as opaque text. Conditional block markers are
// left in place; see pkg/condblock.
package parser

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/pthm/hugsql"
	"github.com/pthm/hugsql/pkg/query"
)

const (
	commentMarker = "--"
	nameKeyword   = ":name"
	docKeyword    = ":doc"

	// Lines starting with this prefix are conditional block markers and
	// never continue a doc declaration.
	blockMarkerPrefix = "--~"
)

// ParseFile reads an annotation file and returns its queries.
// Each returned query has Source set to path.
func ParseFile(path string) ([]query.Query, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path is from trusted source
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}

	return ParseSource(string(content), path)
}

// ParseSource parses annotation text read from source. Every returned
// query and every *AnnotationError carries source, as with ParseFile.
func ParseSource(content, source string) ([]query.Query, error) {
	return parse(content, source)
}

// ParseQueries parses annotation text and returns its queries in source
// order. See the package documentation for the error contract.
func ParseQueries(content string) ([]query.Query, error) {
	return parse(content, "")
}

type lineKind int

const (
	lineSQL lineKind = iota
	lineComment
	lineName
	lineDoc
)

// unit accumulates the elements of one query unit.
type unit struct {
	line int

	nameSeen bool
	name     string
	kind     query.Kind
	method   query.Method
	nameErr  error

	doc *string

	body []string
}

func (u *unit) hasBody() bool {
	for _, l := range u.body {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

func parse(content, source string) ([]query.Query, error) {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	var (
		header []string
		units  []*unit
		cur    *unit
	)

	for i := 0; i < len(lines); i++ {
		kind, rest := classify(lines[i])

		switch kind {
		case lineName:
			if cur == nil || cur.nameSeen || cur.hasBody() {
				cur = &unit{line: i + 1}
				units = append(units, cur)
			}
			cur.nameSeen = true
			cur.name, cur.kind, cur.method, cur.nameErr = parseSignature(rest)

		case lineDoc:
			if cur == nil || cur.doc != nil || cur.hasBody() {
				cur = &unit{line: i + 1}
				units = append(units, cur)
			}
			parts := []string{rest}
			for i+1 < len(lines) && isDocContinuation(lines[i+1]) {
				i++
				parts = append(parts, commentText(lines[i]))
			}
			doc := strings.Join(parts, "\n")
			cur.doc = &doc

		default:
			if cur == nil {
				header = append(header, lines[i])
				continue
			}
			cur.body = append(cur.body, lines[i])
		}
	}

	var (
		queries []query.Query
		errs    Errors
	)

	if e := checkHeader(header, source); e != nil {
		errs = append(errs, e)
	}

	for _, u := range units {
		q, err := u.build(source)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		queries = append(queries, q)
	}

	if len(errs) > 0 {
		return queries, errs
	}
	return queries, nil
}

// build folds the unit's elements into a Query.
func (u *unit) build(source string) (query.Query, *AnnotationError) {
	sql := strings.TrimSpace(strings.Join(u.body, "\n"))

	fail := func(err error) *AnnotationError {
		return &AnnotationError{Line: u.line, Source: source, Name: u.name, SQL: sql, Err: err}
	}

	switch {
	case !u.nameSeen:
		return query.Query{}, fail(hugsql.ErrMissingName)
	case u.nameErr != nil:
		return query.Query{}, fail(u.nameErr)
	case u.doc != nil && sql == "":
		return query.Query{}, fail(hugsql.ErrUnterminatedDoc)
	}

	return query.Query{
		Name:   u.name,
		Kind:   u.kind,
		Method: u.method,
		Doc:    u.doc,
		SQL:    sql,
		Line:   u.line,
		Source: source,
	}, nil
}

// checkHeader validates text before the first declaration. Blank and
// comment lines form a file header and are ignored; anything else is SQL
// that belongs to no named query.
func checkHeader(header []string, source string) *AnnotationError {
	first := 0
	hasSQL := false
	for i, l := range header {
		t := strings.TrimSpace(l)
		if t == "" || strings.HasPrefix(t, commentMarker) {
			continue
		}
		if !hasSQL {
			first = i
			hasSQL = true
		}
	}
	if !hasSQL {
		return nil
	}
	return &AnnotationError{
		Line:   first + 1,
		Source: source,
		SQL:    strings.TrimSpace(strings.Join(header, "\n")),
		Err:    hugsql.ErrMissingName,
	}
}

// classify determines what a line declares. For declarations, rest is the
// trimmed text following the keyword.
func classify(line string) (kind lineKind, rest string) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, commentMarker) {
		return lineSQL, ""
	}

	body := strings.TrimSpace(t[len(commentMarker):])
	if r, ok := cutKeyword(body, nameKeyword); ok {
		return lineName, r
	}
	if r, ok := cutKeyword(body, docKeyword); ok {
		return lineDoc, r
	}
	return lineComment, ""
}

// cutKeyword reports whether s starts with kw as a whole word and returns
// the trimmed remainder.
func cutKeyword(s, kw string) (string, bool) {
	if !strings.HasPrefix(s, kw) {
		return "", false
	}
	rest := s[len(kw):]
	if rest != "" && !unicode.IsSpace([]rune(rest)[0]) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func isDocContinuation(line string) bool {
	kind, _ := classify(line)
	if kind != lineComment {
		return false
	}
	return !strings.HasPrefix(strings.TrimSpace(line), blockMarkerPrefix)
}

func commentText(line string) string {
	t := strings.TrimSpace(line)
	return strings.TrimSpace(strings.TrimPrefix(t, commentMarker))
}

// parseSignature parses the text after ":name": an identifier followed by
// optional kind and method tokens in any order.
func parseSignature(rest string) (name string, kind query.Kind, method query.Method, err error) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", query.KindUntyped, query.MethodExecute, hugsql.ErrMissingName
	}
	if !query.IsIdentifier(fields[0]) {
		return "", query.KindUntyped, query.MethodExecute, fmt.Errorf("%w: %q", hugsql.ErrMissingName, fields[0])
	}
	name = fields[0]

	var kindSet, methodSet bool
	for _, tok := range fields[1:] {
		if k, ok := query.ParseKind(tok); ok {
			if kindSet {
				return name, kind, method, fmt.Errorf("%w: second kind %q", hugsql.ErrDuplicateToken, tok)
			}
			kind, kindSet = k, true
			continue
		}
		if m, ok := query.ParseMethod(tok); ok {
			if methodSet {
				return name, kind, method, fmt.Errorf("%w: second method %q", hugsql.ErrDuplicateToken, tok)
			}
			method, methodSet = m, true
			continue
		}
		return name, kind, method, fmt.Errorf("%w: %q", hugsql.ErrInvalidToken, tok)
	}

	return name, kind, method, nil
}
