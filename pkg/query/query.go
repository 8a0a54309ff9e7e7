// Package query defines the parsed form of an annotated SQL statement.
//
// A Query is produced by pkg/parser from one annotation unit:
//
//	-- :name fetch_user_by_id :typed :1
//	-- :doc Fetches a user by its identifier
//	SELECT user_id, email FROM users WHERE user_id = $1
//
// Kind and Method are closed enumerations. Consumers (code generators,
// inspectors) are expected to switch over them exhaustively.
//
// This package is dependency-free (stdlib only) and performs no I/O.
package query

import (
	"regexp"

	"github.com/pthm/hugsql/pkg/condblock"
)

// Kind describes how returned rows are handed to the caller.
type Kind int

const (
	// KindUntyped returns rows as-is. This is the default.
	KindUntyped Kind = iota
	// KindTyped decodes rows into a caller-supplied record type.
	KindTyped
	// KindMapped passes each row through a caller-supplied transform.
	KindMapped
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindUntyped:
		return "untyped"
	case KindTyped:
		return "typed"
	case KindMapped:
		return "mapped"
	default:
		return "unknown"
	}
}

// Token returns the canonical annotation token for the kind.
func (k Kind) Token() string {
	return ":" + k.String()
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind maps an annotation token to a Kind.
// Both the symbolic (:<>, :||) and word forms are accepted.
func ParseKind(token string) (Kind, bool) {
	switch token {
	case ":<>", ":typed":
		return KindTyped, true
	case ":||", ":mapped":
		return KindMapped, true
	case ":untyped":
		return KindUntyped, true
	default:
		return KindUntyped, false
	}
}

// Method describes the cardinality and call shape of a query result.
type Method int

const (
	// MethodExecute returns no rows, only an execution summary. This is the default.
	MethodExecute Method = iota
	// MethodFetchAll eagerly returns every row.
	MethodFetchAll
	// MethodFetchOne returns exactly one row or an error.
	MethodFetchOne
	// MethodFetchOptional returns zero or one row.
	MethodFetchOptional
	// MethodFetchMany returns a lazily streamed sequence of rows.
	MethodFetchMany
)

// String returns the snake_case method name.
func (m Method) String() string {
	switch m {
	case MethodExecute:
		return "execute"
	case MethodFetchAll:
		return "fetch_all"
	case MethodFetchOne:
		return "fetch_one"
	case MethodFetchOptional:
		return "fetch_optional"
	case MethodFetchMany:
		return "fetch_many"
	default:
		return "unknown"
	}
}

// Token returns the annotation token for the method.
func (m Method) Token() string {
	switch m {
	case MethodExecute:
		return ":!"
	case MethodFetchAll:
		return ":*"
	case MethodFetchOne:
		return ":1"
	case MethodFetchOptional:
		return ":?"
	case MethodFetchMany:
		return ":^"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMethod maps an annotation token to a Method.
func ParseMethod(token string) (Method, bool) {
	switch token {
	case ":!":
		return MethodExecute, true
	case ":*":
		return MethodFetchAll, true
	case ":1":
		return MethodFetchOne, true
	case ":?":
		return MethodFetchOptional, true
	case ":^":
		return MethodFetchMany, true
	default:
		return MethodExecute, false
	}
}

// Query is one annotated SQL statement.
//
// Queries are built once by the parser and never mutated afterwards.
type Query struct {
	// Name is the identifier from the :name declaration.
	Name string `json:"name"`

	// Kind defaults to KindUntyped when the declaration omits it.
	Kind Kind `json:"kind"`

	// Method defaults to MethodExecute when the declaration omits it.
	Method Method `json:"method"`

	// Doc is nil when the unit has no :doc declaration.
	Doc *string `json:"doc,omitempty"`

	// SQL is the trimmed body. It may contain conditional block markers.
	SQL string `json:"sql"`

	// Line is the 1-based line of the unit's first declaration.
	Line int `json:"line"`

	// Source is the file the query was read from, if any.
	Source string `json:"source,omitempty"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s is a valid query or condition name:
// letters, digits and underscores, not starting with a digit.
func IsIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// Blocks splits the SQL body into literal and conditional blocks.
func (q Query) Blocks() []condblock.Block {
	return condblock.Parse(q.SQL)
}

// HasConditions reports whether the body contains at least one
// conditional block.
func (q Query) HasConditions() bool {
	for _, b := range q.Blocks() {
		if b.Kind == condblock.BlockConditional {
			return true
		}
	}
	return false
}

// DocString returns the doc text, or the empty string when absent.
func (q Query) DocString() string {
	if q.Doc == nil {
		return ""
	}
	return *q.Doc
}
