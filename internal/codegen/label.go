package codegen

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stoewer/go-strcase"

	"github.com/pthm/hugsql"
	"github.com/pthm/hugsql/pkg/condblock"
	"github.com/pthm/hugsql/pkg/query"
)

// Label converts a query or condition identifier into an exported Go name.
// Characters that cannot appear in a Go identifier separate words, so
// "active_only", "active-only" and "active only" all become "ActiveOnly".
// A leading digit gets an "X" prefix. Returns "" when nothing usable remains.
func Label(identifier string) string {
	sanitized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, identifier)

	label := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, strcase.UpperCamelCase(sanitized))

	if label == "" {
		return ""
	}
	if r, _ := utf8.DecodeRuneInString(label); unicode.IsDigit(r) {
		label = "X" + label
	}
	return label
}

// Enum is the generated condition type of one query.
type Enum struct {
	// Type is the enum type name, "<QueryLabel>Cond".
	Type     string
	Variants []Variant
}

// Variant is one enum constant.
type Variant struct {
	// Name is the constant name, "<QueryLabel><ConditionLabel>".
	Name string
	// Identifier is the condition identifier exactly as written.
	Identifier string
}

// ConditionEnum derives the condition enum for q. It returns nil for a
// query without conditional blocks.
//
// Blocks that repeat an identifier share one variant. A block without an
// identifier is rejected with hugsql.ErrEmptyCondition, and two distinct
// identifiers deriving the same label with hugsql.ErrConditionCollision.
func ConditionEnum(q query.Query) (*Enum, error) {
	conds := condblock.Conditions(q.Blocks())
	if len(conds) == 0 {
		return nil, nil
	}

	queryLabel := Label(q.Name)
	enum := &Enum{Type: queryLabel + "Cond"}
	seen := make(map[string]string, len(conds))

	for _, c := range conds {
		if c == "" {
			return nil, fmt.Errorf("query %q: %w", q.Name, hugsql.ErrEmptyCondition)
		}
		label := Label(c)
		if label == "" {
			return nil, fmt.Errorf("query %q: %w: %q has no characters usable in a Go identifier",
				q.Name, hugsql.ErrEmptyCondition, c)
		}
		if prev, dup := seen[label]; dup {
			return nil, fmt.Errorf("query %q: %w: %q and %q both become %s",
				q.Name, hugsql.ErrConditionCollision, prev, c, label)
		}
		seen[label] = c
		enum.Variants = append(enum.Variants, Variant{Name: queryLabel + label, Identifier: c})
	}

	return enum, nil
}
