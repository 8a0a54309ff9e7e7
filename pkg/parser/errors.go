package parser

import (
	"fmt"
	"strings"

	"github.com/pthm/hugsql"
)

// maxSnippet bounds how much SQL an error message quotes.
const maxSnippet = 80

// AnnotationError describes one query unit that failed to parse.
type AnnotationError struct {
	// Line is the 1-based line where the unit starts.
	Line int

	// Source is the file path, empty when parsing a string.
	Source string

	// Name is the query name when the declaration carried a valid one.
	Name string

	// SQL is the unit's trimmed body, kept for diagnostics.
	SQL string

	// Err is the specific cause. It wraps one of the hugsql sentinels.
	Err error
}

func (e *AnnotationError) Error() string {
	var sb strings.Builder
	if e.Source != "" {
		sb.WriteString(e.Source)
		sb.WriteByte(':')
	}
	fmt.Fprintf(&sb, "%d: %v", e.Line, e.Err)
	if e.Name != "" {
		fmt.Fprintf(&sb, " (query %s)", e.Name)
	}
	fmt.Fprintf(&sb, ". Query: %q", snippet(e.SQL))
	return sb.String()
}

// Unwrap exposes both hugsql.ErrInvalidAnnotation and the specific cause
// to errors.Is.
func (e *AnnotationError) Unwrap() []error {
	return []error{hugsql.ErrInvalidAnnotation, e.Err}
}

// Errors is the batch of unit failures from one parse.
type Errors []*AnnotationError

func (e Errors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d invalid query units:", len(e))
	for _, err := range e {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap returns the individual failures.
func (e Errors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}

func snippet(sql string) string {
	sql = strings.Join(strings.Fields(sql), " ")
	r := []rune(sql)
	if len(r) <= maxSnippet {
		return sql
	}
	return string(r[:maxSnippet]) + "..."
}
