// Package verifier checks annotated queries against a live PostgreSQL
// database by preparing them on the server.
//
// Preparing parses, analyzes and plans a statement without running it, so
// a verified query is known to reference existing tables and columns and to
// be type-correct. Queries with conditional blocks are prepared twice: once
// with every block included and once with every block excluded.
//
//	p, err := verifier.Open(ctx, "pgx", dsn)
//	if err != nil {
//	    return err
//	}
//	defer p.Close(ctx)
//
//	report, err := verifier.Verify(ctx, p, queries)
//	for _, r := range report.Failed() {
//	    fmt.Printf("%s: %s\n", r.Query, r.Failure.Message)
//	}
package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/pthm/hugsql/pkg/condblock"
	"github.com/pthm/hugsql/pkg/query"
)

// Variant identifies which SQL variant of a query was prepared.
type Variant string

const (
	// VariantPlain is the SQL of a query without conditional blocks.
	VariantPlain Variant = "plain"
	// VariantAllIncluded has every conditional block included.
	VariantAllIncluded Variant = "all-included"
	// VariantAllExcluded has every conditional block excluded.
	VariantAllExcluded Variant = "all-excluded"
)

// Result is the outcome of preparing one query variant.
type Result struct {
	Query   string  `json:"query"`
	Source  string  `json:"source,omitempty"`
	Line    int     `json:"line"`
	Variant Variant `json:"variant"`

	// Statement is set when preparation succeeded.
	Statement *Statement `json:"statement,omitempty"`

	// Failure is set when preparation failed.
	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether the variant prepared successfully.
func (r Result) OK() bool { return r.Failure == nil }

// Location returns "source:line", or just the line when there is no source.
func (r Result) Location() string {
	if r.Source == "" {
		return fmt.Sprintf("line %d", r.Line)
	}
	return fmt.Sprintf("%s:%d", r.Source, r.Line)
}

// Report collects the results of one Verify call in query order.
type Report struct {
	Results []Result `json:"results"`
}

// OK reports whether every variant prepared successfully.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the results that did not prepare.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Variants returns the SQL variants prepared for q.
func Variants(q query.Query) map[Variant]string {
	blocks := q.Blocks()
	if len(condblock.Conditions(blocks)) == 0 {
		return map[Variant]string{VariantPlain: condblock.Assemble(blocks, nil)}
	}
	return map[Variant]string{
		VariantAllIncluded: condblock.Assemble(blocks, func(string) bool { return true }),
		VariantAllExcluded: condblock.Assemble(blocks, nil),
	}
}

// Verify prepares every query on p. Preparation failures are recorded in
// the report; the returned error is only set when ctx ends early, in which
// case the report holds the results gathered so far.
func Verify(ctx context.Context, p Preparer, queries []query.Query) (*Report, error) {
	report := &Report{}

	for _, q := range queries {
		variants := Variants(q)
		for _, v := range []Variant{VariantPlain, VariantAllIncluded, VariantAllExcluded} {
			sql, ok := variants[v]
			if !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return report, err
			}

			res := Result{Query: q.Name, Source: q.Source, Line: q.Line, Variant: v}
			if strings.TrimSpace(sql) == "" {
				res.Failure = &Failure{Message: "query has no SQL"}
				report.Results = append(report.Results, res)
				continue
			}

			stmt, err := p.Prepare(ctx, statementName(q.Name, v), sql)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return report, ctxErr
				}
				res.Failure = newFailure(err, sql)
			} else {
				res.Statement = stmt
			}
			report.Results = append(report.Results, res)
		}
	}

	return report, nil
}

func statementName(name string, v Variant) string {
	return "hugsql_verify_" + name + "_" + strings.ReplaceAll(string(v), "-", "_")
}
