// Package doctor provides health checks for hugsql query files.
//
// The doctor command validates that annotation files are discoverable and
// parse cleanly, that conditional blocks are well formed, that code can be
// generated, and, when a database is configured, that every statement
// prepares on the server.
//
// Example usage:
//
//	d := doctor.New(db, doctor.Options{QueriesPath: "db/queries", Runtime: "go"})
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pthm/hugsql/pkg/codegen"
	"github.com/pthm/hugsql/pkg/condblock"
	"github.com/pthm/hugsql/pkg/loader"
	"github.com/pthm/hugsql/pkg/parser"
	"github.com/pthm/hugsql/pkg/query"
	"github.com/pthm/hugsql/pkg/verifier"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

func (s Status) color() lipgloss.Color {
	switch s {
	case StatusPass:
		return lipgloss.Color("2")
	case StatusWarn:
		return lipgloss.Color("3")
	default:
		return lipgloss.Color("1")
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Query Files", "Database").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer. Colors are only used when
// w is a terminal.
func (r *Report) Print(w io.Writer, verbose bool) {
	renderer := lipgloss.NewRenderer(w)
	heading := renderer.NewStyle().Bold(true)
	faint := renderer.NewStyle().Faint(true)

	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", heading.Render(cat))
		for _, check := range categories[cat] {
			symbol := renderer.NewStyle().Foreground(check.Status.color()).Render(check.Status.Symbol())
			_, _ = fmt.Fprintf(w, "  %s %s\n", symbol, check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", faint.Render(line))
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Options selects what the doctor inspects.
type Options struct {
	// QueriesPath is the annotation file or directory.
	QueriesPath string

	// Runtime is the code generation runtime to try. Empty skips the check.
	Runtime string
}

// Doctor performs health checks on query files and, optionally, a database.
type Doctor struct {
	db   *sql.DB
	opts Options

	// Populated during Run
	set     *loader.Set
	queries []query.Query
}

// New creates a new Doctor instance. db may be nil, in which case the
// database checks are reported as skipped.
func New(db *sql.DB, opts Options) *Doctor {
	return &Doctor{db: db, opts: opts}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkQueryFiles(report)
	d.checkConditionalBlocks(report)
	d.checkCodegen(report)
	if err := d.checkDatabase(ctx, report); err != nil {
		return nil, fmt.Errorf("checking database: %w", err)
	}

	return report, nil
}

const catFiles = "Query Files"

// checkQueryFiles loads and parses the annotation files.
func (d *Doctor) checkQueryFiles(report *Report) {
	if !loader.Exists(d.opts.QueriesPath) {
		report.AddCheck(CheckResult{
			Category: catFiles,
			Name:     "exists",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Queries not found at %s", d.opts.QueriesPath),
			FixHint:  "Set 'queries' in hugsql.yaml or pass --queries",
		})
		return
	}

	set, err := loader.Load(d.opts.QueriesPath)
	if set == nil {
		report.AddCheck(CheckResult{
			Category: catFiles,
			Name:     "exists",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Queries could not be read from %s", d.opts.QueriesPath),
			Details:  err.Error(),
		})
		return
	}
	d.set = set

	if len(set.Files) == 0 {
		report.AddCheck(CheckResult{
			Category: catFiles,
			Name:     "exists",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("No %s files under %s", loader.Extension, d.opts.QueriesPath),
			FixHint:  "Add annotated SQL files with '-- :name' declarations",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: catFiles,
		Name:     "exists",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Found %d files at %s", len(set.Files), d.opts.QueriesPath),
	})

	if err != nil {
		report.AddCheck(CheckResult{
			Category: catFiles,
			Name:     "valid",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d invalid query units", countUnitErrors(err)),
			Details:  err.Error(),
			FixHint:  "Run 'hugsql validate' to list every error",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: catFiles,
			Name:     "valid",
			Status:   StatusPass,
			Message:  fmt.Sprintf("All files parse (%d queries)", set.Count()),
		})
	}

	queries, err := set.Queries()
	if err != nil {
		report.AddCheck(CheckResult{
			Category: catFiles,
			Name:     "unique",
			Status:   StatusFail,
			Message:  "Query names are not unique",
			Details:  err.Error(),
			FixHint:  "Rename one of the queries",
		})
		return
	}
	d.queries = queries

	report.AddCheck(CheckResult{
		Category: catFiles,
		Name:     "unique",
		Status:   StatusPass,
		Message:  "Query names are unique",
	})
}

func countUnitErrors(err error) int {
	var lerr *loader.Errors
	if !errors.As(err, &lerr) {
		return 1
	}
	n := 0
	for _, f := range lerr.Files {
		var perrs parser.Errors
		if errors.As(f, &perrs) {
			n += len(perrs)
		} else {
			n++
		}
	}
	return n
}

const catBlocks = "Conditional Blocks"

// checkConditionalBlocks lints the SQL body of every query.
func (d *Doctor) checkConditionalBlocks(report *Report) {
	if d.queries == nil {
		return
	}

	var (
		withBlocks int
		warnings   []string
	)
	for _, q := range d.queries {
		if q.HasConditions() {
			withBlocks++
		}
		for _, issue := range condblock.Lint(q.SQL) {
			warnings = append(warnings, fmt.Sprintf("%s (%s): %s", q.Name, location(q), issue))
		}
	}

	if len(warnings) > 0 {
		report.AddCheck(CheckResult{
			Category: catBlocks,
			Name:     "lint",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d suspicious block markers", len(warnings)),
			Details:  strings.Join(warnings, "\n"),
			FixHint:  "Markers must start a line; close every '--~{' with '--~}'",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: catBlocks,
		Name:     "lint",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Block markers are well formed (%d queries with conditions)", withBlocks),
	})
}

func location(q query.Query) string {
	if q.Source == "" {
		return fmt.Sprintf("line %d", q.Line)
	}
	return fmt.Sprintf("%s:%d", q.Source, q.Line)
}

const catCodegen = "Code Generation"

// checkCodegen renders the queries with the configured runtime.
func (d *Doctor) checkCodegen(report *Report) {
	if d.queries == nil || d.opts.Runtime == "" {
		return
	}

	if !codegen.Registered(d.opts.Runtime) {
		report.AddCheck(CheckResult{
			Category: catCodegen,
			Name:     "runtime",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Unknown runtime %q", d.opts.Runtime),
			FixHint:  fmt.Sprintf("Use one of: %s", strings.Join(codegen.ListRuntimes(), ", ")),
		})
		return
	}

	if _, err := codegen.Generate(d.opts.Runtime, d.queries, nil); err != nil {
		report.AddCheck(CheckResult{
			Category: catCodegen,
			Name:     "generate",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Code cannot be generated for runtime %s", d.opts.Runtime),
			Details:  err.Error(),
			FixHint:  "Give conditions distinct identifiers that differ in more than punctuation",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: catCodegen,
		Name:     "generate",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Code generates for runtime %s", d.opts.Runtime),
	})
}

const catDatabase = "Database"

// checkDatabase verifies connectivity and prepares every statement.
func (d *Doctor) checkDatabase(ctx context.Context, report *Report) error {
	if d.db == nil {
		report.AddCheck(CheckResult{
			Category: catDatabase,
			Name:     "connect",
			Status:   StatusWarn,
			Message:  "No database configured, statements not verified",
			FixHint:  "Pass --db or set database.url in hugsql.yaml",
		})
		return nil
	}

	var version string
	if err := d.db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		report.AddCheck(CheckResult{
			Category: catDatabase,
			Name:     "connect",
			Status:   StatusFail,
			Message:  "Cannot connect to database",
			Details:  err.Error(),
			FixHint:  "Check the connection settings and that the server is running",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: catDatabase,
		Name:     "connect",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Connected to PostgreSQL %s", version),
	})

	if len(d.queries) == 0 {
		return nil
	}

	vr, err := verifier.Verify(ctx, verifier.NewSQL(d.db), d.queries)
	if err != nil {
		return err
	}

	failed := vr.Failed()
	if len(failed) > 0 {
		var details []string
		for _, f := range failed {
			details = append(details, fmt.Sprintf("%s [%s] (%s): %s", f.Query, f.Variant, f.Location(), f.Failure.Message))
		}
		report.AddCheck(CheckResult{
			Category: catDatabase,
			Name:     "prepare",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d of %d statements do not prepare", len(failed), len(vr.Results)),
			Details:  strings.Join(details, "\n"),
			FixHint:  "Run 'hugsql verify' for positions and server hints",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: catDatabase,
		Name:     "prepare",
		Status:   StatusPass,
		Message:  fmt.Sprintf("All %d statements prepare", len(vr.Results)),
	})
	return nil
}
