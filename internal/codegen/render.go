package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/pthm/hugsql"
	"github.com/pthm/hugsql/pkg/condblock"
	"github.com/pthm/hugsql/pkg/query"
)

//go:embed templates/*.tpl
var templatesFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"quote":   goString,
	"comment": comment,
}).ParseFS(templatesFS, "templates/*.tpl"))

// TypeParam names the type parameter of generic query functions.
const TypeParam = "T"

// Runtime describes the database API generated code is written against.
// Every expression is package qualified; Imports resolves qualifiers that
// are not part of the common set (context, iter, hugsql, condblock).
type Runtime struct {
	// Description names the API in the generated type comment.
	Description string

	// Handle is the interface type of the db field.
	Handle string

	// ExecMethod and QueryMethod are the handle methods for statements
	// without and with result rows.
	ExecMethod  string
	QueryMethod string

	// Rows is the type QueryMethod returns.
	Rows string

	// ExecResult is the result type of execute queries.
	ExecResult string

	// Row is the element type of untyped queries.
	Row string

	// RowToMap decodes an untyped row. RowToStruct decodes a typed row
	// into TypeParam. Mapper is the type of the mapper parameter of mapped
	// queries.
	RowToMap    string
	RowToStruct string
	Mapper      string

	// Collection helpers, called as fn(rows, decode). Iter is called as
	// fn(open, decode).
	CollectAll      string
	CollectOne      string
	CollectOptional string
	Iter            string

	Imports map[string]string
}

var commonImports = map[string]string{
	"context":   "context",
	"iter":      "iter",
	"hugsql":    "github.com/pthm/hugsql",
	"condblock": "github.com/pthm/hugsql/pkg/condblock",
}

// qualifierRe finds package selectors such as "sql.Result" in generated
// Go expressions. Field selectors like "q.db.Exec" are not matched.
var qualifierRe = regexp.MustCompile(`(?:^|[^.\w])([a-z][a-z0-9]*)\.[A-Z]`)

type fileView struct {
	Version    string
	SourcePath string
	Checksum   string
	Package    string
	Type       string
	Runtime    string
	Handle     string
	StdImports []string
	Imports    []string
	Queries    []*queryView
}

type queryView struct {
	Label     string
	Comment   []string
	Enum      *Enum
	SQLVar    string
	SQL       string
	Blocks    []string
	Signature string
	Body      string
}

// Render produces the formatted Go file for queries using rt.
func Render(queries []query.Query, cfg *Config, rt *Runtime) ([]byte, error) {
	view, err := buildFile(queries, cfg, rt)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "queries.go.tpl", view); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return out, nil
}

func buildFile(queries []query.Query, cfg *Config, rt *Runtime) (*fileView, error) {
	if !query.IsIdentifier(cfg.Package) {
		return nil, fmt.Errorf("invalid package name %q", cfg.Package)
	}
	if !query.IsIdentifier(cfg.Type) {
		return nil, fmt.Errorf("invalid type name %q", cfg.Type)
	}

	view := &fileView{
		Version:    cfg.Version,
		SourcePath: cfg.SourcePath,
		Checksum:   cfg.Checksum,
		Package:    cfg.Package,
		Type:       cfg.Type,
		Runtime:    rt.Description,
		Handle:     rt.Handle,
	}

	s := newScope()
	s.declare(cfg.Type, "the query type")
	s.declare("New", "the constructor")

	used := map[string]bool{}
	addQualifiers(used, rt.Handle)

	for _, q := range queries {
		qv, err := buildQuery(q, cfg, rt, s)
		if err != nil {
			return nil, err
		}
		addQualifiers(used, qv.Signature)
		addQualifiers(used, qv.Body)
		if qv.Enum != nil {
			used["condblock"] = true
		}
		view.Queries = append(view.Queries, qv)
	}

	if err := s.err(); err != nil {
		return nil, err
	}

	for qualifier := range used {
		path, ok := commonImports[qualifier]
		if !ok {
			path, ok = rt.Imports[qualifier]
		}
		if !ok {
			return nil, fmt.Errorf("runtime %s: no import path for %q", rt.Description, qualifier)
		}
		if strings.Contains(strings.SplitN(path, "/", 2)[0], ".") {
			view.Imports = append(view.Imports, path)
		} else {
			view.StdImports = append(view.StdImports, path)
		}
	}
	sort.Strings(view.StdImports)
	sort.Strings(view.Imports)

	return view, nil
}

func buildQuery(q query.Query, cfg *Config, rt *Runtime, s *scope) (*queryView, error) {
	label := Label(q.Name)
	if label == "" {
		return nil, fmt.Errorf("query %q does not produce a usable Go name", q.Name)
	}

	enum, err := ConditionEnum(q)
	if err != nil {
		return nil, err
	}

	qv := &queryView{
		Label:   label,
		Enum:    enum,
		Comment: methodComment(label, q),
	}

	s.declare(label, q.Name)
	if enum != nil {
		qv.SQLVar = lowerFirst(label) + "Blocks"
		s.declare(enum.Type, q.Name)
		for _, v := range enum.Variants {
			s.declare(v.Name, q.Name)
		}
		for _, b := range q.Blocks() {
			qv.Blocks = append(qv.Blocks, blockExpr(b))
		}
	} else {
		qv.SQLVar = lowerFirst(label) + "SQL"
		qv.SQL = goString(q.SQL)
	}
	s.declare(qv.SQLVar, q.Name)

	qv.Signature = signature(q, label, enum, cfg, rt)
	qv.Body = body(q, qv, rt)
	return qv, nil
}

// generic reports whether q is emitted as a package-level generic function.
// Methods cannot declare type parameters.
func generic(q query.Query) bool {
	return q.Kind != query.KindUntyped && q.Method != query.MethodExecute
}

func signature(q query.Query, label string, enum *Enum, cfg *Config, rt *Runtime) string {
	params := []string{"ctx context.Context"}

	var head string
	if generic(q) {
		head = fmt.Sprintf("func %s[%s any](", label, TypeParam)
		params = append(params, "q *"+cfg.Type)
		if q.Kind == query.KindMapped {
			params = append(params, "mapper "+rt.Mapper)
		}
	} else {
		head = fmt.Sprintf("func (q *%s) %s(", cfg.Type, label)
	}

	if enum != nil {
		params = append(params, fmt.Sprintf("include func(%s) bool", enum.Type))
	}
	params = append(params, "args ...any")

	return head + strings.Join(params, ", ") + ") " + resultType(q, rt)
}

func elemType(q query.Query, rt *Runtime) string {
	if q.Kind == query.KindUntyped {
		return rt.Row
	}
	return TypeParam
}

func resultType(q query.Query, rt *Runtime) string {
	elem := elemType(q, rt)
	switch q.Method {
	case query.MethodFetchAll:
		return fmt.Sprintf("([]%s, error)", elem)
	case query.MethodFetchOne:
		return fmt.Sprintf("(%s, error)", elem)
	case query.MethodFetchOptional:
		return fmt.Sprintf("(*%s, error)", elem)
	case query.MethodFetchMany:
		return fmt.Sprintf("iter.Seq2[%s, error]", elem)
	default:
		return fmt.Sprintf("(%s, error)", rt.ExecResult)
	}
}

func decoder(q query.Query, rt *Runtime) string {
	switch q.Kind {
	case query.KindTyped:
		return rt.RowToStruct
	case query.KindMapped:
		return "mapper"
	default:
		return rt.RowToMap
	}
}

func body(q query.Query, qv *queryView, rt *Runtime) string {
	var b strings.Builder

	if qv.Enum != nil {
		fmt.Fprintf(&b, "\tquery := condblock.Assemble(%s, func(c string) bool {\n", qv.SQLVar)
		fmt.Fprintf(&b, "\t\treturn include != nil && include(%s(c))\n", qv.Enum.Type)
		b.WriteString("\t})\n")
	} else {
		fmt.Fprintf(&b, "\tquery := %s\n", qv.SQLVar)
	}

	decode := decoder(q, rt)
	switch q.Method {
	case query.MethodExecute:
		fmt.Fprintf(&b, "\treturn q.db.%s(ctx, query, args...)\n", rt.ExecMethod)
	case query.MethodFetchMany:
		fmt.Fprintf(&b, "\treturn %s(func() (%s, error) {\n", rt.Iter, rt.Rows)
		fmt.Fprintf(&b, "\t\treturn q.db.%s(ctx, query, args...)\n", rt.QueryMethod)
		fmt.Fprintf(&b, "\t}, %s)\n", decode)
	default:
		collect, zero := rt.CollectAll, "nil"
		switch q.Method {
		case query.MethodFetchOne:
			collect = rt.CollectOne
			if q.Kind != query.KindUntyped {
				zero = "*new(" + TypeParam + ")"
			}
		case query.MethodFetchOptional:
			collect = rt.CollectOptional
		}
		fmt.Fprintf(&b, "\trows, err := q.db.%s(ctx, query, args...)\n", rt.QueryMethod)
		b.WriteString("\tif err != nil {\n")
		fmt.Fprintf(&b, "\t\treturn %s, err\n", zero)
		b.WriteString("\t}\n")
		fmt.Fprintf(&b, "\treturn %s(rows, %s)\n", collect, decode)
	}

	return b.String()
}

func methodComment(label string, q query.Query) []string {
	lines := []string{fmt.Sprintf("%s runs the %s query (%s, %s).", label, q.Name, q.Kind, q.Method)}
	if q.Doc != nil && strings.TrimSpace(*q.Doc) != "" {
		lines = append(lines, "")
		lines = append(lines, strings.Split(*q.Doc, "\n")...)
	}
	if q.Source != "" {
		lines = append(lines, "", fmt.Sprintf("Defined at %s:%d.", q.Source, q.Line))
	}
	return lines
}

func blockExpr(b condblock.Block) string {
	if b.Kind == condblock.BlockConditional {
		return fmt.Sprintf("condblock.Conditional(%s, %s)", strconv.Quote(b.Condition), goString(b.Text))
	}
	return fmt.Sprintf("condblock.Literal(%s)", goString(b.Text))
}

// goString returns s as a Go string literal, preferring a raw literal.
func goString(s string) string {
	if strings.ContainsAny(s, "`\r") || !utf8.ValidString(s) {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

func comment(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if l == "" {
			b.WriteString("//")
			continue
		}
		b.WriteString("// ")
		b.WriteString(l)
	}
	return b.String()
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}

func addQualifiers(used map[string]bool, expr string) {
	for _, m := range qualifierRe.FindAllStringSubmatch(expr, -1) {
		used[m[1]] = true
	}
}

// scope tracks top-level identifiers of the generated file.
type scope struct {
	owners map[string]string
	errs   []error
}

func newScope() *scope {
	return &scope{owners: make(map[string]string)}
}

func (s *scope) declare(name, owner string) {
	if prev, dup := s.owners[name]; dup {
		s.errs = append(s.errs, fmt.Errorf("%w: %s is generated for both %s and %s",
			hugsql.ErrDuplicateQuery, name, prev, owner))
		return
	}
	s.owners[name] = owner
}

func (s *scope) err() error {
	if len(s.errs) == 0 {
		return nil
	}
	return s.errs[0]
}
