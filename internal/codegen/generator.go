// Package codegen provides a registry of runtime-specific Go code generators.
//
// Every generator turns a list of parsed queries into Go source that runs
// them. Generators differ in the database API the output is written
// against (database/sql, pgx). They return a file map so a runtime can
// split its output over several files.
//
// This is an internal package used by the hugsql CLI. For programmatic code
// generation, use pkg/codegen which provides a stable public API.
package codegen

import (
	"fmt"
	"sort"

	"github.com/pthm/hugsql/pkg/query"
)

// Generator produces Go data-access code from parsed queries.
//
// Implementations register themselves via Register() in their init()
// function. The CLI dispatches on the --runtime flag.
type Generator interface {
	// Name returns the runtime identifier ("go", "pgx").
	Name() string

	// Generate returns a map of filename -> content for all generated files.
	// Filenames are relative; the caller decides where to write them.
	Generate(queries []query.Query, cfg *Config) (map[string][]byte, error)

	// DefaultConfig returns the configuration used when the caller passes nil.
	DefaultConfig() *Config
}

// Config holds generation options shared by all runtimes.
type Config struct {
	// Package is the Go package name of the generated file.
	Package string

	// Type is the name of the struct that carries the database handle and
	// the query methods.
	Type string

	// Version is stamped into the generated header. Empty omits it.
	Version string

	// SourcePath is the annotation file or directory the queries came from.
	// Empty omits the Source line from the header.
	SourcePath string

	// Checksum identifies the source content. Empty omits it.
	Checksum string

	// Options holds runtime-specific configuration.
	Options map[string]any
}

// Defaults shared by the built-in generators.
const (
	DefaultPackage = "queries"
	DefaultType    = "Queries"
)

// WithDefaults returns a copy of cfg with empty fields filled from def.
func WithDefaults(cfg, def *Config) *Config {
	if cfg == nil {
		return def
	}
	out := *cfg
	if out.Package == "" {
		out.Package = def.Package
	}
	if out.Type == "" {
		out.Type = def.Type
	}
	if out.Options == nil {
		out.Options = def.Options
	}
	return &out
}

// registry maps runtime names to generators.
var registry = make(map[string]Generator)

// Register adds a generator to the global registry.
// Generators should call this from their init() function.
//
// Panics if a generator with the same name is already registered.
func Register(g Generator) {
	name := g.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("codegen: generator %q already registered", name))
	}
	registry[name] = g
}

// Get returns the generator for the given runtime name.
// Returns nil if no generator is registered for that name.
func Get(name string) Generator {
	return registry[name]
}

// List returns all registered generator names in sorted order.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registered returns true if a generator is registered for the given name.
func Registered(name string) bool {
	_, ok := registry[name]
	return ok
}
