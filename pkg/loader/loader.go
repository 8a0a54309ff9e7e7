// Package loader discovers annotation files and parses them into a query set.
//
// A path may name a single file or a directory. Directories are walked
// recursively and every *.sql file is parsed, in lexical path order so
// generated output is stable.
//
//	set, err := loader.Load("db/queries")
//	if err != nil {
//	    var lerr *loader.Errors
//	    if errors.As(err, &lerr) {
//	        // set still holds every file that parsed cleanly
//	    }
//	}
//	queries, err := set.Queries()
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pthm/hugsql"
	"github.com/pthm/hugsql/pkg/parser"
	"github.com/pthm/hugsql/pkg/query"
)

// Extension is the file suffix picked up when walking a directory.
const Extension = ".sql"

// File is one parsed annotation file.
type File struct {
	Path    string        `json:"path"`
	Queries []query.Query `json:"queries"`

	// Checksum is the hex SHA-256 of the file content.
	Checksum string `json:"checksum"`
}

// Set is the result of loading a path.
type Set struct {
	Root  string `json:"root"`
	Files []File `json:"files"`
}

// FileError records the parse failures of one file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Errors aggregates the per-file failures of one Load call.
type Errors struct {
	Files []*FileError
}

func (e *Errors) Error() string {
	if len(e.Files) == 1 {
		return e.Files[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d files failed to parse:", len(e.Files))
	for _, f := range e.Files {
		sb.WriteString("\n")
		sb.WriteString(f.Error())
	}
	return sb.String()
}

// Unwrap returns the per-file errors.
func (e *Errors) Unwrap() []error {
	errs := make([]error, len(e.Files))
	for i, f := range e.Files {
		errs[i] = f
	}
	return errs
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load parses the annotation file at path, or every *.sql file beneath it
// when path is a directory.
//
// Files that fail to parse are reported through *Errors; the returned set
// still contains the queries of every file (including the valid units of
// failing files). I/O errors abort the load and return a nil set.
func Load(path string) (*Set, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading queries: %w", err)
	}

	var paths []string
	if info.IsDir() {
		paths, err = discover(path)
		if err != nil {
			return nil, err
		}
	} else {
		paths = []string{path}
	}

	set := &Set{Root: path}
	var errs Errors

	for _, p := range paths {
		content, err := os.ReadFile(p) //nolint:gosec // paths come from the walk above
		if err != nil {
			return nil, fmt.Errorf("reading query file: %w", err)
		}

		sum := sha256.Sum256(content)
		queries, perr := parser.ParseSource(string(content), p)
		if perr != nil {
			errs.Files = append(errs.Files, &FileError{Path: p, Err: perr})
		}

		set.Files = append(set.Files, File{
			Path:     p,
			Queries:  queries,
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	if len(errs.Files) > 0 {
		return set, &errs
	}
	return set, nil
}

func discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), Extension) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Queries flattens the set in file order. Query names must be unique
// across the set because generated code places every query on one type.
func (s *Set) Queries() ([]query.Query, error) {
	var out []query.Query
	seen := make(map[string]query.Query)
	for _, f := range s.Files {
		for _, q := range f.Queries {
			if prev, dup := seen[q.Name]; dup {
				return nil, fmt.Errorf("%w: %q defined at %s:%d and %s:%d",
					hugsql.ErrDuplicateQuery, q.Name, prev.Source, prev.Line, q.Source, q.Line)
			}
			seen[q.Name] = q
			out = append(out, q)
		}
	}
	return out, nil
}

// Checksum combines the file checksums into one digest for the set.
// Paths are hashed relative to the root so the digest is location
// independent.
func (s *Set) Checksum() string {
	h := sha256.New()
	for _, f := range s.Files {
		rel, err := filepath.Rel(s.Root, f.Path)
		if err != nil {
			rel = f.Path
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		h.Write([]byte(f.Checksum))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Count returns the number of queries in the set.
func (s *Set) Count() int {
	n := 0
	for _, f := range s.Files {
		n += len(f.Queries)
	}
	return n
}
