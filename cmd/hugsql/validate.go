package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pthm/hugsql/internal/cli"
	"github.com/pthm/hugsql/pkg/loader"
	"github.com/pthm/hugsql/pkg/parser"
)

var validateQueries string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate annotation files",
	Long: `Parse every annotation file and report each malformed query unit.

Parsing never stops at the first error: every failing unit in every file is
listed, with its file and line.`,
	Example: `  # Validate a directory of query files
  hugsql validate --queries db/queries

  # Validate using config file settings
  hugsql validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveString(validateQueries, cfg.Queries)

		set, err := loadQueries(path)
		if set == nil {
			return err
		}

		out := cmd.OutOrStdout()
		r := lipgloss.NewRenderer(out)
		bad := r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
		good := r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
		faint := r.NewStyle().Faint(true)

		if err != nil {
			for _, e := range annotationErrors(err) {
				fmt.Fprintf(out, "%s %s\n", bad.Render("✗"), e.Error())
			}
			return err
		}

		if _, err := set.Queries(); err != nil {
			fmt.Fprintf(out, "%s %v\n", bad.Render("✗"), err)
			return cli.ParseError("validating queries", err)
		}

		if !quiet {
			fmt.Fprintf(out, "%s %d queries in %d files are valid\n",
				good.Render("✓"), set.Count(), len(set.Files))
			if verbose > 0 {
				for _, f := range set.Files {
					fmt.Fprintf(out, "  %s %s\n", f.Path, faint.Render(fmt.Sprintf("(%d queries)", len(f.Queries))))
					for _, q := range f.Queries {
						fmt.Fprintf(out, "    - %s %s %s\n", q.Name, faint.Render(q.Kind.Token()), faint.Render(q.Method.Token()))
					}
				}
			}
		}

		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateQueries, "queries", "", "annotation file or directory")
}

// annotationErrors flattens a load failure into its individual unit errors.
func annotationErrors(err error) []error {
	var files *loader.Errors
	if !errors.As(err, &files) {
		return []error{err}
	}

	var out []error
	for _, f := range files.Files {
		var units parser.Errors
		if !errors.As(f.Err, &units) {
			out = append(out, f)
			continue
		}
		for _, u := range units {
			out = append(out, u)
		}
	}
	return out
}
