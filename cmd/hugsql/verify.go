package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pthm/hugsql/internal/cli"
	"github.com/pthm/hugsql/pkg/verifier"
)

var (
	verifyDB      string
	verifyQueries string
	verifyDriver  string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Prepare every query against a database",
	Long: `Prepare every query on a PostgreSQL database without executing it.

Queries with conditional blocks are prepared twice: once with every block
included and once with every block excluded.`,
	Example: `  # Verify against a database
  hugsql verify --db postgres://localhost/mydb

  # Use database/sql with lib/pq instead of a native pgx connection
  hugsql verify --db postgres://localhost/mydb --driver postgres`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveString(verifyQueries, cfg.ResolvedQueries(cfg.Verify.Queries))
		driver := resolveString(verifyDriver, cfg.Verify.Driver)

		if !slices.Contains(verifier.Drivers, driver) {
			return cli.ConfigError(
				fmt.Sprintf("unknown driver %q", driver),
				fmt.Errorf("supported drivers: %s", strings.Join(verifier.Drivers, ", ")),
			)
		}

		dsn, err := resolveDSN(verifyDB)
		if err != nil {
			return err
		}
		if dsn == "" {
			return cli.ConfigError("--db, database.url or DATABASE_URL is required", nil)
		}

		_, queries, err := loadValidQueries(path)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		p, err := verifier.Open(ctx, driver, dsn)
		if err != nil {
			return cli.DBConnectError("connecting to database", err)
		}
		defer func() { _ = p.Close(ctx) }()

		report, err := verifier.Verify(ctx, p, queries)
		if err != nil {
			return cli.GeneralError("verifying queries", err)
		}

		printVerifyReport(cmd.OutOrStdout(), report)

		if !report.OK() {
			return cli.GeneralError(fmt.Sprintf("%d statements failed to prepare", len(report.Failed())), nil)
		}
		return nil
	},
}

func init() {
	f := verifyCmd.Flags()
	f.StringVar(&verifyDB, "db", "", "database URL")
	f.StringVar(&verifyQueries, "queries", "", "annotation file or directory")
	f.StringVar(&verifyDriver, "driver", "", "database driver: "+strings.Join(verifier.Drivers, ", "))
}

func printVerifyReport(w io.Writer, report *verifier.Report) {
	r := lipgloss.NewRenderer(w)
	bad := r.NewStyle().Foreground(lipgloss.Color("1"))
	good := r.NewStyle().Foreground(lipgloss.Color("2"))
	faint := r.NewStyle().Faint(true)

	for _, res := range report.Results {
		if res.OK() {
			if quiet {
				continue
			}
			fmt.Fprintf(w, "%s %s %s\n", good.Render("✓"), res.Query, faint.Render(string(res.Variant)))
			if verbose > 0 && res.Statement != nil {
				for i, p := range res.Statement.Params {
					fmt.Fprintf(w, "    $%d %s\n", i+1, faint.Render(p.Name))
				}
				for _, c := range res.Statement.Columns {
					fmt.Fprintf(w, "    %s %s\n", c.Name, faint.Render(c.Type.Name))
				}
			}
			continue
		}

		f := res.Failure
		fmt.Fprintf(w, "%s %s %s (%s)\n", bad.Render("✗"), res.Query, faint.Render(string(res.Variant)), res.Location())
		msg := f.Message
		if f.Code != "" {
			msg = fmt.Sprintf("%s [%s %s]", msg, f.Code, f.Name)
		}
		fmt.Fprintf(w, "    %s\n", msg)
		if f.Near != "" {
			fmt.Fprintf(w, "    near: %s\n", strings.TrimSpace(f.Near))
		}
		if f.Detail != "" {
			fmt.Fprintf(w, "    detail: %s\n", f.Detail)
		}
		if f.Hint != "" {
			fmt.Fprintf(w, "    hint: %s\n", f.Hint)
		}
	}

	if !quiet {
		fmt.Fprintf(w, "\n%d statements prepared, %d failed\n",
			len(report.Results)-len(report.Failed()), len(report.Failed()))
	}
}
