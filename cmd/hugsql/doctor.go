package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pthm/hugsql/internal/cli"
	"github.com/pthm/hugsql/internal/doctor"
)

var (
	doctorDB      string
	doctorQueries string
	doctorRuntime string
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long: `Run health checks on query files, conditional blocks, code generation
and, when a database is configured, server connectivity and statement
preparation.`,
	Example: `  # Check query files only
  hugsql doctor

  # Include database checks, with verbose output
  hugsql doctor --db postgres://localhost/mydb -v`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveString(doctorQueries, cfg.ResolvedQueries(cfg.Doctor.Queries))
		runtime := resolveString(doctorRuntime, cfg.Generate.Runtime)
		verboseFlag := resolveBool(verbose > 0, cfg.Doctor.Verbose)

		dsn, err := resolveDSN(doctorDB)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runDoctor(ctx, cmd, dsn, doctor.Options{QueriesPath: path, Runtime: runtime}, verboseFlag)
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "database URL")
	f.StringVar(&doctorQueries, "queries", "", "annotation file or directory")
	f.StringVar(&doctorRuntime, "runtime", "", "code generation runtime to check")
}

func runDoctor(ctx context.Context, cmd *cobra.Command, dsn string, opts doctor.Options, verboseFlag bool) error {
	var db *sql.DB
	if dsn != "" {
		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return cli.DBConnectError("connecting to database", err)
		}
		defer func() { _ = db.Close() }()
	}

	out := cmd.OutOrStdout()
	if !quiet {
		fmt.Fprintln(out, "hugsql doctor - Health Check")
	}

	report, err := doctor.New(db, opts).Run(ctx)
	if err != nil {
		return cli.GeneralError("running doctor", err)
	}

	report.Print(out, verboseFlag)

	if report.HasErrors() {
		return cli.GeneralError("health checks failed", nil)
	}

	return nil
}
