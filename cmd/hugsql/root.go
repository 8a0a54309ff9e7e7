package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/hugsql/internal/cli"
	"github.com/pthm/hugsql/pkg/loader"
	"github.com/pthm/hugsql/pkg/query"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string

	// Persistent flags
	cfgFile string
	verbose int
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "hugsql",
	Short: "SQL annotation files for Go",
	Long: `hugsql - SQL annotation files for Go

hugsql reads plain .sql files whose queries are named and described with
comment annotations, and turns them into typed Go data-access code.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version/init commands
		switch cmd.Name() {
		case "help", "completion", "version", "init":
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupQueries = "queries"
	groupCode    = "code"
	groupUtility = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover hugsql.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupQueries, Title: "Queries:"},
		&cobra.Group{ID: groupCode, Title: "Code:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	for _, c := range []*cobra.Command{validateCmd, inspectCmd, verifyCmd, doctorCmd} {
		c.GroupID = groupQueries
		rootCmd.AddCommand(c)
	}

	generateCmd.GroupID = groupCode
	rootCmd.AddCommand(generateCmd)

	for _, c := range []*cobra.Command{initCmd, configCmd, versionCmd} {
		c.GroupID = groupUtility
		rootCmd.AddCommand(c)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool returns true if any of the provided values is true.
// Used for boolean flags where any true value should win.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}

// resolveDSN picks the connection string: flag > config > DATABASE_URL.
// It returns "" without error when nothing is configured.
func resolveDSN(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Database.Configured() {
		dsn, err := cfg.DSN()
		if err != nil {
			return "", cli.ConfigError("building database DSN", err)
		}
		return dsn, nil
	}
	return os.Getenv("DATABASE_URL"), nil
}

// loadQueries loads the annotation files at path. Parse failures keep the
// set so callers can report them; any other failure is returned as an
// ExitError.
func loadQueries(path string) (*loader.Set, error) {
	if path == "" {
		return nil, cli.ConfigError("--queries is required", nil)
	}
	if !loader.Exists(path) {
		return nil, cli.ParseError(fmt.Sprintf("queries not found: %s", path), nil)
	}

	set, err := loader.Load(path)
	if set == nil {
		return nil, cli.GeneralError("loading queries", err)
	}
	if err != nil {
		return set, cli.ParseError("parsing queries", err)
	}
	return set, nil
}

// loadValidQueries loads path and returns its queries, failing on any parse
// error or duplicate name.
func loadValidQueries(path string) (*loader.Set, []query.Query, error) {
	set, err := loadQueries(path)
	if err != nil {
		return nil, nil, err
	}
	queries, err := set.Queries()
	if err != nil {
		return nil, nil, cli.ParseError("collecting queries", err)
	}
	return set, queries, nil
}

func logf(format string, args ...any) {
	if !quiet {
		fmt.Printf(format, args...)
	}
}

func debugf(format string, args ...any) {
	if verbose > 0 && !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
