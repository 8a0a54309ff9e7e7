package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/pthm/hugsql/internal/cli"
	"github.com/pthm/hugsql/pkg/codegen"
	"github.com/pthm/hugsql/pkg/query"
	"github.com/pthm/hugsql/pkg/verifier"
)

var (
	initOutput   string
	initForce    bool
	initDefaults bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a hugsql.yaml",
	Long:  `Interactively create a hugsql.yaml configuration file in the current directory.`,
	Example: `  # Answer a few questions and write hugsql.yaml
  hugsql init

  # Write the defaults without prompting
  hugsql init --defaults`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveString(initOutput, cfgFile, cli.ConfigFileNames[0])

		if _, err := os.Stat(path); err == nil && !initForce {
			return cli.ConfigError(fmt.Sprintf("%s already exists", path), errors.New("use --force to overwrite"))
		}

		c := cli.DefaultConfig()
		if !initDefaults {
			if err := initForm(c).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return cli.GeneralError("init aborted", nil)
				}
				return cli.GeneralError("running init form", err)
			}
		}

		data, err := c.YAML()
		if err != nil {
			return cli.GeneralError("encoding configuration", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return cli.GeneralError(fmt.Sprintf("writing %s", path), err)
		}

		logf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	f := initCmd.Flags()
	f.StringVar(&initOutput, "output", "", "file to write (default: hugsql.yaml)")
	f.BoolVar(&initForce, "force", false, "overwrite an existing file")
	f.BoolVar(&initDefaults, "defaults", false, "write the defaults without prompting")
}

func initForm(c *cli.Config) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Queries").
				Description("Annotation file or directory of .sql files").
				Value(&c.Queries).
				Validate(notEmpty("queries")),
			huh.NewInput().
				Title("Database URL").
				Description("Used by verify and doctor; leave empty to use DATABASE_URL").
				Value(&c.Database.URL),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Runtime").
				Options(huh.NewOptions(codegen.ListRuntimes()...)...).
				Value(&c.Generate.Runtime),
			huh.NewInput().
				Title("Output directory").
				Description("Leave empty to print generated code").
				Value(&c.Generate.Output),
			huh.NewInput().
				Title("Package").
				Value(&c.Generate.Package).
				Validate(identifier("package")),
			huh.NewInput().
				Title("Type").
				Description("Struct that carries the query methods").
				Value(&c.Generate.Type).
				Validate(identifier("type")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Verify driver").
				Options(huh.NewOptions(verifier.Drivers...)...).
				Value(&c.Verify.Driver),
		),
	)
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func identifier(field string) func(string) error {
	return func(s string) error {
		if !query.IsIdentifier(s) {
			return fmt.Errorf("%s must be a Go identifier", field)
		}
		return nil
	}
}
