package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/hugsql/internal/cli"
	"github.com/pthm/hugsql/internal/version"
	"github.com/pthm/hugsql/pkg/codegen"
)

var (
	genRuntime string
	genQueries string
	genOutput  string
	genPackage string
	genType    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate Go code from queries",
	Long: `Generate typed Go data-access code from annotated queries.

Supported runtimes: ` + strings.Join(codegen.ListRuntimes(), ", "),
	Example: `  # Generate database/sql code into a directory
  hugsql generate --runtime go --queries db/queries --output internal/queries/

  # Generate pgx code with a custom package and receiver type
  hugsql generate --runtime pgx --output internal/store --package store --type Store

  # Output to stdout
  hugsql generate --queries db/queries`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Resolve values: flags > config > defaults
		runtime := resolveString(genRuntime, cfg.Generate.Runtime)
		path := resolveString(genQueries, cfg.ResolvedQueries(cfg.Generate.Queries))
		output := resolveString(genOutput, cfg.Generate.Output)
		pkg := resolveString(genPackage, cfg.Generate.Package)
		typ := resolveString(genType, cfg.Generate.Type)

		if runtime == "" {
			return cli.ConfigError("--runtime is required", nil)
		}
		if !codegen.Registered(runtime) {
			return cli.ConfigError(
				fmt.Sprintf("unknown runtime %q", runtime),
				fmt.Errorf("supported runtimes: %s", strings.Join(codegen.ListRuntimes(), ", ")),
			)
		}

		set, queries, err := loadValidQueries(path)
		if err != nil {
			return err
		}
		debugf("loaded %d queries from %d files\n", len(queries), len(set.Files))

		files, err := codegen.Generate(runtime, queries, &codegen.Config{
			Package:    pkg,
			Type:       typ,
			Version:    version.Generator(),
			SourcePath: filepath.ToSlash(path),
			Checksum:   set.Checksum(),
		})
		if err != nil {
			return cli.GeneralError("generation failed", err)
		}

		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)

		if output == "" {
			if len(files) > 1 {
				return cli.ConfigError("--output is required for multi-file generation", nil)
			}
			for _, name := range names {
				if _, err := cmd.OutOrStdout().Write(files[name]); err != nil {
					return cli.GeneralError("writing to stdout", err)
				}
			}
			return nil
		}

		if err := os.MkdirAll(output, 0o755); err != nil {
			return cli.GeneralError("creating output directory", err)
		}
		for _, name := range names {
			outPath := filepath.Join(output, name)
			if err := os.WriteFile(outPath, files[name], 0o644); err != nil {
				return cli.GeneralError(fmt.Sprintf("writing %s", outPath), err)
			}
			logf("Generated %s (%d queries)\n", outPath, len(queries))
		}

		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genRuntime, "runtime", "", "target runtime: "+strings.Join(codegen.ListRuntimes(), ", "))
	f.StringVar(&genQueries, "queries", "", "annotation file or directory")
	f.StringVar(&genOutput, "output", "", "output directory (default: stdout)")
	f.StringVar(&genPackage, "package", "", "Go package name (default: queries)")
	f.StringVar(&genType, "type", "", "receiver type name (default: Queries)")
}
