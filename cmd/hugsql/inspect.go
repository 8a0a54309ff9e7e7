package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/hugsql/internal/cli"
	"github.com/pthm/hugsql/pkg/condblock"
	"github.com/pthm/hugsql/pkg/query"
)

var (
	inspectQueries string
	inspectFormat  string
	inspectBlocks  bool
)

// inspectedQuery is the inspect view of one query.
type inspectedQuery struct {
	query.Query
	Blocks []condblock.Block `json:"blocks,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show parsed queries",
	Long:  `Parse the annotation files and print the resulting queries as YAML or JSON.`,
	Example: `  # Dump every query as YAML
  hugsql inspect

  # Include conditional blocks, as JSON
  hugsql inspect --blocks --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveString(inspectQueries, cfg.Queries)

		if inspectFormat != "yaml" && inspectFormat != "json" {
			return cli.ConfigError(fmt.Sprintf("unknown format %q", inspectFormat), fmt.Errorf("supported formats: yaml, json"))
		}

		_, queries, err := loadValidQueries(path)
		if err != nil {
			return err
		}

		view := make([]inspectedQuery, len(queries))
		for i, q := range queries {
			view[i] = inspectedQuery{Query: q}
			if inspectBlocks {
				view[i].Blocks = q.Blocks()
			}
		}

		var out []byte
		if inspectFormat == "json" {
			out, err = json.MarshalIndent(view, "", "  ")
			out = append(out, '\n')
		} else {
			out, err = yaml.Marshal(view)
		}
		if err != nil {
			return cli.GeneralError("encoding queries", err)
		}

		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectQueries, "queries", "", "annotation file or directory")
	f.StringVar(&inspectFormat, "format", "yaml", "output format: yaml, json")
	f.BoolVar(&inspectBlocks, "blocks", false, "include conditional blocks")
}
