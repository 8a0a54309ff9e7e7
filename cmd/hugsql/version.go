package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm/hugsql/internal/update"
	"github.com/pthm/hugsql/internal/version"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Example: `  # Print version
  hugsql version

  # Also check GitHub for a newer release
  hugsql version --check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, version.Info())

		if !versionCheck {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		info, err := update.CheckWithCache(ctx)
		if err != nil {
			// Update checks are best effort
			fmt.Fprintf(out, "Could not check for updates: %v\n", err)
			return nil
		}
		if info.UpdateAvailable {
			fmt.Fprintf(out, "A newer version is available: %s (current %s)\n", info.LatestVersion, info.CurrentVersion)
			if info.ReleaseURL != "" {
				fmt.Fprintf(out, "  %s\n", info.ReleaseURL)
			}
		} else {
			fmt.Fprintln(out, "You are running the latest version.")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}
