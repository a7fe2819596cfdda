// Package cmd holds auxiliary CLI subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/driftlabs/tunneld/internal/frps"
)

// CreateRenderConfigCmd builds the render-config command. It reads a
// structured server config, applies defaults for unset keys, and prints
// the rendered TOML, so operators can inspect exactly what a process
// would be started with.
func CreateRenderConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render-config [file]",
		Short: "Render a structured server config to TOML",
		Long: `Reads a structured tunnel server configuration (TOML), merges it over
the defaults, and prints the rendered configuration that would be
materialized for a new process. With no file argument, renders the
defaults.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := frps.DefaultConfig()
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read config: %w", err)
				}
				if err := toml.Unmarshal(data, cfg); err != nil {
					return fmt.Errorf("failed to parse config: %w", err)
				}
			}

			rendered, err := frps.Render(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	return cmd
}
