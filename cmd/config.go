package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/nicholasgasior/ssopipe/internal/cli"
	"github.com/nicholasgasior/ssopipe/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Display current configuration",
		Long:  "Display all ssopipe configuration values. Uses ~/.config/ssopipe/config.toml.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := config.DefaultConfigDir()
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}

			cliCtx := cli.FromCommand(cmd)
			if cliCtx != nil && cliCtx.JSON {
				return printConfigJSON(cmd, cfg)
			}

			return printConfigHuman(cmd, cfg)
		},
	}

	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func printConfigJSON(cmd *cobra.Command, cfg *config.Config) error {
	data := map[string]any{
		"region":             cfg.Region,
		"ps_folder":          cfg.PSFolder,
		"assignments_folder": cfg.AssignmentsFolder,
		"concurrency":        cfg.Concurrency,
		"log_dir":            cfg.LogDir,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printConfigHuman(cmd *cobra.Command, cfg *config.Config) error {
	w := cmd.OutOrStdout()

	region := cfg.Region
	if region == "" {
		region = "(not set)"
	}

	_, err := fmt.Fprintf(w,
		"region             %s\n"+
			"ps_folder          %s\n"+
			"assignments_folder %s\n"+
			"concurrency        %d\n"+
			"log_dir            %s\n",
		region,
		cfg.PSFolder,
		cfg.AssignmentsFolder,
		cfg.Concurrency,
		cfg.LogDir,
	)
	return err
}
