package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sctnet/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sctnctl configuration",
		Long: `View and initialize sctnctl configuration.

Configuration is stored in ~/.sctnet/config.yaml. Environment variables
prefixed with SCTNET_ override file values.

Examples:
  sctnctl config show
  sctnctl config init --force`,
	}
	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
	)
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultPath()
			}
			if path == "" {
				return fmt.Errorf("cannot determine config path; pass --config")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}
			if err := config.Default().Save(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"path": path})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}
