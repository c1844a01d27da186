package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"sctnet/internal/config"
	"sctnet/internal/logging"
	"sctnet/pkg/sctnet"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sctnctl",
		Short: "Train and inspect SCTN spiking resonators",
		Long: `sctnctl trains spiking resonator networks to respond to a target
frequency, stores the resulting parameters, and replays them against
sine waves and chirps.

Configuration is read from ~/.sctnet/config.yaml unless --config is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.sctnet/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory or sqlite")
	rootCmd.PersistentFlags().String("db-path", "", "SQLite database path")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newTrainCmd(),
		newSimulateCmd(),
		newChirpCmd(),
		newResonatorsCmd(),
		newRunsCmd(),
		newExportCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file named by --config and applies the
// persistent flag overrides on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if kind, _ := cmd.Flags().GetString("store"); kind != "" {
		cfg.Storage.Kind = kind
	}
	if dbPath, _ := cmd.Flags().GetString("db-path"); dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	return cfg, nil
}

func openClient(cmd *cobra.Command) (*sctnet.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return sctnet.New(commandContext(cmd), sctnet.Options{
		Config: cfg,
		Logger: logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func jsonOutput(cmd *cobra.Command) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
