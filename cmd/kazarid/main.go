package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kazari/kazarid/internal/config"
	"github.com/kazari/kazarid/internal/logging"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfgPath   string
	dbPath    string
	verbosity int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the CLI. Every subcommand loads configuration the
// same way: defaults, then the YAML file, then environment overrides.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kazarid",
		Short:         "Pomodoro timer daemon for the Kazari desktop app",
		Long:          "kazarid hosts the shared pomodoro timer: consumer windows drive it over a local HTTP API and follow it on an event stream.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Accept underscore spellings of flag names, matching the env vars.
	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	cmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultConfigPath(), "Path to config file")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database file")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.SetVerbosity(verbosity)
	}

	cmd.AddCommand(
		newServeCmd(),
		newStartCmd(),
		newStopCmd(),
		newStatusCmd(),
		newReportCmd(),
		newConfigCmd(),
		newClearCmd(),
		newVersionCmd(),
	)

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	config.LoadFromEnv(cfg)
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kazarid version %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
