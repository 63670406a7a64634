// Command ticketcast validates forecast uploads from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ticketcast/internal/config"
	"github.com/JonMunkholm/ticketcast/internal/logging"
)

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "ticketcast"

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

// loadConfig reads --config when given, otherwise TICKETCAST_CONFIG and the
// environment, and installs the logger.
func (o *rootOptions) loadConfig() (*config.Config, func(), error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	// stdout carries results.
	flush := logging.Setup(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		SeqURL: cfg.Logging.SeqURL,
		Output: os.Stderr,
	})
	return cfg, flush, nil
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Forecast upload validation",
		Long: `ticketcast validates ticket forecast uploads: every column must be
complete and date columns must read DD-MM-YYYY before a file is promoted.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(checkCmd(opts), replayCmd(opts))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}
