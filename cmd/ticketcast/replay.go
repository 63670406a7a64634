package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ticketcast/internal/app"
)

func replayCmd(opts *rootOptions) *cobra.Command {
	var noBackends bool

	cmd := &cobra.Command{
		Use:   "replay <event.json>",
		Short: "Run a stored trigger event against the configured buckets",
		Long: `replay feeds a storage notification (as delivered to the function)
through the pipeline against real storage. Use "-" to read the event from
stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readEvent(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			cfg, flush, err := opts.loadConfig()
			if err != nil {
				return err
			}
			defer flush()

			var appOpts []app.Option
			if noBackends {
				appOpts = append(appOpts, app.WithoutBackends())
			}
			a, err := app.New(cmd.Context(), cfg, appOpts...)
			if err != nil {
				return err
			}
			defer a.Close()

			return printOutcome(cmd.OutOrStdout(), a.Pipeline.HandleJSON(cmd.Context(), raw), "")
		},
	}

	cmd.Flags().BoolVar(&noBackends, "no-backends", false, "Skip run history and notifications")
	return cmd
}

func readEvent(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read event: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	return raw, nil
}
