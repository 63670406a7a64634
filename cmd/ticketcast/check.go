package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ticketcast/internal/app"
	"github.com/JonMunkholm/ticketcast/internal/config"
	"github.com/JonMunkholm/ticketcast/internal/pipeline"
	"github.com/JonMunkholm/ticketcast/internal/storage"
)

// localOwner is the owner folder local files are checked under.
const localOwner = "local"

// errNotPromoted makes the command exit non-zero after printing the result.
var errNotPromoted = errors.New("file was not promoted")

// runOutput is printed for every check and replay.
type runOutput struct {
	RunID      string        `json:"run_id"`
	Kind       pipeline.Kind `json:"kind"`
	Code       string        `json:"code,omitempty"`
	StatusCode int           `json:"statusCode"`
	Body       string        `json:"body"`
	Action     string        `json:"action,omitempty"`
	Written    string        `json:"written,omitempty"`
}

func checkCmd(opts *rootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a local .csv or .xlsx file",
		Long: `check runs a local file through the same validation the storage
trigger applies, without touching any bucket. With --out the normalized copy
is written to disk when the file passes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, flush, err := opts.loadConfig()
			if err != nil {
				return err
			}
			defer flush()

			out, written, err := runCheck(cmd.Context(), cfg, args[0], outPath)
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), out, written)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the promoted file here")
	return cmd
}

// runCheck validates the file at path against an in-memory store seeded with
// it. When the file is promoted and outPath is set the promoted copy is
// written there and outPath is returned.
func runCheck(ctx context.Context, cfg *config.Config, path, outPath string) (pipeline.Outcome, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Outcome{}, "", fmt.Errorf("read %s: %w", path, err)
	}

	mem := storage.NewMemory()
	a, err := app.New(ctx, cfg, app.WithStore(mem), app.WithoutBackends())
	if err != nil {
		return pipeline.Outcome{}, "", err
	}
	defer a.Close()

	key := localOwner + "/" + filepath.Base(path)
	mem.Seed(cfg.Storage.SourceBucket, key, data)

	out := a.Pipeline.Handle(ctx, pipeline.EventFor(cfg.Storage.SourceBucket, key))

	p, ok := out.Report.(*pipeline.Promoted)
	if !ok || outPath == "" {
		return out, "", nil
	}
	body, _, found := mem.Object(p.Destination.Bucket, p.Destination.Key)
	if !found {
		return out, "", fmt.Errorf("promoted copy missing at %s", p.Destination)
	}
	if err := os.WriteFile(outPath, body, 0o644); err != nil {
		return out, "", fmt.Errorf("write %s: %w", outPath, err)
	}
	return out, outPath, nil
}

// printOutcome writes out as indented JSON. Anything but a successful run
// returns errNotPromoted with the support message attached.
func printOutcome(w io.Writer, out pipeline.Outcome, written string) error {
	msg := pipeline.MessageFor(out.Report.Kind())
	res := runOutput{
		RunID:      out.RunID.String(),
		Kind:       out.Report.Kind(),
		Code:       msg.Code,
		StatusCode: out.Result.StatusCode,
		Body:       out.Result.Body,
		Action:     msg.Action,
		Written:    written,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if out.Result.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", errNotPromoted, pipeline.FormatUserError(out.Report.Err()))
	}
	return nil
}
