// Command validator is the storage-triggered function. Each upload event is
// validated and, when clean, promoted to the validated bucket.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/JonMunkholm/ticketcast/internal/app"
	"github.com/JonMunkholm/ticketcast/internal/config"
	"github.com/JonMunkholm/ticketcast/internal/logging"
	"github.com/JonMunkholm/ticketcast/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Function logs go to CloudWatch; keep them machine readable.
	flush := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: "json",
		SeqURL: cfg.Logging.SeqURL,
	})

	// Backends are opened once per container and reused across invocations.
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		flush()
		os.Exit(1)
	}

	lambda.StartWithOptions(handler(a.Pipeline),
		lambda.WithEnableSIGTERM(func() {
			a.Close()
			flush()
		}),
	)
}

// handler adapts the pipeline to the function runtime. Every outcome,
// failures included, is returned as a Result rather than an invocation
// error so the caller always receives a status code and body.
func handler(p *pipeline.Orchestrator) func(context.Context, pipeline.Event) (pipeline.Result, error) {
	return func(ctx context.Context, ev pipeline.Event) (pipeline.Result, error) {
		return p.Handle(ctx, ev).Result, nil
	}
}
