// Package logging provides structured logging configuration using log/slog.
//
// Loggers obtained through FromContext carry the request ID of whatever
// invoked the code: chi's RequestID on the HTTP surface, or the function
// request ID when running behind the storage trigger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-chi/chi/v5/middleware"
	slogseq "github.com/sokkalf/slog-seq"
)

// Options selects the log handlers installed by Setup.
type Options struct {
	// Level values: "debug", "info", "warn", "error" (default: "info")
	Level string

	// Format values: "text", "json" (default: "text")
	Format string

	// SeqURL, when set, also ships every record to a Seq server.
	SeqURL string

	// Output receives console records (default: os.Stdout)
	Output io.Writer
}

// Setup configures the global slog logger and returns a function that
// flushes any buffered sinks. The returned function is always non-nil.
//
// Use "json" format in production for machine parsing (CloudWatch, etc.)
// Use "text" format in development for human readability.
func Setup(opts Options) func() {
	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var console slog.Handler
	if strings.ToLower(opts.Format) == "json" {
		console = slog.NewJSONHandler(out, handlerOpts)
	} else {
		console = slog.NewTextHandler(out, handlerOpts)
	}

	if opts.SeqURL == "" {
		slog.SetDefault(slog.New(console))
		return func() {}
	}

	_, seqHandler := slogseq.NewLogger(
		opts.SeqURL,
		slogseq.WithBatchSize(50),
		slogseq.WithFlushInterval(2*time.Second),
		slogseq.WithHandlerOptions(handlerOpts),
	)
	if seqHandler == nil {
		slog.SetDefault(slog.New(console))
		return func() {}
	}

	slog.SetDefault(slog.New(&multiHandler{
		handlers: []slog.Handler{console, seqHandler},
	}))
	return func() { seqHandler.Close() }
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns a logger enriched with request context.
//
// Usage:
//
//	func handleRequest(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("listing reports", "owner", owner)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		return logger.With("request_id", reqID)
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return logger.With("request_id", lc.AwsRequestID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	runLogger := logging.WithFields(ctx,
//	    "run_id", runID,
//	    "key", key,
//	)
//	runLogger.Info("run started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
