// Package app assembles the pipeline, the dashboard services and their
// backends from configuration. The Lambda function, the API server and the
// CLI all start from New.
package app

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/ticketcast/internal/config"
	"github.com/JonMunkholm/ticketcast/internal/history"
	"github.com/JonMunkholm/ticketcast/internal/notify"
	"github.com/JonMunkholm/ticketcast/internal/pipeline"
	"github.com/JonMunkholm/ticketcast/internal/reports"
	"github.com/JonMunkholm/ticketcast/internal/storage"
	"github.com/JonMunkholm/ticketcast/internal/web"
)

// App holds the wired components. Close releases the backends.
type App struct {
	Config   *config.Config
	Store    storage.Store
	Runs     history.Store
	Notifier notify.Notifier
	Registry *prometheus.Registry
	Pipeline *pipeline.Orchestrator
	Reports  *reports.Service

	closers []func()
}

// Option overrides a backend New would otherwise build from config.
type Option func(*App)

// WithStore uses s instead of connecting to S3.
func WithStore(s storage.Store) Option {
	return func(a *App) { a.Store = s }
}

// WithoutBackends skips run history and notifications regardless of config.
func WithoutBackends() Option {
	return func(a *App) {
		a.Runs = history.Nop{}
		a.Notifier = notify.Nop{}
	}
}

// New connects the configured backends and builds the services.
// Run history and notifications are optional: they stay disabled when
// their URL is empty.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.Store == nil {
		s3, err := storage.NewS3(ctx, storage.S3Options{
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			PathStyle: cfg.Storage.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		a.Store = s3
		slog.Info("object storage ready", "region", cfg.Storage.Region, "endpoint", cfg.Storage.Endpoint)
	}

	if a.Runs == nil {
		runs, err := openHistory(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.Runs = runs
		a.onClose(runs)
	}

	if a.Notifier == nil {
		n, err := openNotifier(cfg.Notify)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Notifier = n
		a.onClose(n)
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.Pipeline = pipeline.New(a.Store, pipeline.Config{
		SourceBucket:    cfg.Storage.SourceBucket,
		ValidatedBucket: cfg.Storage.ValidatedBucket,
		DateColumns:     cfg.Validation.DateColumns,
	},
		pipeline.WithHistory(a.Runs),
		pipeline.WithNotifier(a.Notifier),
		pipeline.WithMetrics(pipeline.NewMetrics(a.Registry)),
	)

	a.Reports = reports.NewService(a.Store, reports.Buckets{
		Source: cfg.Storage.SourceBucket,
		Report: cfg.Storage.ReportBucket,
		Final:  cfg.Storage.FinalBucket,
		Logs:   cfg.Storage.LogsBucket,
	}, reports.WithLimiter(reports.NewLimiter(cfg.Validation.MaxConcurrentUploads, cfg.Validation.UploadWait)))

	return a, nil
}

// Server builds the dashboard API server.
func (a *App) Server() *web.Server {
	return web.NewServer(a.Config, web.Deps{
		Pipeline: a.Pipeline,
		Reports:  a.Reports,
		Runs:     a.Runs,
		Gatherer: a.Registry,
	})
}

// onClose registers v's Close method, if it has one.
func (a *App) onClose(v any) {
	if c, ok := v.(interface{ Close() }); ok {
		a.closers = append(a.closers, c.Close)
	}
}

// Close releases backends in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func openHistory(ctx context.Context, cfg config.DatabaseConfig) (history.Store, error) {
	if cfg.URL == "" {
		slog.Info("run history disabled", "reason", "DATABASE_URL not set")
		return history.Nop{}, nil
	}

	pg, err := history.Connect(ctx, history.PoolConfig{
		URL:             cfg.URL,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
	})
	if err != nil {
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pg, nil
}

func openNotifier(cfg config.NotifyConfig) (notify.Notifier, error) {
	if cfg.URL == "" {
		slog.Info("promotion notifications disabled", "reason", "NATS_URL not set")
		return notify.Nop{}, nil
	}
	n, err := notify.Dial(cfg.URL, cfg.Subject, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	slog.Info("publishing promotions", "subject", cfg.Subject)
	return n, nil
}
