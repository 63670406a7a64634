package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ticketcast/internal/config"
	"github.com/JonMunkholm/ticketcast/internal/history"
	"github.com/JonMunkholm/ticketcast/internal/notify"
	"github.com/JonMunkholm/ticketcast/internal/pipeline"
	"github.com/JonMunkholm/ticketcast/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SOURCE_BUCKET", "uploads")
	t.Setenv("VALIDATED_BUCKET", "validated")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	t.Setenv("NATS_URL", "")
	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	return cfg
}

func TestNew_DisabledBackends(t *testing.T) {
	store := storage.NewMemory()
	a, err := New(context.Background(), testConfig(t), WithStore(store))
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, history.Nop{}, a.Runs)
	assert.IsType(t, notify.Nop{}, a.Notifier)
	assert.Same(t, store, a.Store)

	store.Seed("uploads", "alice/q1.csv", []byte("ticketId,createdDate\n1,2023/04/03\n"))
	out := a.Pipeline.Handle(context.Background(), pipeline.EventFor("uploads", "alice/q1.csv"))
	assert.Equal(t, pipeline.KindPromoted, out.Report.Kind())

	mfs, err := a.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["ticketcast_validation_runs_total"])
	assert.True(t, names["go_goroutines"])
}

func TestNew_ReportsUseConfiguredLimits(t *testing.T) {
	cfg := testConfig(t)
	cfg.Validation.MaxConcurrentUploads = 3
	cfg.Validation.UploadWait = time.Second

	a, err := New(context.Background(), cfg, WithStore(storage.NewMemory()), WithoutBackends())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 3, a.Reports.Limiter().Status().MaxConcurrent)
}

func TestServer(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), WithStore(storage.NewMemory()))
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNew_BadDatabaseURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.URL = "://not a url"

	_, err := New(context.Background(), cfg, WithStore(storage.NewMemory()))
	assert.Error(t, err)
}

type closeCounter struct {
	name  string
	order *[]string
}

func (c closeCounter) Close() { *c.order = append(*c.order, c.name) }

func TestClose_ReverseOrderOnce(t *testing.T) {
	var order []string
	a := &App{}
	a.onClose(closeCounter{"history", &order})
	a.onClose(closeCounter{"notify", &order})
	a.onClose(history.Nop{})

	a.Close()
	a.Close()

	assert.Equal(t, []string{"notify", "history"}, order)
}
