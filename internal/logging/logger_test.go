package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	logger := slog.New(h).With("component", "test")

	logger.Debug("quiet")
	logger.Warn("loud")

	if !strings.Contains(a.String(), "quiet") || !strings.Contains(a.String(), "loud") {
		t.Errorf("debug handler output = %q, want both records", a.String())
	}
	if strings.Contains(b.String(), "quiet") {
		t.Errorf("warn handler output = %q, should not contain debug record", b.String())
	}
	if !strings.Contains(b.String(), "component=test") {
		t.Errorf("warn handler output = %q, want attrs propagated", b.String())
	}
}

func TestFromContext_RequestIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	lambdaCtx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "fn-123"})
	FromContext(lambdaCtx).Info("from function")
	if !strings.Contains(buf.String(), "request_id=fn-123") {
		t.Errorf("log output = %q, want function request id", buf.String())
	}

	buf.Reset()
	var httpCtx context.Context
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpCtx = r.Context()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	FromContext(httpCtx).Info("from http")
	if !strings.Contains(buf.String(), "request_id=") {
		t.Errorf("log output = %q, want chi request id", buf.String())
	}

	buf.Reset()
	FromContext(context.Background()).Info("bare")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("log output = %q, want no request id", buf.String())
	}
}

func TestSetup_NoSeqReturnsCloser(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	closeFn := Setup(Options{Level: "debug", Format: "json"})
	if closeFn == nil {
		t.Fatal("Setup() returned nil close func")
	}
	closeFn()
}
