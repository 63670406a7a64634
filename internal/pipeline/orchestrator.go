// Package pipeline validates uploaded spreadsheets and promotes the clean
// ones to the validated bucket.
//
// A run is driven by one storage event and moves through a fixed sequence
// of states:
//
//	Fetching -> Decoding -> Normalizing -> Validating -> {Promoting | Rejected} -> Done
//
// Every outcome is a Report. Expected problems (bad events, foreign buckets,
// unsupported or unreadable files, validation failures) are 400s; anything
// else, including a panic, is a 500 Failed report. Runs are never retried
// here; the trigger infrastructure owns retry policy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ticketcast/internal/history"
	"github.com/JonMunkholm/ticketcast/internal/logging"
	"github.com/JonMunkholm/ticketcast/internal/notify"
	"github.com/JonMunkholm/ticketcast/internal/storage"
	"github.com/JonMunkholm/ticketcast/internal/table"
	"github.com/JonMunkholm/ticketcast/internal/validation"
)

// Config is fixed per deployment.
type Config struct {
	// SourceBucket is the only bucket whose events are processed.
	SourceBucket string

	// ValidatedBucket receives promoted copies at {owner}/{filename}.
	ValidatedBucket string

	// DateColumns are normalized to DD-MM-YYYY and format-checked.
	DateColumns []string
}

// Orchestrator runs the validation pipeline. It holds only configuration
// and injected capabilities and is safe for concurrent use.
type Orchestrator struct {
	store    storage.Store
	cfg      Config
	history  history.Recorder
	notifier notify.Notifier
	metrics  *Metrics
	now      func() time.Time

	// normalize is validation.NormalizeDates outside of tests.
	normalize func(*table.Table, []string) *table.Table
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHistory records every outcome.
func WithHistory(r history.Recorder) Option {
	return func(o *Orchestrator) { o.history = r }
}

// WithNotifier announces every promotion.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithMetrics counts and times runs.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator reading and writing through store.
func New(store storage.Store, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		cfg:       cfg,
		history:   history.Nop{},
		notifier:  notify.Nop{},
		now:       time.Now,
		normalize: validation.NormalizeDates,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Outcome is a finished run.
type Outcome struct {
	RunID  uuid.UUID
	Report Report
	Result Result
}

// Handle runs the pipeline for one event.
func (o *Orchestrator) Handle(ctx context.Context, ev Event) Outcome {
	start := o.now()
	runID := uuid.New()
	logger := logging.WithFields(ctx, "run_id", runID.String())

	rep := o.run(ctx, ev, logger)
	src := sourceOf(rep)

	logger.Info("validation state", "state", StateDone, "bucket", src.Bucket, "key", src.Key)
	msg := MessageFor(rep.Kind())
	if f, ok := rep.(*Failed); ok {
		logger.Error("validation failed unexpectedly",
			"status", rep.StatusCode(), "kind", rep.Kind(), "code", msg.Code,
			"stage", f.Stage, "error", f.Cause)
	} else {
		logger.Info("validation finished",
			"status", rep.StatusCode(), "kind", rep.Kind(), "code", msg.Code)
	}

	o.metrics.observe(rep, o.now().Sub(start))
	o.record(ctx, runID, rep, msg.Code, logger)
	if p, ok := rep.(*Promoted); ok {
		o.announce(ctx, runID, p, logger)
	}

	return Outcome{RunID: runID, Report: rep, Result: ResultOf(rep)}
}

// HandleJSON parses a raw notification and runs it. Malformed JSON is an
// invalid event.
func (o *Orchestrator) HandleJSON(ctx context.Context, raw []byte) Outcome {
	ev, err := ParseEvent(raw)
	if err != nil {
		logging.FromContext(ctx).Warn("unparsable event", "error", err)
	}
	return o.Handle(ctx, ev)
}

// run executes the state machine and returns its report. It never panics;
// a panic in any stage becomes a Failed report.
func (o *Orchestrator) run(ctx context.Context, ev Event, logger *slog.Logger) (rep Report) {
	var (
		state State
		src   ObjectRef
	)
	enter := func(s State) {
		state = s
		logger.Info("validation state", "state", s, "bucket", src.Bucket, "key", src.Key)
	}
	reject := func(r Report) Report {
		enter(StateRejected)
		return r
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during validation",
				"state", state, "panic", r, "stack", string(debug.Stack()))
			rep = &Failed{Source: src, Stage: state, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	enter(StateFetching)
	src, err := firstObject(ev)
	if err != nil {
		var ee *eventError
		detail := errNoRecords.msg
		if errors.As(err, &ee) {
			detail = ee.msg
		}
		return reject(&Rejected{Reason: KindInvalidEvent, Detail: detail, Cause: err})
	}
	if src.Bucket != o.cfg.SourceBucket {
		return reject(&Rejected{
			Reason: KindWrongSource,
			Source: src,
			Detail: "Incorrect bucket: " + src.Bucket,
		})
	}
	format, err := table.FormatFromKey(src.Key)
	if err != nil {
		return reject(&Rejected{
			Reason: KindUnsupportedFormat,
			Source: src,
			Detail: "Unsupported file format: " + src.Key,
			Cause:  err,
		})
	}

	data, err := o.store.Get(ctx, src.Bucket, src.Key)
	if err != nil {
		return &Failed{Source: src, Stage: state, Cause: err}
	}

	enter(StateDecoding)
	t, err := table.Decode(data, format)
	if err != nil {
		return reject(&Rejected{
			Reason: KindDecodeError,
			Source: src,
			Detail: fmt.Sprintf("Could not read file %s: %v", src.Key, err),
			Cause:  err,
		})
	}

	enter(StateNormalizing)
	t = o.normalize(t, o.cfg.DateColumns)

	enter(StateValidating)
	nulls := validation.CheckNulls(t)
	invalid := validation.CheckFormat(t, o.cfg.DateColumns)
	if len(nulls) > 0 {
		if len(invalid) > 0 {
			logger.Debug("date format problems suppressed by null values", "columns", len(invalid))
		}
		return reject(&NullViolation{
			Source:           src,
			Columns:          nulls,
			Rows:             validation.NullRows(t),
			SuppressedFormat: invalid,
		})
	}
	if len(invalid) > 0 {
		return reject(&FormatViolation{Source: src, Invalid: invalid})
	}

	enter(StatePromoting)
	body, err := table.Encode(t, format)
	if err != nil {
		return &Failed{Source: src, Stage: state, Cause: err}
	}
	dst := ObjectRef{Bucket: o.cfg.ValidatedBucket, Key: src.PromotedKey()}
	if err := o.store.Put(ctx, dst.Bucket, dst.Key, body, format.ContentType()); err != nil {
		return &Failed{Source: src, Stage: state, Cause: err}
	}
	logger.Info("file promoted", "destination", dst.String(), "rows", t.NumRows())

	return &Promoted{Source: src, Destination: dst, Rows: t.NumRows()}
}

// record stores the outcome. Failures are logged and never change the result.
func (o *Orchestrator) record(ctx context.Context, runID uuid.UUID, rep Report, code string, logger *slog.Logger) {
	src := sourceOf(rep)
	run := history.Run{
		ID:         runID,
		Bucket:     src.Bucket,
		Key:        src.Key,
		Owner:      src.Owner(),
		Kind:       string(rep.Kind()),
		Code:       code,
		StatusCode: rep.StatusCode(),
		Message:    rep.Message(),
		CreatedAt:  o.now().UTC(),
	}
	if p, ok := rep.(*Promoted); ok {
		run.Destination = p.Destination.String()
	}
	if err := o.history.Record(ctx, run); err != nil {
		logger.Warn("failed to record validation run", "error", err)
	}
}

// announce publishes a promotion. The file is already written, so a
// failure here is only logged.
func (o *Orchestrator) announce(ctx context.Context, runID uuid.UUID, p *Promoted, logger *slog.Logger) {
	err := o.notifier.Notify(ctx, notify.Message{
		RunID:       runID.String(),
		Owner:       p.Source.Owner(),
		Bucket:      p.Destination.Bucket,
		Key:         p.Source.Key,
		Destination: p.Destination.Key,
		Rows:        p.Rows,
		PromotedAt:  o.now().UTC(),
	})
	if err != nil {
		logger.Warn("failed to publish promotion", "error", err)
	}
}

// sourceOf returns the object a report is about, if any.
func sourceOf(r Report) ObjectRef {
	switch r := r.(type) {
	case *Promoted:
		return r.Source
	case *NullViolation:
		return r.Source
	case *FormatViolation:
		return r.Source
	case *Rejected:
		return r.Source
	case *Failed:
		return r.Source
	}
	return ObjectRef{}
}
