// Package reports backs the dashboard: users upload spreadsheets and
// download their finished forecast reports; administrators review pending
// reports, send them to their owners, and read processing logs.
//
// Every object is keyed {owner}/{name}. The buckets play fixed roles:
//
//	Source  uploads awaiting validation
//	Report  generated reports awaiting administrator review
//	Final   reports released to their owners
//	Logs    per-owner processing logs
package reports

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/JonMunkholm/ticketcast/internal/logging"
	"github.com/JonMunkholm/ticketcast/internal/storage"
	"github.com/JonMunkholm/ticketcast/internal/table"
)

var (
	// ErrExists is returned when an upload would overwrite an object.
	ErrExists = errors.New("file already exists")

	// ErrEmptyFile is returned for a zero-byte upload.
	ErrEmptyFile = errors.New("empty file")

	// ErrInvalidName rejects owners and names that are not a single path segment.
	ErrInvalidName = errors.New("invalid name")
)

// Buckets names the bucket for each role.
type Buckets struct {
	Source string
	Report string
	Final  string
	Logs   string
}

// Service implements the dashboard operations over a storage.Store.
type Service struct {
	store   storage.Store
	buckets Buckets
	limiter *Limiter
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter bounds concurrent uploads.
func WithLimiter(l *Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// NewService creates a Service. Without WithLimiter uploads use the default limits.
func NewService(store storage.Store, buckets Buckets, opts ...Option) *Service {
	s := &Service{store: store, buckets: buckets}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewLimiter(DefaultMaxConcurrentUploads, DefaultMaxWait)
	}
	return s
}

// Limiter returns the upload limiter, for status reporting and draining.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// Upload stores a user's file in the source bucket at {owner}/{filename},
// where the pipeline picks it up. Existing files are never overwritten.
func (s *Service) Upload(ctx context.Context, owner, filename string, body []byte) (storage.Object, error) {
	key, err := objectKey(owner, filename)
	if err != nil {
		return storage.Object{}, err
	}
	format, err := table.FormatFromKey(filename)
	if err != nil {
		return storage.Object{}, err
	}
	if len(body) == 0 {
		return storage.Object{}, fmt.Errorf("upload %s: %w", key, ErrEmptyFile)
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return storage.Object{}, err
	}
	defer release()

	exists, err := storage.Exists(ctx, s.store, s.buckets.Source, key)
	if err != nil {
		return storage.Object{}, fmt.Errorf("upload %s: %w", key, err)
	}
	if exists {
		return storage.Object{}, fmt.Errorf("upload %s: %w", key, ErrExists)
	}

	if err := s.store.Put(ctx, s.buckets.Source, key, body, format.ContentType()); err != nil {
		return storage.Object{}, fmt.Errorf("upload %s: %w", key, err)
	}

	logging.FromContext(ctx).Info("file uploaded",
		"bucket", s.buckets.Source, "key", key, "bytes", len(body))

	return storage.Object{Key: key, Size: int64(len(body))}, nil
}

// UserReports lists the reports released to owner.
func (s *Service) UserReports(ctx context.Context, owner string) ([]storage.Object, error) {
	if err := checkSegment(owner); err != nil {
		return nil, err
	}
	objs, err := s.store.List(ctx, s.buckets.Final, owner+"/")
	if err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", owner, err)
	}
	return storage.GroupByOwner(objs)[owner], nil
}

// Download returns one of owner's released reports.
func (s *Service) Download(ctx context.Context, owner, name string) ([]byte, error) {
	key, err := objectKey(owner, name)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Get(ctx, s.buckets.Final, key)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return data, nil
}

// PendingReports returns the reports awaiting review, grouped by owner.
func (s *Service) PendingReports(ctx context.Context) (map[string][]storage.Object, error) {
	objs, err := s.store.List(ctx, s.buckets.Report, "")
	if err != nil {
		return nil, fmt.Errorf("list pending reports: %w", err)
	}
	return storage.GroupByOwner(objs), nil
}

// SendResult is the outcome of sending one report.
type SendResult struct {
	Name  string `json:"name"`
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// Send moves owner's named reports from the report bucket to the final
// bucket. With no names, every pending report of owner is sent. Each file is
// attempted independently; the returned error joins the individual failures.
func (s *Service) Send(ctx context.Context, owner string, names []string) ([]SendResult, error) {
	if err := checkSegment(owner); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		pending, err := s.PendingReports(ctx)
		if err != nil {
			return nil, err
		}
		for _, o := range pending[owner] {
			names = append(names, o.Name())
		}
	}

	logger := logging.FromContext(ctx)
	results := make([]SendResult, 0, len(names))
	var errs []error
	for _, name := range names {
		res := SendResult{Name: name}
		if err := s.send(ctx, owner, name); err != nil {
			res.Error = err.Error()
			errs = append(errs, err)
			logger.Warn("report not sent", "owner", owner, "name", name, "error", err)
		} else {
			res.Sent = true
			logger.Info("report sent", "owner", owner, "name", name)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *Service) send(ctx context.Context, owner, name string) error {
	key, err := objectKey(owner, name)
	if err != nil {
		return err
	}
	return storage.Move(ctx, s.store, s.buckets.Report, key, s.buckets.Final, key)
}

// Logs returns the processing logs grouped by owner.
func (s *Service) Logs(ctx context.Context) (map[string][]storage.Object, error) {
	objs, err := s.store.List(ctx, s.buckets.Logs, "")
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return storage.GroupByOwner(objs), nil
}

// ReadLog returns one log file.
func (s *Service) ReadLog(ctx context.Context, owner, name string) ([]byte, error) {
	key, err := objectKey(owner, name)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Get(ctx, s.buckets.Logs, key)
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", key, err)
	}
	return data, nil
}

func objectKey(owner, name string) (string, error) {
	if err := checkSegment(owner); err != nil {
		return "", err
	}
	if err := checkSegment(name); err != nil {
		return "", err
	}
	return owner + "/" + name, nil
}

// checkSegment accepts a single, non-traversing path segment.
func checkSegment(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) || path.Base(s) != s {
		return fmt.Errorf("%w: %q", ErrInvalidName, s)
	}
	return nil
}
