// Package history records the outcome of every validation run so the
// admin dashboard can show what was accepted, rejected, or failed.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded pipeline outcome.
type Run struct {
	ID          uuid.UUID `json:"id"`
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	Owner       string    `json:"owner"`
	Kind        string    `json:"kind"`
	Code        string    `json:"code,omitempty"`
	StatusCode  int       `json:"status_code"`
	Message     string    `json:"message"`
	Destination string    `json:"destination,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Owner string
	Kind  string
	Limit int
}

// DefaultLimit applies when Filter.Limit is not positive.
const DefaultLimit = 50

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// Recorder persists runs.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// Lister reads back recorded runs, newest first.
type Lister interface {
	List(ctx context.Context, f Filter) ([]Run, error)
}

// Store is both ends of the history.
type Store interface {
	Recorder
	Lister
}

// Nop discards runs. Used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Run) error {
	return nil
}

func (Nop) List(context.Context, Filter) ([]Run, error) {
	return nil, nil
}

// Memory keeps runs in process.
type Memory struct {
	mu   sync.Mutex
	runs []Run
}

func (m *Memory) Record(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) List(_ context.Context, f Filter) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		if f.Owner != "" && r.Owner != f.Owner {
			continue
		}
		if f.Kind != "" && r.Kind != f.Kind {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > f.limit() {
		out = out[:f.limit()]
	}
	return out, nil
}
