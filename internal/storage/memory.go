package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Op names a Store method, for call counting and fault injection.
type Op string

const (
	OpGet    Op = "get"
	OpPut    Op = "put"
	OpList   Op = "list"
	OpDelete Op = "delete"
)

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Memory is an in-process Store. It counts every call so tests can assert
// that a code path never touched storage, and can be told to fail an op.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]map[string]memObject
	calls   map[Op]int
	faults  map[Op]error
	now     func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string]map[string]memObject),
		calls:   make(map[Op]int),
		faults:  make(map[Op]error),
		now:     time.Now,
	}
}

// Seed stores an object without counting a call.
func (m *Memory) Seed(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(bucket, key, data, ContentTypeFor(key))
}

// Object returns a stored object's bytes and content type without counting a call.
func (m *Memory) Object(bucket, key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.buckets[bucket][key]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (m *Memory) FailOn(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = err
}

// Calls returns how many times op has been invoked.
func (m *Memory) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of Store calls of any kind.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// enter records a call and returns the injected fault, if any.
func (m *Memory) enter(ctx context.Context, op Op) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.faults[op]
}

func (m *Memory) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpGet); err != nil {
		return nil, err
	}
	obj, ok := m.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, ErrNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *Memory) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpPut); err != nil {
		return err
	}
	m.put(bucket, key, body, contentType)
	return nil
}

func (m *Memory) put(bucket, key string, body []byte, contentType string) {
	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string]memObject)
		m.buckets[bucket] = b
	}
	b[key] = memObject{
		data:        append([]byte(nil), body...),
		contentType: contentType,
		modified:    m.now(),
	}
}

func (m *Memory) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpList); err != nil {
		return nil, err
	}
	var objs []Object
	for key, obj := range m.buckets[bucket] {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objs = append(objs, Object{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

func (m *Memory) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpDelete); err != nil {
		return err
	}
	delete(m.buckets[bucket], key)
	return nil
}
