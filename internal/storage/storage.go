// Package storage is the object-store capability shared by the validation
// pipeline and the dashboard API. Keys follow the {owner}/{filename} layout.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the object does not exist.
// Deleting a missing object is not an error.
var ErrNotFound = errors.New("object not found")

// Object describes one stored object as returned by List.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Owner returns the first path segment of the key.
func (o Object) Owner() string {
	owner, _, _ := strings.Cut(o.Key, "/")
	return owner
}

// Name returns the last path segment of the key.
func (o Object) Name() string {
	return path.Base(o.Key)
}

// Store reads and writes whole objects.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Exists reports whether bucket holds an object at exactly key.
func Exists(ctx context.Context, s Store, bucket, key string) (bool, error) {
	objs, err := s.List(ctx, bucket, key)
	if err != nil {
		return false, err
	}
	for _, o := range objs {
		if o.Key == key {
			return true, nil
		}
	}
	return false, nil
}

// Copy duplicates an object across buckets. The source is left in place.
func Copy(ctx context.Context, s Store, srcBucket, srcKey, dstBucket, dstKey string) error {
	data, err := s.Get(ctx, srcBucket, srcKey)
	if err != nil {
		return fmt.Errorf("copy %s/%s: %w", srcBucket, srcKey, err)
	}
	if err := s.Put(ctx, dstBucket, dstKey, data, ContentTypeFor(srcKey)); err != nil {
		return fmt.Errorf("copy to %s/%s: %w", dstBucket, dstKey, err)
	}
	return nil
}

// Move copies an object and then deletes the source.
func Move(ctx context.Context, s Store, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := Copy(ctx, s, srcBucket, srcKey, dstBucket, dstKey); err != nil {
		return err
	}
	if err := s.Delete(ctx, srcBucket, srcKey); err != nil {
		return fmt.Errorf("move %s/%s: %w", srcBucket, srcKey, err)
	}
	return nil
}

// GroupByOwner buckets objects by the first segment of their key.
// Objects at the bucket root are skipped. Each group keeps key order.
func GroupByOwner(objs []Object) map[string][]Object {
	groups := make(map[string][]Object)
	for _, o := range objs {
		if !strings.Contains(o.Key, "/") || strings.HasSuffix(o.Key, "/") {
			continue
		}
		groups[o.Owner()] = append(groups[o.Owner()], o)
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool { return g[i].Key < g[j].Key })
	}
	return groups
}

// ContentTypeFor guesses a content type from the key's extension.
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".txt", ".log":
		return "text/plain"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
