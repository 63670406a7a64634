package pipeline

import (
	"encoding/json"
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Event is the storage notification that triggers a run.
type Event = events.S3Event

// ObjectRef identifies one stored object.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Owner returns the first path segment of the key, or "" for a key at the
// bucket root.
func (o ObjectRef) Owner() string {
	owner, _, found := strings.Cut(o.Key, "/")
	if !found {
		return ""
	}
	return owner
}

// Filename returns the last path segment of the key.
func (o ObjectRef) Filename() string {
	return path.Base(o.Key)
}

// PromotedKey is where a validated copy lands: {owner}/{filename}.
// Intermediate folders are dropped; a root-level key keeps just the filename.
func (o ObjectRef) PromotedKey() string {
	if owner := o.Owner(); owner != "" {
		return owner + "/" + o.Filename()
	}
	return o.Filename()
}

func (o ObjectRef) String() string {
	return o.Bucket + "/" + o.Key
}

// eventError is an InvalidEvent with the body text returned to the caller.
type eventError struct {
	msg string
}

func (e *eventError) Error() string { return e.msg }

var (
	errNoRecords    = &eventError{msg: "Invalid event format"}
	errBadStructure = &eventError{msg: "Invalid S3 event structure"}
)

// EventFor builds the notification storage sends when key is written to
// bucket. The key is form-encoded the way storage delivers it.
func EventFor(bucket, key string) Event {
	return Event{Records: []events.S3EventRecord{{
		EventSource: "aws:s3",
		EventName:   "ObjectCreated:Put",
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: url.QueryEscape(key)},
		},
	}}}
}

// ParseEvent decodes a raw notification. Malformed JSON is an invalid event,
// reported the same way as an event with no records.
func ParseEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, errors.Join(errNoRecords, err)
	}
	return ev, nil
}

// firstObject resolves the event to the object it announces. Only the first
// record is considered. The key arrives form-encoded ("+" for space).
func firstObject(ev Event) (ObjectRef, error) {
	if len(ev.Records) == 0 {
		return ObjectRef{}, errNoRecords
	}
	rec := ev.Records[0].S3
	if rec.Bucket.Name == "" || rec.Object.Key == "" {
		return ObjectRef{}, errBadStructure
	}
	key, err := url.QueryUnescape(rec.Object.Key)
	if err != nil {
		return ObjectRef{}, errors.Join(errBadStructure, err)
	}
	return ObjectRef{Bucket: rec.Bucket.Name, Key: key}, nil
}
