package pipeline

import (
	"errors"
	"testing"
)

func TestObjectRef(t *testing.T) {
	tests := []struct {
		key      string
		owner    string
		filename string
		promoted string
	}{
		{key: "alice/report.csv", owner: "alice", filename: "report.csv", promoted: "alice/report.csv"},
		{key: "alice/2023/q1/report.csv", owner: "alice", filename: "report.csv", promoted: "alice/report.csv"},
		{key: "report.csv", owner: "", filename: "report.csv", promoted: "report.csv"},
		{key: "bob/my report(1).xlsx", owner: "bob", filename: "my report(1).xlsx", promoted: "bob/my report(1).xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			ref := ObjectRef{Bucket: "b", Key: tt.key}
			if got := ref.Owner(); got != tt.owner {
				t.Errorf("Owner() = %q, want %q", got, tt.owner)
			}
			if got := ref.Filename(); got != tt.filename {
				t.Errorf("Filename() = %q, want %q", got, tt.filename)
			}
			if got := ref.PromotedKey(); got != tt.promoted {
				t.Errorf("PromotedKey() = %q, want %q", got, tt.promoted)
			}
		})
	}
}

func TestParseEvent(t *testing.T) {
	raw := []byte(`{"Records":[{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"uploads"},"object":{"key":"alice/q1+plan%2B.csv","size":12}}}]}`)

	ev, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	ref, err := firstObject(ev)
	if err != nil {
		t.Fatalf("firstObject() error = %v", err)
	}
	want := ObjectRef{Bucket: "uploads", Key: "alice/q1 plan+.csv"}
	if ref != want {
		t.Errorf("firstObject() = %+v, want %+v", ref, want)
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	_, err := ParseEvent([]byte(`[1,2`))
	if err == nil {
		t.Fatal("ParseEvent() error = nil, want error")
	}
	if !errors.Is(err, errNoRecords) {
		t.Errorf("ParseEvent() error = %v, want errNoRecords", err)
	}
}

func TestFirstObject_Errors(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want error
	}{
		{name: "no records", ev: Event{}, want: errNoRecords},
		{name: "no bucket", ev: s3Event("", "a.csv"), want: errBadStructure},
		{name: "no key", ev: s3Event("uploads", ""), want: errBadStructure},
		{name: "bad escape", ev: s3Event("uploads", "100%.csv"), want: errBadStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := firstObject(tt.ev)
			if !errors.Is(err, tt.want) {
				t.Errorf("firstObject() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEventFor_RoundTrip(t *testing.T) {
	for _, key := range []string{"alice/report.csv", "alice/my report (1)+final.csv", "root.xlsx"} {
		ref, err := firstObject(EventFor("uploads", key))
		if err != nil {
			t.Fatalf("firstObject(EventFor(%q)) error = %v", key, err)
		}
		if ref.Key != key || ref.Bucket != "uploads" {
			t.Errorf("firstObject(EventFor(%q)) = %+v", key, ref)
		}
	}
}
