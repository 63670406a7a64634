package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/JonMunkholm/ticketcast/internal/table"
)

// Kind classifies the outcome of a run.
type Kind string

const (
	KindPromoted          Kind = "promoted"
	KindInvalidEvent      Kind = "invalid_event"
	KindWrongSource       Kind = "wrong_source"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindDecodeError       Kind = "decode_error"
	KindSchemaViolation   Kind = "schema_violation"
	KindFormatViolation   Kind = "format_violation"
	KindTransient         Kind = "transient_error"
)

// Sentinels matched by Report.Err through errors.Is.
var (
	ErrInvalidEvent      = errors.New("invalid event")
	ErrWrongSource       = errors.New("wrong source bucket")
	ErrUnsupportedFormat = table.ErrUnsupportedFormat
	ErrDecode            = table.ErrDecode
	ErrSchemaViolation   = errors.New("null values present")
	ErrFormatViolation   = errors.New("invalid date format")
	ErrTransient         = errors.New("transient error")
)

// Report is the immutable outcome of one run. The concrete types are
// Promoted, NullViolation, FormatViolation, Rejected and Failed.
type Report interface {
	Kind() Kind
	StatusCode() int

	// Message is the human-readable body returned to the trigger.
	Message() string

	// Err is nil for Promoted and wraps the kind's sentinel otherwise.
	Err() error

	isReport()
}

// Promoted reports a clean file written to the validated bucket.
type Promoted struct {
	Source      ObjectRef
	Destination ObjectRef
	Rows        int
}

func (*Promoted) Kind() Kind { return KindPromoted }
func (*Promoted) StatusCode() int { return http.StatusOK }
func (*Promoted) Err() error { return nil }
func (*Promoted) isReport() {}

func (r *Promoted) Message() string {
	return fmt.Sprintf("Validation successful for file: %s. No null values or incorrect date formats found.", r.Source.Key)
}

// NullViolation reports columns holding nulls, including dates that failed
// to parse. Date-format problems found in the same file are kept in
// SuppressedFormat but never surfaced: completeness takes precedence.
type NullViolation struct {
	Source           ObjectRef
	Columns          []string
	Rows             map[string][]int
	SuppressedFormat map[string][]string
}

func (*NullViolation) Kind() Kind { return KindSchemaViolation }
func (*NullViolation) StatusCode() int { return http.StatusBadRequest }
func (*NullViolation) isReport() {}

func (r *NullViolation) Message() string {
	return "Validation failed. Columns with null values: " + strings.Join(r.Columns, ", ")
}

func (r *NullViolation) Err() error {
	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(r.Columns, ", "))
}

// FormatViolation reports date values that are not DD-MM-YYYY after
// normalization, listed verbatim per column.
type FormatViolation struct {
	Source  ObjectRef
	Invalid map[string][]string
}

func (*FormatViolation) Kind() Kind { return KindFormatViolation }
func (*FormatViolation) StatusCode() int { return http.StatusBadRequest }
func (*FormatViolation) isReport() {}

func (r *FormatViolation) Message() string {
	return "Validation failed. Invalid date formats in columns: " + formatInvalid(r.Invalid)
}

func (r *FormatViolation) Err() error {
	return fmt.Errorf("%w: %s", ErrFormatViolation, formatInvalid(r.Invalid))
}

// formatInvalid renders "col: [v1, v2]; col2: [v3]" in column-name order.
func formatInvalid(invalid map[string][]string) string {
	cols := make([]string, 0, len(invalid))
	for c := range invalid {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s: [%s]", c, strings.Join(invalid[c], ", "))
	}
	return strings.Join(parts, "; ")
}

// Rejected reports input the pipeline refuses to process: a malformed
// event, a foreign bucket, an unsupported extension, or undecodable content.
type Rejected struct {
	Reason Kind
	Source ObjectRef
	Detail string
	Cause  error
}

func (r *Rejected) Kind() Kind { return r.Reason }
func (*Rejected) StatusCode() int { return http.StatusBadRequest }
func (r *Rejected) Message() string { return r.Detail }
func (*Rejected) isReport() {}

func (r *Rejected) Err() error {
	sentinel := ErrInvalidEvent
	switch r.Reason {
	case KindWrongSource:
		sentinel = ErrWrongSource
	case KindUnsupportedFormat:
		sentinel = ErrUnsupportedFormat
	case KindDecodeError:
		sentinel = ErrDecode
	}
	if r.Cause != nil {
		return fmt.Errorf("%w: %w", sentinel, r.Cause)
	}
	return fmt.Errorf("%w: %s", sentinel, r.Detail)
}

// Failed reports an unexpected error: storage access, serialization, or a
// recovered panic. The trigger infrastructure decides whether to retry.
type Failed struct {
	Source ObjectRef
	Stage  State
	Cause  error
}

func (*Failed) Kind() Kind { return KindTransient }
func (*Failed) StatusCode() int { return http.StatusInternalServerError }
func (*Failed) isReport() {}

func (r *Failed) Message() string {
	return fmt.Sprintf("Error processing file %s: %v", r.Source.Key, r.Cause)
}

func (r *Failed) Err() error {
	return fmt.Errorf("%w: %s: %w", ErrTransient, r.Stage, r.Cause)
}

// Result is the response handed back to the trigger.
type Result struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// ResultOf renders a report as a Result.
func ResultOf(r Report) Result {
	return Result{StatusCode: r.StatusCode(), Body: r.Message()}
}
