package table

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Format identifies how an uploaded object is encoded.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type used when writing the format back to storage.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

var (
	// ErrUnsupportedFormat is matched by UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrDecode is matched by DecodeError.
	ErrDecode = errors.New("decode error")
)

// UnsupportedFormatError is returned for object keys whose extension is
// neither .csv nor .xlsx. Key is the decoded object key.
type UnsupportedFormatError struct {
	Key string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Key)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// DecodeError wraps a failure to parse the raw bytes of a supported format.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// FormatFromKey selects the format from an object key's extension.
// Only the suffix is inspected; content is never sniffed.
func FormatFromKey(key string) (Format, error) {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", &UnsupportedFormatError{Key: key}
	}
}
