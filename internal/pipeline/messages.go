package pipeline

// This file maps run outcomes and technical errors to user-facing messages
// with codes for support reference. When users see an error they can quote
// the code to support staff for faster diagnosis.
//
// # Event Errors (EVT001-EVT099)
//
//	EVT001 - Invalid event: the trigger carried no usable object reference
//	EVT002 - Wrong bucket: the object is not in the upload bucket
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Unsupported format: only .csv and .xlsx are accepted
//	FILE003 - Unreadable file: corrupt workbook, ragged CSV, or bad encoding
//	FILE004 - No file provided
//	FILE005 - Empty file
//	FILE006 - File already exists for this user
//	FILE007 - File not found
//	FILE008 - Invalid name: owners and file names must be a single path segment
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date: a date column holds values that are not DD-MM-YYYY
//	VAL003 - Missing values: one or more columns hold empty cells
//
// # Request Errors
//
//	AUTH001 - Forbidden: the signed-in user may not do this
//	UPL004  - Request cancelled
//	UPL005  - Request timed out
//	RATE001 - Rate limited
//
// # Default Error (ERR000)
//
// Fallback when nothing more specific matches. Check the logs for the
// original error, correlated by request_id and run_id.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var kindMessages = map[Kind]UserMessage{
	KindInvalidEvent: {
		Message: "The upload notification could not be read",
		Action:  "Check the storage trigger configuration",
		Code:    "EVT001",
	},
	KindWrongSource: {
		Message: "The file was not uploaded to the upload bucket",
		Action:  "Upload the file through the dashboard",
		Code:    "EVT002",
	},
	KindUnsupportedFormat: {
		Message: "Unsupported file format",
		Action:  "Upload a .csv or .xlsx file",
		Code:    "FILE002",
	},
	KindDecodeError: {
		Message: "The file could not be read",
		Action:  "Re-export the file as UTF-8 CSV or a fresh .xlsx workbook",
		Code:    "FILE003",
	},
	KindSchemaViolation: {
		Message: "Some columns contain empty values",
		Action:  "Fill every cell, including unparsable dates, and upload again",
		Code:    "VAL003",
	},
	KindFormatViolation: {
		Message: "Invalid date format detected",
		Action:  "Write dates as DD-MM-YYYY, for example 03-04-2023",
		Code:    "VAL001",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a .csv or .xlsx file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "already exists",
		msg: UserMessage{
			Message: "A file with this name already exists",
			Action:  "Rename the file or ask an administrator to remove the old one",
			Code:    "FILE006",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "File not found",
			Action:  "Refresh the list and try again",
			Code:    "FILE007",
		},
	},
	{
		pattern: "invalid name",
		msg: UserMessage{
			Message: "Invalid file or user name",
			Action:  "Use a plain file name without slashes",
			Code:    "FILE008",
		},
	},
	{
		pattern: "forbidden",
		msg: UserMessage{
			Message: "You do not have access to this resource",
			Action:  "Sign in with an administrator account",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MessageFor returns the user message for a run outcome.
// Promoted has no message; transient failures get ERR000.
func MessageFor(k Kind) UserMessage {
	if k == KindPromoted {
		return UserMessage{}
	}
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return defaultMessage
}

// sentinelKinds lets MapError classify errors returned by Report.Err.
var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidEvent, KindInvalidEvent},
	{ErrWrongSource, KindWrongSource},
	{ErrUnsupportedFormat, KindUnsupportedFormat},
	{ErrDecode, KindDecodeError},
	{ErrSchemaViolation, KindSchemaViolation},
	{ErrFormatViolation, KindFormatViolation},
}

// MapError converts a technical error to a user-friendly message.
// Pipeline sentinels are matched with errors.Is first, then the error text
// is searched for known patterns. Anything else is ERR000.
//
// Example:
//
//	msg := MapError(report.Err())
//	// msg.Code == "VAL003" for a NullViolation
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sk := range sentinelKinds {
		if errors.Is(err, sk.err) {
			return kindMessages[sk.kind]
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
