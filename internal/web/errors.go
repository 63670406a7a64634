package web

// errors.go renders every API error the same way.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status is chosen by statusFor
//  4. The error is mapped via pipeline.MapError to a user message and code
//  5. The technical error is logged with the request ID for correlation

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/ticketcast/internal/logging"
	"github.com/JonMunkholm/ticketcast/internal/pipeline"
	"github.com/JonMunkholm/ticketcast/internal/reports"
	"github.com/JonMunkholm/ticketcast/internal/storage"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	errNoFile        = errors.New("no file provided")
	errFileTooLarge  = errors.New("file too large")
	errBadRequest    = errors.New("malformed request body")
	errUnauthorized  = errors.New("forbidden: no signed-in user")
	errAdminRequired = errors.New("forbidden: administrator role required")
)

// statusFor picks the HTTP status for an error returned by a service.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errAdminRequired):
		return http.StatusForbidden
	case errors.Is(err, errFileTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reports.ErrExists):
		return http.StatusConflict
	case errors.Is(err, reports.ErrTooManyUploads):
		return http.StatusTooManyRequests
	case errors.Is(err, pipeline.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, reports.ErrInvalidName),
		errors.Is(err, reports.ErrEmptyFile),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error and writes a user-friendly JSON body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := pipeline.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= 500 {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
