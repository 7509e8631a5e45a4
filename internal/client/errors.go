// ABOUTME: Error taxonomy for backend calls
// ABOUTME: Distinguishes unreachable backend, expired session, and backend-reported failures

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrSessionExpired is returned when a 401 could not be recovered by renewing
// the session. The session has been torn down by the time callers see it.
var ErrSessionExpired = errors.New("session expired")

// UnreachableError means no HTTP response was received.
type UnreachableError struct {
	URL string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("cannot connect to backend at %s: %v", e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// BackendError is a non-2xx response.
type BackendError struct {
	Status  int
	Message string
	Details string
}

func (e *BackendError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("backend error (%d): %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// IsStatus reports whether err is a BackendError with the given status.
func IsStatus(err error, status int) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Status == status
}

// newBackendError builds a BackendError from an error body of the form
// {"error": "...", "details": ...}, falling back to the status text.
func newBackendError(status int, body []byte) *BackendError {
	be := &BackendError{Status: status}

	var payload struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		be.Message = payload.Error
		if be.Message == "" {
			be.Message = payload.Message
		}
		be.Details = detailsString(payload.Details)
	}

	if be.Message == "" {
		be.Message = http.StatusText(status)
	}
	if be.Message == "" {
		be.Message = "request failed"
	}
	return be
}

func detailsString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
