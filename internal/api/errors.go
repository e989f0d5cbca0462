package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a backend failure into the small taxonomy the UI maps
// to localized messages
type Kind int

const (
	KindConnectionFailed Kind = iota // connection refused, network unreachable
	KindTimeout                      // client-side deadline exceeded
	KindInvalidContent               // HTTP 400
	KindPayloadTooLarge              // HTTP 413
	KindUnsupportedFormat            // HTTP 415
	KindUnprocessable                // HTTP 422
	KindServerError                  // HTTP 500
	KindUploadFailed                 // any other non-200 status
	KindEmptyTranscript              // 200 with empty text field
	KindEmptyReply                   // 200 with empty response field
	KindBackendUnreachable           // health probe failed before the heavy call
)

// Error is a classified backend failure
type Error struct {
	Kind     Kind
	Endpoint string
	Status   int // HTTP status, 0 for transport failures
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a classified *Error from an error chain
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// classifyTransport maps a transport-level failure to a Kind, separating
// client-side timeouts from hard connection failures
func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	msg := err.Error()
	if containsAny(msg, []string{
		"timeout",
		"deadline exceeded",
		"i/o timeout",
		"ECONNABORTED",
	}) {
		return KindTimeout
	}

	return KindConnectionFailed
}

// kindForStatus maps an HTTP status code to a Kind
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindInvalidContent
	case http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	case http.StatusUnsupportedMediaType:
		return KindUnsupportedFormat
	case http.StatusUnprocessableEntity:
		return KindUnprocessable
	case http.StatusInternalServerError:
		return KindServerError
	default:
		return KindUploadFailed
	}
}

// containsAny checks if a string contains any of the substrings
func containsAny(s string, substrings []string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
