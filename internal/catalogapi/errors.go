package catalogapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/catalogadmin/internal/product/domain"
)

var (
	ErrInvalidBaseURL = errors.New("invalid_base_url")
	ErrInvalidPath    = errors.New("invalid_path")
	// ErrResponseTooLarge is wrapped in a TransportError when a body
	// exceeds the read limit.
	ErrResponseTooLarge = errors.New("response too large")
)

// SubError is one field-level rejection reported by the product API.
type SubError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the product API. Structured is true
// when the body carried an apierror envelope.
type APIError struct {
	StatusCode int
	Message    string
	SubErrors  []SubError
	Structured bool
}

type errorEnvelope struct {
	APIError *struct {
		Message   string     `json:"message"`
		SubErrors []SubError `json:"subErrors"`
	} `json:"apierror"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog api: status %d", e.StatusCode)
}

func (e *APIError) HasSubErrors() bool {
	return len(e.SubErrors) > 0
}

// FieldErrors maps sub errors onto form fields. Later entries for the same
// field win, matching the order the server reported them.
func (e *APIError) FieldErrors() domain.FieldErrors {
	out := domain.FieldErrors{}
	for _, sub := range e.SubErrors {
		field := strings.TrimSpace(sub.Field)
		if field == "" {
			continue
		}
		out.Set(field, sub.Message)
	}
	return out
}

// TransportError means no usable response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog api %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the product API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
