package docker

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/containerd/errdefs"
)

var (
	ErrRuntime = errors.New("container runtime error")
	ErrTimeout = errors.New("request timed out")
	ErrDecode  = errors.New("malformed runtime response")
)

// Returned when the Engine API answers with a status other than 2xx, 304
// or 101.
//
// Message is the "message" field of a JSON error body, or the raw body
// text otherwise. The error unwraps to the errdefs class matching the
// status, so callers can test it with [errdefs.IsNotFound] and friends.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("engine returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("engine returned status %d: %s", e.StatusCode, e.Message)
}

func (e *ServerError) Unwrap() error {
	return statusClass(e.StatusCode)
}

// Maps an HTTP status to an errdefs error class.
func statusClass(status int) error {
	switch status {
	case http.StatusBadRequest:
		return errdefs.ErrInvalidArgument
	case http.StatusUnauthorized:
		return errdefs.ErrUnauthenticated
	case http.StatusForbidden:
		return errdefs.ErrPermissionDenied
	case http.StatusNotFound:
		return errdefs.ErrNotFound
	case http.StatusConflict:
		return errdefs.ErrConflict
	case http.StatusNotImplemented:
		return errdefs.ErrNotImplemented
	case http.StatusServiceUnavailable:
		return errdefs.ErrUnavailable
	case http.StatusInternalServerError:
		return errdefs.ErrInternal
	default:
		return errdefs.ErrUnknown
	}
}

// Returned when a response body, or an item of a response stream, is not
// the JSON or framing the caller expected.
//
// Offset is the byte offset within Raw at which decoding failed.
type DecodeError struct {
	Offset int64
	Raw    string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at offset %d: %v: %q", ErrDecode, e.Offset, e.Err, e.Raw)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// Reported by a wait stream when the container exited with a nonzero code.
//
// Message is the runtime's error annotation, empty when it sent none. A
// WaitError describes the workload, not the runtime: the wait itself
// succeeded.
type WaitError struct {
	Code    int64
	Message string
}

func (e *WaitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("container exited with code %d", e.Code)
	}
	return fmt.Sprintf("container exited with code %d: %s", e.Code, e.Message)
}

// Wraps a transport-level failure in [ErrRuntime].
func runtimeError(err error) error {
	return fmt.Errorf("%w: %w", ErrRuntime, err)
}
