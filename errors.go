package quizClient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrStorageRead is returned when persisted session keys cannot be read.
	ErrStorageRead = errors.New("session storage read failed")
	// ErrStorageWrite is returned when persisted session keys cannot be written or removed.
	ErrStorageWrite = errors.New("session storage write failed")
	// ErrNetwork wraps transport failures (DNS, connect, reset, timeout).
	ErrNetwork = errors.New("network failure")
	// ErrAuthRejected is returned when the backend rejected the credential. The session has
	// already been ended when a caller sees it.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrServerError is returned for 500 responses under ServerErrorRetryable.
	ErrServerError = errors.New("server error")
	// ErrMalformedBody is returned when a response body could not be decoded.
	ErrMalformedBody = errors.New("malformed response body")
	// ErrBodyTooLarge is returned when a response body is longer than the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
	// ErrHTTPStatus is returned for non-success statuses this package does not interpret.
	ErrHTTPStatus = errors.New("unexpected http status")
	// ErrInvalidSession is returned by EstablishSession when any field is empty.
	ErrInvalidSession = errors.New("session fields must be non-empty")
	// ErrInvalidPendingID is returned by BeginVerification for an empty id.
	ErrInvalidPendingID = errors.New("pending verification id must be non-empty")
	// ErrNotAuthenticated is returned when an operation needs a session and none exists.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrManagerClosed is returned after Close.
	ErrManagerClosed = errors.New("session manager closed")
	// ErrManagerNotReady is returned by methods called on a nil Manager.
	ErrManagerNotReady = errors.New("session manager not initialized")
)

// StatusError describes a non-success HTTP response.
type StatusError struct {
	StatusCode int
	Class      ResponseClass
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d %s", e.Err, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status from err, or 0 if err carries none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
