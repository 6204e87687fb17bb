package audit

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes pipeline errors.
type ErrorCode string

const (
	// ErrCodeCatalog indicates a catalog read failed.
	ErrCodeCatalog ErrorCode = "CATALOG_ERROR"

	// ErrCodeStore indicates an audit record could not be written.
	ErrCodeStore ErrorCode = "STORE_ERROR"

	// ErrCodeNetwork indicates a content lookup failed.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"

	// ErrCodeChannelClosed indicates the auditor is gone and the queue can no
	// longer be drained.
	ErrCodeChannelClosed ErrorCode = "CHANNEL_CLOSED"
)

// ErrChannelClosed is wrapped by Queue.Push once the receiver has stopped.
var ErrChannelClosed = errors.New("audit queue receiver closed")

// Error is a classified pipeline failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ContentKey is the hex lookup key being processed, if any.
	ContentKey string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ContentKey != "" {
		msg = fmt.Sprintf("%s (content_key=%s)", msg, e.ContentKey)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// IsCatalogError returns true if err is a catalog read failure.
func IsCatalogError(err error) bool { return hasCode(err, ErrCodeCatalog) }

// IsStoreError returns true if err is an audit write failure.
func IsStoreError(err error) bool { return hasCode(err, ErrCodeStore) }

// IsNetworkError returns true if err is a content lookup failure.
func IsNetworkError(err error) bool { return hasCode(err, ErrCodeNetwork) }

// IsChannelClosed returns true if err reports a closed audit queue.
func IsChannelClosed(err error) bool { return hasCode(err, ErrCodeChannelClosed) }

func newError(code ErrorCode, message, contentKey string, err error) *Error {
	return &Error{Code: code, Message: message, ContentKey: contentKey, Err: err}
}
