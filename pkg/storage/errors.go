package storage

import (
	"errors"
	"fmt"
)

// Error kinds returned by the storage layer. Callers classify with errors.Is.
var (
	// ErrNotFound is returned when the index has no document for an id.
	ErrNotFound = errors.New("not found")

	// ErrMalformedQuery is returned when the index rejects a query's shape,
	// e.g. a sort field it has no mapping for.
	ErrMalformedQuery = errors.New("malformed query")

	// ErrStorageUnavailable covers every other index failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IndexError describes a failed index request.
type IndexError struct {
	Index      string
	Operation  string
	StatusCode int

	// Kind is one of ErrNotFound, ErrMalformedQuery or ErrStorageUnavailable.
	Kind error

	// Reason is the index-provided explanation, if any.
	Reason string

	Err error
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	msg := fmt.Sprintf("index %s %s: %v", e.Index, e.Operation, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is the error's kind.
func (e *IndexError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *IndexError) Unwrap() error {
	return e.Err
}

// kindForStatus maps an index HTTP status to an error kind.
func kindForStatus(status int) error {
	switch {
	case status == 404:
		return ErrNotFound
	case status == 400:
		return ErrMalformedQuery
	default:
		return ErrStorageUnavailable
	}
}
