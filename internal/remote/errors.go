// Package remote defines the error taxonomy shared by the HR portal and
// calendar-service clients. Callers classify failures with errors.Is rather
// than string matching.
package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication means a remote system rejected the identity's
	// credentials. Not retried within a cycle.
	ErrAuthentication = errors.New("authentication rejected")

	// ErrTransport means a non-success HTTP status, connection failure or
	// timeout. Distinguished from bad credentials.
	ErrTransport = errors.New("transport failure")

	// ErrUnsupported means the remote operation is not implemented.
	// Raised explicitly so the caller's pending flag stays set for a
	// future retry instead of silently doing nothing.
	ErrUnsupported = errors.New("remote operation not supported")

	// ErrMarkupFormat means the portal document did not have the expected
	// structure, usually because the upstream layout changed.
	ErrMarkupFormat = errors.New("unexpected markup format")

	// ErrNotFound means the remote item no longer exists. Deleting an
	// already-gone calendar event treats this as success.
	ErrNotFound = errors.New("remote item not found")
)

// MarkupFormatError carries the structure counts observed while parsing, so
// a layout change can be diagnosed from the logs.
type MarkupFormatError struct {
	Cells  int
	Reason string
}

func (e *MarkupFormatError) Error() string {
	return fmt.Sprintf("%s: %s (%d cells scanned)", ErrMarkupFormat, e.Reason, e.Cells)
}

func (e *MarkupFormatError) Unwrap() error {
	return ErrMarkupFormat
}
