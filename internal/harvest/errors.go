package harvest

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies why a category could not be harvested.
type ErrorKind string

// Failure classifications reported at run end.
const (
	KindTimeout           ErrorKind = "timeout"
	KindTransport         ErrorKind = "transport"
	KindStructureNotFound ErrorKind = "structure_not_found"
)

// ErrStructureNotFound signals markup without the expected description column.
var ErrStructureNotFound = errors.New("description column not found")

// Error is a classified failure for one category's fetch or extraction.
type Error struct {
	Kind    ErrorKind
	Name    string
	Locator Locator
	Status  int
	Err     error
}

// Error renders the failure with its classification and context.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Name)
	if e.Locator != "" {
		msg += fmt.Sprintf(" (%s)", e.Locator)
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Classify maps an arbitrary fetch or extraction error onto an ErrorKind.
// Deadline and cancellation errors count as timeouts; a missing description
// column keeps its own kind; everything else is a transport failure.
func Classify(err error) ErrorKind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	if errors.Is(err, ErrStructureNotFound) {
		return KindStructureNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}
