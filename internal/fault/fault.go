// Package fault classifies the failures a wallpaper cycle can produce.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies which stage of a cycle failed and why.
type Kind int

const (
	Unknown Kind = iota
	SourceUnavailable
	SourceMalformed
	DownloadFailed
	Cancelled
	ApplyFailed
)

func (k Kind) String() string {
	switch k {
	case SourceUnavailable:
		return "source_unavailable"
	case SourceMalformed:
		return "source_malformed"
	case DownloadFailed:
		return "download_failed"
	case Cancelled:
		return "cancelled"
	case ApplyFailed:
		return "apply_failed"
	default:
		return "unknown"
	}
}

// Error carries the failure kind together with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with kind. A context cancellation always becomes Cancelled so a
// shutdown is never mistaken for a content failure. Deadline expiry keeps the
// caller's kind. Wrap returns nil when err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		kind = Cancelled
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// New creates a classified error without an underlying cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// KindOf reports the kind of the outermost classified error in err's chain.
// Unclassified cancellations report Cancelled.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return Cancelled
	}
	return Unknown
}

// IsCancelled reports whether err stems from a stop request.
func IsCancelled(err error) bool {
	return KindOf(err) == Cancelled
}
