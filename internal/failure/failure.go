// Package failure defines the error kinds surfaced by the install pipeline.
//
// Every component returns a *Error carrying one Kind so the caller can show
// the kind and the human message without inspecting component internals:
//
//	if errors.Is(err, failure.ErrRateLimit) {
//		// ask the user to retry later
//	}
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindUnknown           Kind = "Unknown"
	KindInvalidRoot       Kind = "InvalidRoot"
	KindNetwork           Kind = "Network"
	KindRateLimit         Kind = "RateLimit"
	KindNotFound          Kind = "NotFound"
	KindCorruptArchive    Kind = "CorruptArchive"
	KindTargetUnavailable Kind = "TargetUnavailable"
	KindWrite             Kind = "Write"
	KindAlreadyRunning    Kind = "AlreadyRunning"
	KindCancelled         Kind = "Cancelled"
)

// Sentinels for errors.Is matching. An *Error matches the sentinel of its Kind.
var (
	ErrInvalidRoot       = errors.New("invalid instances folder")
	ErrNetwork           = errors.New("network error")
	ErrRateLimit         = errors.New("rate limited by GitHub")
	ErrNotFound          = errors.New("release not found")
	ErrCorruptArchive    = errors.New("corrupt archive")
	ErrTargetUnavailable = errors.New("target directory unavailable")
	ErrWrite             = errors.New("write failed")
	ErrAlreadyRunning    = errors.New("an install is already running")
	ErrCancelled         = errors.New("operation cancelled by user")
)

var sentinels = map[Kind]error{
	KindInvalidRoot:       ErrInvalidRoot,
	KindNetwork:           ErrNetwork,
	KindRateLimit:         ErrRateLimit,
	KindNotFound:          ErrNotFound,
	KindCorruptArchive:    ErrCorruptArchive,
	KindTargetUnavailable: ErrTargetUnavailable,
	KindWrite:             ErrWrite,
	KindAlreadyRunning:    ErrAlreadyRunning,
	KindCancelled:         ErrCancelled,
}

// Error is a classified failure with the operation and resource involved.
type Error struct {
	Kind     Kind
	Op       string
	Resource string
	// FilesWritten is set for KindWrite to report partial completion.
	FilesWritten int
	Cause        error
}

// New creates an Error of the given kind.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// WithResource sets the resource and returns e for chaining.
func (e *Error) WithResource(resource string) *Error {
	e.Resource = resource
	return e
}

func (e *Error) Error() string {
	msg := "failed to " + e.Op
	if e.Resource != "" {
		msg += " " + e.Resource
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Kind == KindWrite {
		msg += fmt.Sprintf(" (%d files written before the failure)", e.FilesWritten)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the Kind of the first *Error in err's chain.
// Bare sentinels are classified too.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	for kind, s := range sentinels {
		if errors.Is(err, s) {
			return kind
		}
	}
	return KindUnknown
}

// FilesWritten returns the partial write count carried by err, or 0.
func FilesWritten(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.FilesWritten
	}
	return 0
}
