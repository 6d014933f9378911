package packeteer

import "fmt"

// ErrorKind is a closed enumeration of error categories; every error this
// module returns carries one, accessible via [Error.Code]. Codes are
// stable across versions so callers can switch on them or map them to
// process exit codes.
type ErrorKind int

const (
	// Success is not itself ever returned as an error (operations return
	// nil for success); it exists so ErrorKind's zero value has a name.
	Success ErrorKind = iota
	Unexpected
	Aborted
	NotImplemented

	Initialization
	UnsupportedAction
	InvalidOption
	InvalidValue
	Format
	EmptyCallback

	RepeatAction
	Async
	TimeoutError

	OutOfMemory
	NumFiles
	NumItems
	FSError
	AccessViolation

	ConnectionRefused
	ConnectionAborted
	NoConnection
	NetworkUnreachable
	AddressInUse
	AddressNotAvailable
)

var errorKindNames = [...]string{
	Success:             "success",
	Unexpected:          "unexpected",
	Aborted:             "aborted",
	NotImplemented:      "not-implemented",
	Initialization:      "initialization",
	UnsupportedAction:   "unsupported-action",
	InvalidOption:       "invalid-option",
	InvalidValue:        "invalid-value",
	Format:              "format",
	EmptyCallback:       "empty-callback",
	RepeatAction:        "repeat-action",
	Async:               "async",
	TimeoutError:        "timeout",
	OutOfMemory:         "out-of-memory",
	NumFiles:            "num-files",
	NumItems:            "num-items",
	FSError:             "fs-error",
	AccessViolation:     "access-violation",
	ConnectionRefused:   "connection-refused",
	ConnectionAborted:   "connection-aborted",
	NoConnection:        "no-connection",
	NetworkUnreachable:  "network-unreachable",
	AddressInUse:        "address-in-use",
	AddressNotAvailable: "address-not-available",
}

// String returns the stable lower-kebab-case name for k.
func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindNames) || errorKindNames[k] == "" {
		return fmt.Sprintf("error-kind(%d)", int(k))
	}
	return errorKindNames[k]
}

// Error is the typed error value returned throughout this module. It
// always carries a non-success [ErrorKind]; Cause, when present, is the
// originating platform error (a syscall.Errno, a *net.OpError-shaped
// error, etc.) and is reachable through [errors.Unwrap]/[errors.As].
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// NewError constructs an *Error with the given kind and message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError constructs an *Error with the given kind, message and cause.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Code returns the error's kind, for callers that want to switch on it or
// map it to a native error-handling idiom (e.g. a process exit code).
func (e *Error) Code() ErrorKind {
	if e == nil {
		return Success
	}
	return e.Kind
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers
// can do errors.Is(err, packeteer.NewError(packeteer.RepeatAction, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
