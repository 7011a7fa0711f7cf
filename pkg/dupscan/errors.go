package dupscan

import "fmt"

// ErrorKind classifies a whole-scan failure. Per-file failures never
// surface as an Error; they are absorbed into ScanStats (see stats.go).
type ErrorKind int

const (
	// InvalidInput means the caller passed illegal options or roots; no
	// scan starts.
	InvalidInput ErrorKind = iota
	// ScanFailure means a non-recoverable runtime failure occurred (e.g.
	// unable to resolve any root).
	ScanFailure
	// Cancelled means the scan was aborted by a caller-provided cancel
	// signal; no partial report is produced.
	Cancelled
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case ScanFailure:
		return "ScanFailure"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by the scan entry points for
// whole-scan failures.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is against a sentinel Error value built with just a
// Kind (e.g. errors.Is(err, &Error{Kind: InvalidInput})).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: InvalidInput, Message: fmt.Sprintf(format, args...)}
}

func scanFailure(err error, format string, args ...any) *Error {
	return &Error{Kind: ScanFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

func cancelled() *Error {
	return &Error{Kind: Cancelled, Message: "scan cancelled"}
}
