package types

import (
	"errors"
	"fmt"
)

// ErrorKind is a semantic error category, not a source type. Repositories
// surface these instead of opaque errors so orchestrators and a future
// transport layer can branch on "what kind of thing went wrong" without
// string-matching messages.
type ErrorKind string

const (
	NotFound                        ErrorKind = "NotFound"
	NameCollision                   ErrorKind = "NameCollision"
	CycleWouldBeIntroduced          ErrorKind = "CycleWouldBeIntroduced"
	InvalidScope                    ErrorKind = "InvalidScope"
	CrossProjectNotSupportedOffline ErrorKind = "CrossProjectNotSupportedOffline"
	CapabilityRequiresOnline        ErrorKind = "CapabilityRequiresOnline"
	PermissionDenied                ErrorKind = "PermissionDenied"
	IntegrityViolation               ErrorKind = "IntegrityViolation"
	Transient                       ErrorKind = "Transient"
)

// Error is the typed error every repository and orchestrator returns.
// Context carries the offending field names / IDs for a caller that wants
// to render a message without string-parsing Err.
type Error struct {
	Kind    ErrorKind
	Message string
	Context map[string]interface{}
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, types.ErrNotFound)-style sentinel comparisons work
// against a typed *Error by kind rather than identity.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// NewError constructs a typed error with optional context key/value pairs
// (passed as alternating key, value — an odd count drops the trailing key).
func NewError(kind ErrorKind, message string, kv ...interface{}) *Error {
	e := &Error{Kind: kind, Message: message}
	if len(kv) > 0 {
		e.Context = make(map[string]interface{}, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			if k, ok := kv[i].(string); ok {
				e.Context[k] = kv[i+1]
			}
		}
	}
	return e
}

// Wrap attaches a kind to an underlying error, typically from a backend
// driver, preserving it for errors.Unwrap/errors.Is chains.
func Wrap(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinel values for errors.Is comparisons against a bare kind, e.g.
// errors.Is(err, types.ErrNotFound).
var (
	ErrNotFound                        = &Error{Kind: NotFound}
	ErrNameCollision                   = &Error{Kind: NameCollision}
	ErrCycleWouldBeIntroduced          = &Error{Kind: CycleWouldBeIntroduced}
	ErrInvalidScope                    = &Error{Kind: InvalidScope}
	ErrCrossProjectNotSupportedOffline = &Error{Kind: CrossProjectNotSupportedOffline}
	ErrCapabilityRequiresOnline        = &Error{Kind: CapabilityRequiresOnline}
	ErrPermissionDenied                = &Error{Kind: PermissionDenied}
	ErrIntegrityViolation               = &Error{Kind: IntegrityViolation}
	ErrTransient                       = &Error{Kind: Transient}
)

// KindOf extracts the ErrorKind from err, if err is (or wraps) an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}
