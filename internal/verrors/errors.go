// Package verrors implements the error taxonomy of the core: storage,
// format, protocol and fatal categories, each with a closed set of codes.
package verrors

import "fmt"

// Category groups codes by how callers are expected to react.
type Category string

const (
	Storage  Category = "storage"
	Format   Category = "format"
	Protocol Category = "protocol"
	Fatal    Category = "fatal"
)

// Code is a closed enumeration of error conditions from spec.md §7.
type Code string

const (
	// Storage
	OutOfSpace   Code = "OutOfSpace"
	NotFound     Code = "NotFound"
	Incompatible Code = "Incompatible"

	// Format
	UnsupportedVersion Code = "UnsupportedVersion"
	Corrupt            Code = "Corrupt"
	DecompressionFailed Code = "DecompressionFailed"

	// Protocol
	OutdatedObject     Code = "OutdatedObject"
	SchemaMismatch     Code = "SchemaMismatch"
	PortPolicyViolation Code = "PortPolicyViolation"

	// Fatal
	ConsistencyError Code = "ConsistencyError"
	NotImplemented   Code = "NotImplemented"
	ParentDied       Code = "ParentDied"
)

var categoryOf = map[Code]Category{
	OutOfSpace:   Storage,
	NotFound:     Storage,
	Incompatible: Storage,

	UnsupportedVersion:  Format,
	Corrupt:             Format,
	DecompressionFailed: Format,

	OutdatedObject:      Protocol,
	SchemaMismatch:      Protocol,
	PortPolicyViolation: Protocol,

	ConsistencyError: Fatal,
	NotImplemented:   Fatal,
	ParentDied:       Fatal,
}

// VistleError is the concrete error type returned across the core. It
// carries enough context for a caller to log, propagate or, for Fatal
// errors, abort after a diagnostic (see spec.md §7 Propagation).
type VistleError struct {
	Code        Code
	Component   string
	Operation   string
	Message     string
	Cause       error
	Recoverable bool
}

func (e *VistleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s/%s]: %s: %v", e.Code, e.Component, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s/%s]: %s", e.Code, e.Component, e.Operation, e.Message)
}

func (e *VistleError) Unwrap() error { return e.Cause }

// Category returns the error's category, derived from its code.
func (e *VistleError) Category() Category { return categoryOf[e.Code] }

// IsFatal reports whether the error's category is Fatal, meaning the
// process should abort after logging the diagnostic.
func (e *VistleError) IsFatal() bool { return e.Category() == Fatal }

// New constructs a VistleError. recoverable defaults to true for
// Storage/Format/Protocol codes and false for Fatal codes; callers may
// override it by setting the Recoverable field.
func New(code Code, component, operation, message string) *VistleError {
	return &VistleError{
		Code:        code,
		Component:   component,
		Operation:   operation,
		Message:     message,
		Recoverable: categoryOf[code] != Fatal,
	}
}

// Wrap attaches a cause to a new VistleError.
func Wrap(code Code, component, operation, message string, cause error) *VistleError {
	e := New(code, component, operation, message)
	e.Cause = cause
	return e
}

// Is supports errors.Is(err, verrors.Sentinel(verrors.OutOfSpace))-style
// matching: any *VistleError target with the same Code matches.
func (e *VistleError) Is(target error) bool {
	other, ok := target.(*VistleError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// Sentinel constructs a bare comparison target for use with errors.Is,
// e.g. errors.Is(err, verrors.Sentinel(verrors.NotFound)).
func Sentinel(code Code) *VistleError {
	return &VistleError{Code: code}
}
