package status

import (
	"errors"
	"fmt"
)

// Error is a failed API call.
type Error struct {
	// Kind is the resolved taxonomy kind. Unknown codes raised in strict
	// mode use Generic.
	Kind *Kind

	// Code is the raw status code. It equals the kind's code for resolved
	// errors and is the remote value for unknown ones.
	Code int32

	// Message is the human readable text, the kind's default unless
	// overridden.
	Message string

	// Op is the API entry point that failed, e.g. "T32_Cmd".
	Op string

	// Local marks errors detected before any remote call was issued.
	Local bool
}

func (e *Error) Error() string {
	prefix := ""
	if e.Op != "" {
		prefix = e.Op + ": "
	}
	if e.Local {
		return fmt.Sprintf("%s%s", prefix, e.Message)
	}
	return fmt.Sprintf("%s%s (code %s)", prefix, e.Message, FormatCode(e.Code))
}

// Is matches a *Kind target against the error's kind and its ancestors, and
// an *Error target by kind and code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case *Kind:
		return e.Kind != nil && e.Kind.Within(t)
	case *Error:
		return e.Kind == t.Kind && e.Code == t.Code
	}
	return false
}

// WithMessage returns a copy of the error with a different message. The
// code and kind are unchanged.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Invalid builds a local argument error. It never correlates to a code
// returned by the remote side.
func Invalid(op, format string, args ...any) *Error {
	return ClientParameterFail.Local(op, format, args...)
}

// Unknown builds an error for a nonzero code that matches no kind.
func Unknown(op string, code int32) *Error {
	return &Error{
		Kind:    Generic,
		Code:    code,
		Message: "unknown status",
		Op:      op,
	}
}

// CodeOf returns the raw code carried by err, if err wraps an *Error.
func CodeOf(err error) (int32, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// KindOf returns the kind carried by err, or nil.
func KindOf(err error) *Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return nil
}
