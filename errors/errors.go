package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the request pipeline the error occurred.
type Phase string

const (
	PhaseValidate Phase = "validate" // parse-only syntax checking
	PhaseLoad     Phase = "load"     // materializing the routine
	PhaseInvoke   Phase = "invoke"   // running the routine
	PhaseRequest  Phase = "request"  // boundary input handling
	PhaseHost     Phase = "host"     // the playground's own logic
)

// Kind categorizes the error.
type Kind string

const (
	KindSyntax       Kind = "syntax"        // source text is not well-formed
	KindNoCallable   Kind = "no_callable"   // definitions yielded nothing invokable
	KindRaised       Kind = "raised"        // routine raised during its run
	KindBadValue     Kind = "bad_value"     // value outside the Value grammar
	KindMissingInput Kind = "missing_input" // required request field absent
	KindCanceled     Kind = "canceled"      // execution budget or context expired
	KindInternal     Kind = "internal"      // unanticipated host failure
)

// Error is the structured error type used throughout the playground.
type Error struct {
	Phase  Phase
	Kind   Kind
	Detail string
	Cause  error

	// Line and Col locate a defect in the submitted source, 1-based.
	// Zero means the position is unknown.
	Line int
	Col  int

	// Trace is a formatted backtrace pointing into the submitted
	// source. Populated for invocation failures.
	Trace string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Line > 0 {
		fmt.Fprintf(&b, " at %d", e.Line)
		if e.Col > 0 {
			fmt.Fprintf(&b, ":%d", e.Col)
		}
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for the failure classes of the pipeline.

// Syntax reports source text that is not well-formed. line and col may
// be zero when the defect cannot be localized.
func Syntax(phase Phase, line, col int, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSyntax,
		Line:   line,
		Col:    col,
		Detail: detail,
	}
}

// NoCallable reports that the submitted definitions introduced no
// usable routine.
func NoCallable() *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNoCallable,
		Detail: "no callable transformation found",
	}
}

// Raised reports that the routine raised while running. trace points
// into the submitted source.
func Raised(detail, trace string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindRaised,
		Detail: detail,
		Trace:  trace,
	}
}

// BadValue reports a value that falls outside the Value grammar.
func BadValue(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadValue,
		Detail: detail,
	}
}

// MissingInput reports an absent request field.
func MissingInput(detail string) *Error {
	return &Error{
		Phase:  PhaseRequest,
		Kind:   KindMissingInput,
		Detail: detail,
	}
}

// Canceled reports an exhausted execution budget or canceled context.
func Canceled(detail string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindCanceled,
		Detail: detail,
	}
}

// Internal reports an unanticipated failure in the playground itself.
func Internal(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindInternal,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with phase and kind context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
