package beforesend

import (
	"context"
	"sort"
	"sync"

	"github.com/hookline/beforesend/event"
)

// Diagnostic describes a single defect in a submitted routine.
// Line and Column are 1-based and populated only when the defect
// could be localized.
type Diagnostic struct {
	Line    *int   `json:"line,omitempty"`
	Column  *int   `json:"column,omitempty"`
	Message string `json:"message"`
}

// DiagnosticAt builds a Diagnostic, omitting position fields that are
// zero (unknown).
func DiagnosticAt(line, column int, message string) Diagnostic {
	d := Diagnostic{Message: message}
	if line > 0 {
		d.Line = &line
	}
	if column > 0 {
		d.Column = &column
	}
	return d
}

// OutcomeKind tags the result of one transform request. Exactly one
// kind is produced per request; Transformed and Dropped are both
// success outcomes, distinguished only by whether an event is present.
type OutcomeKind uint8

const (
	OutcomeTransformed OutcomeKind = iota
	OutcomeDropped
	OutcomeLoadFailure
	OutcomeInvocationFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeTransformed:
		return "transformed"
	case OutcomeDropped:
		return "dropped"
	case OutcomeLoadFailure:
		return "load_failure"
	case OutcomeInvocationFailure:
		return "invocation_failure"
	}
	return "unknown"
}

// Outcome is the terminal result of a transform request.
type Outcome struct {
	Kind OutcomeKind

	// Event is set only for OutcomeTransformed. It is the object graph
	// the routine produced, not a re-clone of it.
	Event event.Value

	// Diag is set only for OutcomeLoadFailure.
	Diag Diagnostic

	// Message and Trace are set only for OutcomeInvocationFailure.
	// Trace locates the failing construct inside the submitted source.
	Message string
	Trace   string
}

// Transformed wraps a successfully transformed event.
func Transformed(v event.Value) Outcome {
	return Outcome{Kind: OutcomeTransformed, Event: v}
}

// Dropped reports that the routine explicitly discarded the event.
func Dropped() Outcome {
	return Outcome{Kind: OutcomeDropped}
}

// LoadFailed reports that the submitted source did not yield an
// invokable routine.
func LoadFailed(d Diagnostic) Outcome {
	return Outcome{Kind: OutcomeLoadFailure, Diag: d}
}

// InvocationFailed reports that the routine loaded but raised while
// running.
func InvocationFailed(message, trace string) Outcome {
	return Outcome{Kind: OutcomeInvocationFailure, Message: message, Trace: trace}
}

// Engine materializes and runs transformation routines for one host
// grammar. Implementations must be safe for concurrent use: each
// Transform call owns its namespace and its clone of the event.
type Engine interface {
	// Name identifies the engine in the registry and in requests.
	Name() string

	// Validate performs a parse-only check of source. It executes
	// nothing, has no side effects, and is idempotent. An empty result
	// means the source is well-formed.
	Validate(source string) []Diagnostic

	// Transform clones ev, materializes the routine from source,
	// invokes it once against the clone, and classifies the result.
	// The caller's ev is never mutated.
	Transform(ctx context.Context, ev event.Value, source string) Outcome
}

var (
	regMu   sync.RWMutex
	engines = make(map[string]Engine)
)

// Register adds an engine to the process-wide registry, replacing any
// engine with the same name. Call during startup, before serving.
func Register(e Engine) {
	regMu.Lock()
	defer regMu.Unlock()
	engines[e.Name()] = e
}

// Lookup returns the registered engine with the given name.
func Lookup(name string) (Engine, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	e, ok := engines[name]
	return e, ok
}

// Names lists registered engine names in sorted order.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
