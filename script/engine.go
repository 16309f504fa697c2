package script

import (
	"context"

	starlarkjson "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.uber.org/zap"

	"github.com/hookline/beforesend"
	"github.com/hookline/beforesend/errors"
	"github.com/hookline/beforesend/event"
)

// sourceName is the filename under which submitted routines are parsed
// and executed. Backtraces refer to it.
const sourceName = "routine.star"

// DefaultEntryPoint is the documented entry-point binding name.
const DefaultEntryPoint = "before_send"

// Options configures an Engine.
type Options struct {
	// EntryPoint is the preferred binding name for the routine.
	// Defaults to DefaultEntryPoint.
	EntryPoint string

	// FirstCallableFallback enables the legacy discovery contract:
	// when no binding matches EntryPoint, the first callable defined
	// at top level (skipping names starting with "__") is used. If a
	// snippet defines two callables, the one defined first wins,
	// silently.
	FirstCallableFallback bool

	// MaxSteps bounds the Starlark computation steps of one
	// invocation. 0 means unbounded, which is the reference behavior:
	// a routine that loops forever blocks its request.
	MaxSteps uint64

	Logger *zap.Logger
}

// Engine loads and runs Starlark routines. Safe for concurrent use:
// all per-request state lives in the request's own thread and
// namespace.
type Engine struct {
	opts        Options
	fileOpts    *syntax.FileOptions
	predeclared starlark.StringDict
	log         *zap.Logger
}

// New creates an Engine with the given options.
func New(opts Options) *Engine {
	if opts.EntryPoint == "" {
		opts.EntryPoint = DefaultEntryPoint
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		opts: opts,
		fileOpts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
		predeclared: starlark.StringDict{
			"re":   reModule(),
			"json": starlarkjson.Module,
		},
		log: opts.Logger,
	}
}

// Default creates an Engine with the reference behavior: before_send
// entry point, first-callable fallback enabled, no step budget.
func Default() *Engine {
	return New(Options{FirstCallableFallback: true})
}

// Name implements beforesend.Engine.
func (e *Engine) Name() string { return "starlark" }

// Validate performs a parse-only check of source. It never executes
// top-level statements and has no side effects.
func (e *Engine) Validate(source string) []beforesend.Diagnostic {
	if _, err := e.fileOpts.Parse(sourceName, source, 0); err != nil {
		serr := syntaxError(errors.PhaseValidate, err)
		return []beforesend.Diagnostic{beforesend.DiagnosticAt(serr.Line, serr.Col, serr.Detail)}
	}
	return nil
}

// Transform implements beforesend.Engine. The pipeline per request is
// clone, load, invoke, classify; every failure is terminal.
func (e *Engine) Transform(ctx context.Context, ev event.Value, source string) beforesend.Outcome {
	clone := event.Clone(ev)

	r, lerr := e.load(source)
	if lerr != nil {
		e.log.Debug("routine load failed", zap.String("error", lerr.Error()))
		return beforesend.LoadFailed(beforesend.DiagnosticAt(lerr.Line, lerr.Col, lerr.Detail))
	}

	return e.invoke(ctx, r, clone)
}

// syntaxError normalizes a parse failure into a structured error with
// best-effort position. Non-localizable defects keep zero positions.
func syntaxError(phase errors.Phase, err error) *errors.Error {
	switch serr := err.(type) {
	case syntax.Error:
		return errors.Syntax(phase, int(serr.Pos.Line), int(serr.Pos.Col), serr.Msg)
	case *syntax.Error:
		return errors.Syntax(phase, int(serr.Pos.Line), int(serr.Pos.Col), serr.Msg)
	default:
		return errors.Syntax(phase, 0, 0, err.Error())
	}
}
