package script

import (
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/hookline/beforesend/errors"
)

// convention is the calling convention of a loaded routine, fixed once
// at load time from the declared parameter count and never
// re-inspected.
type convention uint8

const (
	// dualArg passes (event, hint). The hint is an empty mapping.
	// This is the convention for everything except exactly one
	// declared parameter, including zero-parameter callables, which
	// then raise at invocation time the way they would in the source
	// language.
	dualArg convention = iota

	// singleArg passes only the event (sampling-style routines).
	singleArg
)

// routine is a materialized, at-most-once-invokable transformation.
type routine struct {
	fn   starlark.Callable
	conv convention
}

// load executes the submitted text's definitions in a fresh namespace
// and extracts the routine to invoke. It never invokes it.
func (e *Engine) load(source string) (*routine, *errors.Error) {
	// Parse first: the AST supplies the top-level binding order that
	// the legacy discovery contract depends on.
	file, err := e.fileOpts.Parse(sourceName, source, 0)
	if err != nil {
		return nil, syntaxError(errors.PhaseLoad, err)
	}
	order := bindingOrder(file)

	thread := &starlark.Thread{Name: "load"}
	globals, err := starlark.ExecFileOptions(e.fileOpts, thread, sourceName, source, e.predeclared)
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindSyntax, err, evalErr.Msg)
		}
		return nil, syntaxError(errors.PhaseLoad, err)
	}

	fn := e.selectCallable(order, globals)
	if fn == nil {
		return nil, errors.NoCallable()
	}
	return &routine{fn: fn, conv: conventionOf(fn)}, nil
}

// selectCallable picks the routine from the namespace's newly
// introduced bindings. The documented entry-point name wins; the
// first callable in definition order is the legacy fallback.
func (e *Engine) selectCallable(order []string, globals starlark.StringDict) starlark.Callable {
	if v, ok := globals[e.opts.EntryPoint]; ok {
		if fn, ok := v.(starlark.Callable); ok {
			return fn
		}
	}
	if !e.opts.FirstCallableFallback {
		return nil
	}
	for _, name := range order {
		if strings.HasPrefix(name, "__") {
			continue
		}
		if fn, ok := globals[name].(starlark.Callable); ok {
			return fn
		}
	}
	return nil
}

// conventionOf inspects the callable's declared parameter count once.
// Exactly one parameter selects the single-argument convention;
// anything else, including builtins whose arity is opaque, selects
// event+hint.
func conventionOf(fn starlark.Callable) convention {
	f, ok := fn.(*starlark.Function)
	if !ok {
		return dualArg
	}
	if f.NumParams() == 1 && !f.HasVarargs() && !f.HasKwargs() {
		return singleArg
	}
	return dualArg
}

// bindingOrder lists the names bound by top-level statements in the
// order they first appear.
func bindingOrder(file *syntax.File) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name != "" && name != "_" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, stmt := range file.Stmts {
		switch s := stmt.(type) {
		case *syntax.DefStmt:
			add(s.Name.Name)
		case *syntax.AssignStmt:
			if s.Op == syntax.EQ {
				addTargets(s.LHS, add)
			}
		}
	}
	return names
}

func addTargets(expr syntax.Expr, add func(string)) {
	switch x := expr.(type) {
	case *syntax.Ident:
		add(x.Name)
	case *syntax.TupleExpr:
		for _, elem := range x.List {
			addTargets(elem, add)
		}
	case *syntax.ListExpr:
		for _, elem := range x.List {
			addTargets(elem, add)
		}
	case *syntax.ParenExpr:
		addTargets(x.X, add)
	}
}
