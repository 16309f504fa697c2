package script

import (
	"context"

	"go.starlark.net/starlark"

	"github.com/hookline/beforesend"
	"github.com/hookline/beforesend/event"
)

// invoke calls the routine once against ev using its fixed convention
// and classifies the result. ev is already the request's private
// clone.
func (e *Engine) invoke(ctx context.Context, r *routine, ev event.Value) beforesend.Outcome {
	arg, err := toStarlark(ev)
	if err != nil {
		return beforesend.InvocationFailed("event outside value grammar: "+err.Error(), "")
	}

	thread := &starlark.Thread{Name: "invoke"}
	if e.opts.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(e.opts.MaxSteps)
	}
	if ctx != nil && ctx.Done() != nil {
		stop := watchContext(ctx, thread)
		defer stop()
	}

	var args starlark.Tuple
	switch r.conv {
	case singleArg:
		args = starlark.Tuple{arg}
	default:
		args = starlark.Tuple{arg, starlark.NewDict(0)}
	}

	result, err := starlark.Call(thread, r.fn, args, nil)
	if err != nil {
		msg, trace := evalFailure(err)
		return beforesend.InvocationFailed(msg, trace)
	}

	if result == starlark.None {
		return beforesend.Dropped()
	}
	out, cerr := fromStarlark(result)
	if cerr != nil {
		return beforesend.InvocationFailed("routine returned unsupported value: "+cerr.Error(), "")
	}
	if out.IsNull() {
		return beforesend.Dropped()
	}
	return beforesend.Transformed(out)
}

// watchContext cancels the thread when ctx expires. The returned stop
// function must be called when the invocation finishes.
func watchContext(ctx context.Context, thread *starlark.Thread) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()
	return func() { close(done) }
}

// evalFailure extracts a message and a backtrace that locates the
// failing construct inside the submitted source.
func evalFailure(err error) (msg, trace string) {
	if evalErr, ok := err.(*starlark.EvalError); ok {
		return evalErr.Msg, evalErr.Backtrace()
	}
	// Argument-binding failures and cancellations arrive as plain
	// errors; the message is the only trace available.
	return err.Error(), err.Error()
}
