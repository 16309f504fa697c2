// Package wasmexec implements the WebAssembly transformation engine.
//
// Routines are WASI command modules submitted as a base64-encoded
// binary (raw bytes beginning with the wasm magic are also accepted).
// The contract mirrors the script engine at the process boundary: the
// event arrives as JSON on stdin, the transformed event leaves as JSON
// on stdout, and the literal null (or no output) drops the event.
// Stderr is captured as the failure trace. A binary that does not
// compile is a load failure; a trap or non-zero exit is an invocation
// failure.
package wasmexec

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/hookline/beforesend"
	"github.com/hookline/beforesend/event"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// Engine runs wasm routines. Each Transform call instantiates its own
// wazero runtime, so concurrent requests share nothing.
type Engine struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Name implements beforesend.Engine.
func (e *Engine) Name() string { return "wasm" }

// Validate checks that source decodes to a compilable wasm module.
// Binary formats have no usable line/column, so diagnostics carry only
// a message.
func (e *Engine) Validate(source string) []beforesend.Diagnostic {
	blob, err := decodeSource(source)
	if err != nil {
		return []beforesend.Diagnostic{beforesend.DiagnosticAt(0, 0, err.Error())}
	}

	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	if _, err := r.CompileModule(ctx, blob); err != nil {
		return []beforesend.Diagnostic{beforesend.DiagnosticAt(0, 0, "compile wasm routine: "+err.Error())}
	}
	return nil
}

// Transform implements beforesend.Engine.
func (e *Engine) Transform(ctx context.Context, ev event.Value, source string) beforesend.Outcome {
	clone := event.Clone(ev)
	payload, err := event.Encode(clone)
	if err != nil {
		return beforesend.InvocationFailed("encode event: "+err.Error(), "")
	}

	blob, err := decodeSource(source)
	if err != nil {
		return beforesend.LoadFailed(beforesend.DiagnosticAt(0, 0, err.Error()))
	}

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	defer r.Close(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	compiled, err := r.CompileModule(ctx, blob)
	if err != nil {
		return beforesend.LoadFailed(beforesend.DiagnosticAt(0, 0, "compile wasm routine: "+err.Error()))
	}

	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName("routine").
		WithArgs("routine").
		WithStdin(bytes.NewReader(payload)).
		WithStdout(&stdout).
		WithStderr(&stderr)

	mod, err := r.InstantiateModule(ctx, compiled, cfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	if err != nil {
		if exitErr, ok := err.(*sys.ExitError); !ok || exitErr.ExitCode() != 0 {
			return beforesend.InvocationFailed(err.Error(), trace(&stderr, err))
		}
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" || output == "null" {
		return beforesend.Dropped()
	}
	out, err := event.Decode([]byte(output))
	if err != nil {
		return beforesend.InvocationFailed("routine wrote invalid JSON: "+err.Error(), trace(&stderr, err))
	}
	return beforesend.Transformed(out)
}

// trace prefers the routine's own stderr; the host error is the
// fallback so the trace is never empty.
func trace(stderr *bytes.Buffer, err error) string {
	if s := strings.TrimSpace(stderr.String()); s != "" {
		return s
	}
	return err.Error()
}

// decodeSource accepts a base64-encoded module or raw binary bytes.
func decodeSource(source string) ([]byte, error) {
	if raw := []byte(source); bytes.HasPrefix(raw, wasmMagic) {
		return raw, nil
	}
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, source)
	blob, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, &decodeError{cause: err}
	}
	return blob, nil
}

type decodeError struct {
	cause error
}

func (e *decodeError) Error() string {
	return "decode wasm routine: expected a base64-encoded module: " + e.cause.Error()
}

func (e *decodeError) Unwrap() error { return e.cause }
