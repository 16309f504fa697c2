// Package beforesend provides a playground for beforeSend-style event
// transformation routines: submit a routine as source text together with
// a structured event, and get back the transformed event or a precise
// diagnostic describing why the routine could not run.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	beforesend/      Root package with the Engine contract, outcomes,
//	                 diagnostics, and the engine registry
//	├── event/       Recursive Value model (ordered objects, lossless
//	                 numbers), JSON codec, deep cloner
//	├── script/      Starlark engine: parse-only validation, per-request
//	                 routine loading, arity dispatch, re/json bindings
//	├── wasmexec/    WASI engine: routines submitted as wasm binaries
//	├── errors/      Structured phase/kind error types
//	├── server/      HTTP transport (gin) for /transform and /validate
//	├── config/      koanf-backed configuration
//	├── telemetry/   Prometheus collectors
//	└── samples/     Illustrative routine library
//
// # Quick Start
//
// Run a routine against an event in process:
//
//	eng := script.Default()
//	ev, _ := event.Decode([]byte(`{"message":"boom"}`))
//	out := eng.Transform(ctx, ev, src)
//	switch out.Kind {
//	case beforesend.OutcomeTransformed:
//	    fmt.Println(out.Event)
//	case beforesend.OutcomeDropped:
//	    fmt.Println("event dropped")
//	}
//
// # Execution Model
//
// Every transform request is self-contained: the event is cloned, the
// routine is materialized in a fresh namespace, invoked at most once,
// and discarded. Nothing is cached across requests, so two requests
// with identical source each re-materialize independently. The only
// process-wide state is the engine registry and the fixed utility
// bindings exposed to routines, both immutable after startup.
//
// # Trust Model
//
// Submitted routines run with the capabilities of the host process.
// The fixed utility bindings are a documented capability surface, not
// a sandbox, and there is no inherent time or memory bound; the script
// engine's opt-in step budget is the only built-in limit. Deployments
// that accept untrusted routines must bound execution externally.
package beforesend
