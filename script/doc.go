// Package script implements the Starlark transformation engine.
//
// Submitted routines are Python-shaped functions executed in the
// Starlark dialect with permissive options (while loops, recursion,
// top-level control flow). Each request parses and executes the
// routine's definitions in a fresh namespace pre-populated only with
// the fixed utility bindings re and json, selects the entry point,
// fixes its calling convention from the declared parameter count, and
// invokes it once against a clone of the event.
//
// The utility bindings are a documented capability surface, not a
// sandbox; see the root package's trust model.
package script
