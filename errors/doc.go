// Package errors defines the structured error type used across the
// playground. Every failure carries the Phase where it occurred and a
// Kind categorizing it, so the transport layer can map errors onto
// status classes without string matching: request and load phases are
// client faults, invoke is a server-class fault by contract, and host
// covers anything unanticipated in the playground's own logic.
package errors
