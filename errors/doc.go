// Package errors provides structured error types for the composer core.
//
// Errors carry a Phase (where in processing they occurred) and a Kind
// (what went wrong), so callers can match on taxonomy with errors.Is
// instead of string comparison. Convenience constructors cover the
// discovery and extraction failure modes.
package errors
