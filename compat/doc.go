// Package compat decides whether two WIT interfaces can be wired together
// and how good the match is.
//
// All functions are pure: no I/O, no state, safe to call concurrently. The
// additive point values and thresholds are heuristics the editor's saved
// diagrams depend on; they are named constants, not derived quantities, and
// must not drift.
package compat
