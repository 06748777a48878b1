// Package descriptor defines the immutable value types describing discovered
// WebAssembly components and their WIT interfaces.
//
// Descriptors are created by an extraction backend and never mutated in place;
// when a file changes, the watcher replaces the whole Component. Direction is
// a tagged variant fixed at the extraction boundary, so downstream code never
// probes raw type tags.
package descriptor
