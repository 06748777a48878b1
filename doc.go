// Package wasmcomposer provides the core of a visual WebAssembly component
// composer: discovering component binaries on disk and deciding how well
// their WIT interfaces can be wired together.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wasmcomposer/        Root package with the Extractor interface
//	├── descriptor/      Immutable component/interface/function descriptors
//	├── watcher/         Polling discovery watcher with a known/missing registry
//	├── compat/          Pure interface compatibility scoring
//	├── extract/         Descriptor extraction backends (structural, external tool, convention)
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Watch a directory of components and react to changes:
//
//	w, err := watcher.New(watcher.Config{
//	    Roots:     []string{"./components"},
//	    Extractor: extract.NewStructural(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	w.AddChangeHandler(func(c watcher.Change) {
//	    fmt.Println(c.Type, c.Path)
//	})
//	w.Start(ctx)
//	defer w.Stop()
//
// Check whether two interfaces can be connected:
//
//	result := compat.Calculate(source, target)
//	if result.Valid {
//	    fmt.Println("score:", result.Score)
//	}
//
// # Concurrency
//
// The watcher owns its registry exclusively; queries return snapshots. Scans
// are serialized with a re-entrancy guard, so the registry is never mutated by
// two passes at once. The compat package is stateless and safe to call from
// any goroutine.
package wasmcomposer
