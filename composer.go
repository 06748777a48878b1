package wasmcomposer

import (
	"context"

	"github.com/wippyai/wasm-composer/descriptor"
)

// Extractor produces a component descriptor from a file on disk.
//
// Implementations live in the extract package: a structural backend that
// parses binaries directly, an external-tool backend that shells out to
// wasm-tools, and a naming-convention fallback that never fails. The watcher
// holds exactly one Extractor at a time and may be reconfigured while running;
// the new backend takes effect on the next scan.
type Extractor interface {
	// Extract reads the file at path and returns its descriptor. Extraction
	// failures are per-file: callers skip the file and retry on a later pass.
	Extract(ctx context.Context, path string) (*descriptor.Component, error)

	// Name identifies the backend in logs and errors.
	Name() string
}
