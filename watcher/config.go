package watcher

import (
	"time"

	"go.uber.org/zap"

	wasmcomposer "github.com/wippyai/wasm-composer"
	"github.com/wippyai/wasm-composer/extract"
)

const (
	// DefaultPollInterval is the recurring scan period when none is configured.
	DefaultPollInterval = 10 * time.Second

	// defaultDebounce is the quiet period after a native filesystem event
	// before an early scan is scheduled, so bursts of events (build output,
	// editor temp-file renames) coalesce into one pass.
	defaultDebounce = 500 * time.Millisecond
)

// defaultExtensions selects which files are treated as component binaries.
var defaultExtensions = []string{".wasm"}

// Config holds the parameters for a Watcher.
type Config struct {
	// Roots are the directories scanned for component binaries. At least
	// one root is required.
	Roots []string

	// Extensions filters listed files by extension (with leading dot).
	// Empty defaults to ".wasm".
	Extensions []string

	// PollInterval is the recurring scan period. Zero or negative values
	// fall back to DefaultPollInterval.
	PollInterval time.Duration

	// Debounce is the quiet period after a native filesystem event before
	// an early scan fires. Zero or negative values fall back to the default.
	Debounce time.Duration

	// Extractor is the descriptor extraction backend. Nil selects the
	// naming-convention fallback, which never fails but synthesizes
	// descriptors from file names alone.
	Extractor wasmcomposer.Extractor

	// DisableNativeEvents turns off the fsnotify fast path, leaving polling
	// as the only scan trigger. Diff semantics are identical either way.
	DisableNativeEvents bool

	// Logger overrides the package logger for this watcher instance.
	Logger *zap.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if len(out.Extensions) == 0 {
		out.Extensions = defaultExtensions
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.Debounce <= 0 {
		out.Debounce = defaultDebounce
	}
	if out.Extractor == nil {
		out.Extractor = extract.NewConvention()
	}
	if out.Logger == nil {
		out.Logger = Logger()
	}
	return out
}
