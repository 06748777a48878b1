package extract

import (
	"context"

	"go.uber.org/zap"

	wasmcomposer "github.com/wippyai/wasm-composer"
	"github.com/wippyai/wasm-composer/descriptor"
	cerrors "github.com/wippyai/wasm-composer/errors"
)

// Chain tries each backend in order and returns the first successful
// descriptor. Failures are logged and attached as the cause of the final
// error only when every backend fails.
type Chain struct {
	backends []wasmcomposer.Extractor
	log      *zap.Logger
}

// NewChain builds a chain over the given backends, tried in order.
func NewChain(backends ...wasmcomposer.Extractor) *Chain {
	return &Chain{backends: backends, log: Logger()}
}

// NewDefaultChain is the standard extraction ladder: the external wasm-tools
// backend for full interface fidelity, the structural decoder when the tool
// is unavailable, and the naming-convention fallback so extraction never
// leaves a binary undescribed.
func NewDefaultChain() *Chain {
	return NewChain(NewTool(DefaultToolBinary), NewStructural(), NewConvention())
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Extract(ctx context.Context, path string) (*descriptor.Component, error) {
	var lastErr error
	for _, b := range c.backends {
		comp, err := b.Extract(ctx, path)
		if err == nil {
			return comp, nil
		}
		lastErr = err
		c.log.Debug("backend failed, trying next",
			zap.String("backend", b.Name()),
			zap.String("path", path),
			zap.Error(err))
	}
	return nil, cerrors.ExtractionFailed(c.Name(), path, lastErr)
}
