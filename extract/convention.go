package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/wippyai/wasm-composer/descriptor"
)

// Convention synthesizes a plausible descriptor from the file name alone.
// It never fails and never touches the file contents, so it is the backend
// of last resort when no real extraction tooling is wired up yet. The
// synthesized ports let the palette render something connectable.
type Convention struct{}

// NewConvention creates the naming-convention fallback backend.
func NewConvention() *Convention {
	return &Convention{}
}

// Name identifies the backend in logs and errors.
func (c *Convention) Name() string { return "convention" }

// Extract builds a descriptor from the base name of path.
func (c *Convention) Extract(_ context.Context, path string) (*descriptor.Component, error) {
	name := ComponentName(path)
	normalized := strings.ReplaceAll(name, "_", "-")

	return &descriptor.Component{
		Name:        name,
		Path:        path,
		Description: fmt.Sprintf("Component: %s (no extraction backend, synthesized from file name)", name),
		Interfaces: []descriptor.Interface{
			{
				Name:          fmt.Sprintf("component:%s/handler", normalized),
				Direction:     descriptor.Export,
				InterfaceType: "export",
				Functions: []descriptor.Function{
					{
						Name:    "process",
						Params:  []descriptor.Param{{Name: "input", Type: "input-data"}},
						Results: []descriptor.Param{{Name: "output", Type: "output-data"}},
					},
				},
			},
			{
				Name:          "wasi:config/store",
				Direction:     descriptor.Import,
				InterfaceType: "import",
				Functions: []descriptor.Function{
					{
						Name:    "get",
						Params:  []descriptor.Param{{Name: "key", Type: "string"}},
						Results: []descriptor.Param{{Name: "value", Type: "option<string>"}},
					},
				},
			},
		},
		Dependencies: []string{"wasi:config"},
	}, nil
}
