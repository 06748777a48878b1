package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-composer/descriptor"
	cerrors "github.com/wippyai/wasm-composer/errors"
)

// DefaultToolBinary is the wasm-tools binary looked up on PATH when no
// explicit path is configured.
const DefaultToolBinary = "wasm-tools"

// Tool extracts descriptors by shelling out to wasm-tools and decoding the
// JSON form of the component's WIT. This is the highest-fidelity backend:
// it sees resolved interfaces with full function signatures.
type Tool struct {
	binary string
}

// NewTool creates the external-tool backend. An empty binary path selects
// DefaultToolBinary from PATH.
func NewTool(binary string) *Tool {
	if binary == "" {
		binary = DefaultToolBinary
	}
	return &Tool{binary: binary}
}

// Name identifies the backend in logs and errors.
func (t *Tool) Name() string { return "wasm-tools" }

// Extract runs `wasm-tools component wit --json` on path and maps the decoded
// WIT resolve onto a descriptor.
func (t *Tool) Extract(ctx context.Context, path string) (*descriptor.Component, error) {
	bin, err := exec.LookPath(t.binary)
	if err != nil {
		return nil, cerrors.BackendUnavailable(t.Name(),
			fmt.Sprintf("%s not found on PATH", t.binary))
	}

	cmd := exec.CommandContext(ctx, bin, "component", "wit", "--json", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		Logger().Debug("wasm-tools failed",
			zap.String("path", path),
			zap.String("stderr", stderr.String()))
		return nil, cerrors.ExtractionFailed(t.Name(), path,
			fmt.Errorf("%s: %w", firstLine(stderr.String()), err))
	}

	resolve, err := wit.DecodeJSON(&stdout)
	if err != nil {
		return nil, cerrors.ExtractionFailed(t.Name(), path,
			fmt.Errorf("decode wit json: %w", err))
	}

	comp := t.componentFromResolve(ComponentName(path), path, resolve)
	return comp, nil
}

func (t *Tool) componentFromResolve(name, path string, resolve *wit.Resolve) *descriptor.Component {
	comp := &descriptor.Component{
		Name:        name,
		Path:        path,
		Description: fmt.Sprintf("WebAssembly component: %s", name),
	}

	for _, world := range resolve.Worlds {
		if world == nil {
			continue
		}
		for key, item := range world.Imports.All() {
			if iface, ok := t.interfaceFromItem(key, item, descriptor.Import); ok {
				comp.Interfaces = append(comp.Interfaces, iface)
				if pkg := packageOf(key); pkg != "" {
					comp.Dependencies = appendUnique(comp.Dependencies, pkg)
				}
			}
		}
		for key, item := range world.Exports.All() {
			if iface, ok := t.interfaceFromItem(key, item, descriptor.Export); ok {
				comp.Interfaces = append(comp.Interfaces, iface)
			}
		}
	}

	return comp
}

func (t *Tool) interfaceFromItem(key string, item wit.WorldItem, dir descriptor.Direction) (descriptor.Interface, bool) {
	out := descriptor.Interface{
		Name:          key,
		Direction:     dir,
		InterfaceType: dir.String(),
	}

	switch v := item.(type) {
	case *wit.InterfaceRef:
		if v.Interface == nil {
			return out, true
		}
		for fname, fn := range v.Interface.Functions.All() {
			if fn == nil {
				continue
			}
			out.Functions = append(out.Functions, functionFromWit(fname, fn))
		}
		return out, true

	case *wit.Function:
		// Freestanding world-level function import/export.
		out.Functions = append(out.Functions, functionFromWit(key, v))
		return out, true

	default:
		// Type imports carry no functions and are not palette ports.
		return descriptor.Interface{}, false
	}
}

func functionFromWit(name string, fn *wit.Function) descriptor.Function {
	out := descriptor.Function{Name: name}
	for _, p := range fn.Params {
		out.Params = append(out.Params, descriptor.Param{
			Name: p.Name,
			Type: witTypeString(p.Type),
		})
	}
	for _, r := range fn.Results {
		out.Results = append(out.Results, descriptor.Param{
			Name: r.Name,
			Type: witTypeString(r.Type),
		})
	}
	return out
}

// witTypeString renders a wit.Type as its WIT keyword, or the typedef name
// for named types.
func witTypeString(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
