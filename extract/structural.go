package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-composer/descriptor"
	cerrors "github.com/wippyai/wasm-composer/errors"
)

// Structural extracts descriptors by parsing binaries directly, with no
// external tooling. Component binaries are walked section by section for
// their instance imports and exports; core modules are compiled with wazero
// (interpreter config, nothing is executed) to read function signatures.
type Structural struct {
	mu sync.Mutex
	rt wazero.Runtime
}

// NewStructural creates the structural extraction backend.
func NewStructural() *Structural {
	return &Structural{}
}

// Name identifies the backend in logs and errors.
func (s *Structural) Name() string { return "structural" }

// Close releases the wazero runtime, if one was created.
func (s *Structural) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rt == nil {
		return nil
	}
	err := s.rt.Close(ctx)
	s.rt = nil
	return err
}

// Extract reads the binary at path and builds its descriptor.
func (s *Structural) Extract(ctx context.Context, path string) (*descriptor.Component, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.ExtractionFailed(s.Name(), path, err)
	}

	name := ComponentName(path)

	switch {
	case IsComponent(data):
		comp, err := s.extractComponent(name, path, data)
		if err != nil {
			return nil, cerrors.ExtractionFailed(s.Name(), path, err)
		}
		return comp, nil

	case IsCoreModule(data):
		comp, err := s.extractCoreModule(ctx, name, path, data)
		if err != nil {
			return nil, cerrors.ExtractionFailed(s.Name(), path, err)
		}
		return comp, nil

	default:
		return nil, cerrors.ExtractionFailed(s.Name(), path,
			fmt.Errorf("not a WebAssembly binary"))
	}
}

func (s *Structural) extractComponent(name, path string, data []byte) (*descriptor.Component, error) {
	outline, err := decodeOutline(data)
	if err != nil {
		return nil, err
	}

	comp := &descriptor.Component{
		Name:        name,
		Path:        path,
		Description: fmt.Sprintf("WebAssembly component: %s", name),
	}

	for _, imp := range outline.Imports {
		switch imp.ExternKind {
		case externInstance:
			comp.Interfaces = append(comp.Interfaces, descriptor.Interface{
				Name:          imp.Name,
				Direction:     descriptor.Import,
				InterfaceType: "instance",
			})
			if pkg := packageOf(imp.Name); pkg != "" {
				comp.Dependencies = appendUnique(comp.Dependencies, pkg)
			}
		case externFunc:
			comp.Interfaces = append(comp.Interfaces, descriptor.Interface{
				Name:          imp.Name,
				Direction:     descriptor.Import,
				InterfaceType: "func",
				Functions: []descriptor.Function{
					{Name: localName(imp.Name)},
				},
			})
		}
	}

	var exportFuncs []descriptor.Function
	for _, exp := range outline.Exports {
		switch exp.Sort {
		case sortInstance:
			comp.Interfaces = append(comp.Interfaces, descriptor.Interface{
				Name:          exp.Name,
				Direction:     descriptor.Export,
				InterfaceType: "instance",
			})
		case sortFunc:
			exportFuncs = append(exportFuncs, descriptor.Function{Name: exp.Name})
		}
	}
	if len(exportFuncs) > 0 {
		comp.Interfaces = append(comp.Interfaces, descriptor.Interface{
			Name:          "exports",
			Direction:     descriptor.Export,
			InterfaceType: "func",
			Functions:     exportFuncs,
		})
	}

	Logger().Debug("structural extraction",
		zap.String("path", path),
		zap.Int("interfaces", len(comp.Interfaces)),
		zap.Int("custom_sections", len(outline.CustomSections)))

	return comp, nil
}

func (s *Structural) extractCoreModule(ctx context.Context, name, path string, data []byte) (*descriptor.Component, error) {
	rt, err := s.runtime(ctx)
	if err != nil {
		return nil, err
	}

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("compile core module: %w", err)
	}
	defer compiled.Close(ctx)

	comp := &descriptor.Component{
		Name:        name,
		Path:        path,
		Description: fmt.Sprintf("Core WebAssembly module: %s", name),
	}

	// Imports grouped by module name, one interface per module.
	byModule := make(map[string][]descriptor.Function)
	var moduleOrder []string
	for _, def := range compiled.ImportedFunctions() {
		module, fname, ok := def.Import()
		if !ok {
			continue
		}
		if _, seen := byModule[module]; !seen {
			moduleOrder = append(moduleOrder, module)
		}
		byModule[module] = append(byModule[module], functionFromDefinition(fname, def))
	}
	for _, module := range moduleOrder {
		comp.Interfaces = append(comp.Interfaces, descriptor.Interface{
			Name:          module,
			Direction:     descriptor.Import,
			InterfaceType: "core",
			Functions:     byModule[module],
		})
		comp.Dependencies = appendUnique(comp.Dependencies, module)
	}

	// ExportedFunctions returns a map; sort names so descriptors are stable.
	exported := compiled.ExportedFunctions()
	names := make([]string, 0, len(exported))
	for n := range exported {
		names = append(names, n)
	}
	sort.Strings(names)

	var exportFuncs []descriptor.Function
	for _, n := range names {
		exportFuncs = append(exportFuncs, functionFromDefinition(n, exported[n]))
	}
	if len(exportFuncs) > 0 {
		comp.Interfaces = append(comp.Interfaces, descriptor.Interface{
			Name:          "exports",
			Direction:     descriptor.Export,
			InterfaceType: "core",
			Functions:     exportFuncs,
		})
	}

	return comp, nil
}

func (s *Structural) runtime(ctx context.Context) (wazero.Runtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rt == nil {
		// Interpreter config: modules are only compiled for metadata, never run.
		s.rt = wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	}
	return s.rt, nil
}

func functionFromDefinition(name string, def api.FunctionDefinition) descriptor.Function {
	fn := descriptor.Function{Name: name}
	fn.Params = typedParams(def.ParamTypes(), def.ParamNames(), "arg")
	fn.Results = typedParams(def.ResultTypes(), def.ResultNames(), "ret")
	return fn
}

func typedParams(types []api.ValueType, names []string, fallback string) []descriptor.Param {
	out := make([]descriptor.Param, 0, len(types))
	for i, t := range types {
		name := fmt.Sprintf("%s%d", fallback, i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		out = append(out, descriptor.Param{Name: name, Type: api.ValueTypeName(t)})
	}
	return out
}

// ComponentName derives the component name from a file path: the base name
// with its extension stripped.
func ComponentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// packageOf returns the "namespace:package" qualifier of a WIT-style name
// such as "wasi:http/handler@0.2.0", or "" when the name has none.
func packageOf(name string) string {
	slash := strings.IndexByte(name, '/')
	if slash < 0 || !strings.Contains(name[:slash], ":") {
		return ""
	}
	return name[:slash]
}

// localName returns the part of a WIT-style name after the last '/',
// with any trailing version stripped.
func localName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return name
}

func appendUnique(list []string, v string) []string {
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}
