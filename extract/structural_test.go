package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeBinary(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStructural_ExtractComponent(t *testing.T) {
	path := writeBinary(t, "demo.wasm", buildComponent())

	s := NewStructural()
	defer s.Close(context.Background())

	comp, err := s.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if comp.Name != "demo" {
		t.Errorf("Name = %q, want demo", comp.Name)
	}
	if comp.Path != path {
		t.Errorf("Path = %q, want %q", comp.Path, path)
	}

	imports := comp.Imports()
	if len(imports) != 2 {
		t.Fatalf("imports = %d, want 2", len(imports))
	}
	if imports[0].Name != "wasi:config/store" || imports[0].InterfaceType != "instance" {
		t.Errorf("import 0 = %+v", imports[0])
	}
	if imports[1].Name != "adas:sensors/camera@0.1.0" {
		t.Errorf("import 1 = %+v", imports[1])
	}
	if len(imports[1].Functions) != 1 || imports[1].Functions[0].Name != "camera" {
		t.Errorf("func import functions = %+v", imports[1].Functions)
	}

	exports := comp.Exports()
	if len(exports) != 2 {
		t.Fatalf("exports = %d, want 2", len(exports))
	}
	if exports[0].Name != "component:demo/handler" {
		t.Errorf("export 0 = %+v", exports[0])
	}
	if exports[1].Name != "exports" || len(exports[1].Functions) != 1 || exports[1].Functions[0].Name != "process" {
		t.Errorf("export 1 = %+v", exports[1])
	}

	if len(comp.Dependencies) != 1 || comp.Dependencies[0] != "wasi:config" {
		t.Errorf("Dependencies = %v", comp.Dependencies)
	}
}

func TestStructural_ExtractEmptyCoreModule(t *testing.T) {
	path := writeBinary(t, "empty_core.wasm", coreHeader)

	s := NewStructural()
	defer s.Close(context.Background())

	comp, err := s.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if comp.Name != "empty_core" {
		t.Errorf("Name = %q", comp.Name)
	}
	if len(comp.Interfaces) != 0 {
		t.Errorf("Interfaces = %+v, want none for an empty module", comp.Interfaces)
	}
}

func TestStructural_RejectsNonWasm(t *testing.T) {
	path := writeBinary(t, "notes.wasm", []byte("just text"))

	s := NewStructural()
	if _, err := s.Extract(context.Background(), path); err == nil {
		t.Error("expected error for non-wasm content")
	}
}

func TestStructural_MissingFile(t *testing.T) {
	s := NewStructural()
	if _, err := s.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.wasm")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestComponentName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/components/image-processor.wasm", "image-processor"},
		{"relative/data_source.wasm", "data_source"},
		{"bare.wasm", "bare"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := ComponentName(tt.path); got != tt.want {
			t.Errorf("ComponentName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestPackageOf(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"wasi:http/handler@0.2.0", "wasi:http"},
		{"wasi:config/store", "wasi:config"},
		{"plain/name", ""},
		{"no-slash", ""},
	}
	for _, tt := range tests {
		if got := packageOf(tt.name); got != tt.want {
			t.Errorf("packageOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"wasi:http/handler@0.2.0", "handler"},
		{"wasi:config/store", "store"},
		{"bare", "bare"},
		{"versioned@1.0.0", "versioned"},
	}
	for _, tt := range tests {
		if got := localName(tt.name); got != tt.want {
			t.Errorf("localName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestConvention_NeverFails(t *testing.T) {
	c := NewConvention()

	comp, err := c.Extract(context.Background(), "/nowhere/data_processor.wasm")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if comp.Name != "data_processor" {
		t.Errorf("Name = %q", comp.Name)
	}

	exports := comp.Exports()
	if len(exports) != 1 || exports[0].Name != "component:data-processor/handler" {
		t.Errorf("exports = %+v", exports)
	}
	if len(exports[0].Functions) != 1 || exports[0].Functions[0].Name != "process" {
		t.Errorf("export functions = %+v", exports[0].Functions)
	}

	imports := comp.Imports()
	if len(imports) != 1 || imports[0].Name != "wasi:config/store" {
		t.Errorf("imports = %+v", imports)
	}
}

func TestConvention_SynthesizedPortsConnect(t *testing.T) {
	c := NewConvention()

	producer, err := c.Extract(context.Background(), "producer.wasm")
	if err != nil {
		t.Fatal(err)
	}
	consumer, err := c.Extract(context.Background(), "consumer.wasm")
	if err != nil {
		t.Fatal(err)
	}

	// Any synthesized export can wire to any synthesized config import.
	if len(producer.Exports()) == 0 || len(consumer.Imports()) == 0 {
		t.Fatal("synthesized descriptors must carry both directions")
	}
	if producer.Exports()[0].Direction == consumer.Imports()[0].Direction {
		t.Error("synthesized directions should differ")
	}
}

func TestChain_FallsThrough(t *testing.T) {
	path := writeBinary(t, "fallback_target.wasm", []byte("not wasm at all"))

	// Structural rejects the content, convention accepts anything.
	chain := NewChain(NewStructural(), NewConvention())
	comp, err := chain.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if comp.Name != "fallback_target" {
		t.Errorf("Name = %q", comp.Name)
	}
}

func TestChain_FirstSuccessWins(t *testing.T) {
	path := writeBinary(t, "demo.wasm", buildComponent())

	chain := NewChain(NewStructural(), NewConvention())
	comp, err := chain.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// The structural descriptor names the real function import, which the
	// convention backend could not know about.
	var found bool
	for _, iface := range comp.Interfaces {
		if iface.Name == "adas:sensors/camera@0.1.0" {
			found = true
		}
	}
	if !found {
		t.Errorf("structural result expected, got %+v", comp.Interfaces)
	}
}

func TestChain_AllFail(t *testing.T) {
	path := writeBinary(t, "broken.wasm", []byte("nope"))

	chain := NewChain(NewStructural())
	if _, err := chain.Extract(context.Background(), path); err == nil {
		t.Error("expected error when every backend fails")
	}
}
