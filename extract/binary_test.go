package extract

import (
	"bytes"
	"testing"
)

func leb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func section(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, leb(uint32(len(payload)))...)
	return append(out, payload...)
}

func name(s string) []byte {
	out := leb(uint32(len(s)))
	return append(out, s...)
}

var componentHeader = []byte{0x00, 0x61, 0x73, 0x6D, 0x0D, 0x00, 0x01, 0x00}
var coreHeader = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// buildComponent assembles a minimal component binary: two imports (an
// instance and a bare function), two exports (an instance and a function),
// and one custom section.
func buildComponent() []byte {
	var imports []byte
	imports = append(imports, leb(2)...)
	imports = append(imports, 0x00)
	imports = append(imports, name("wasi:config/store")...)
	imports = append(imports, externInstance)
	imports = append(imports, leb(0)...)
	imports = append(imports, 0x00)
	imports = append(imports, name("adas:sensors/camera@0.1.0")...)
	imports = append(imports, externFunc)
	imports = append(imports, leb(0)...)

	var exports []byte
	exports = append(exports, leb(2)...)
	exports = append(exports, 0x00)
	exports = append(exports, name("component:demo/handler")...)
	exports = append(exports, sortInstance)
	exports = append(exports, leb(0)...)
	exports = append(exports, 0x00)
	exports = append(exports, name("process")...)
	exports = append(exports, sortFunc)
	exports = append(exports, leb(0)...)

	var custom []byte
	custom = append(custom, name("producers")...)
	custom = append(custom, []byte{0xDE, 0xAD}...)

	data := append([]byte(nil), componentHeader...)
	data = append(data, section(0, custom)...)
	data = append(data, section(10, imports)...)
	data = append(data, section(11, exports)...)
	return data
}

func TestIsComponent(t *testing.T) {
	if !IsComponent(buildComponent()) {
		t.Error("component header not recognized")
	}
	if IsComponent(coreHeader) {
		t.Error("core module mistaken for component")
	}
	if IsComponent([]byte{0x00, 0x61, 0x73}) {
		t.Error("truncated header accepted")
	}
	if IsComponent([]byte{0xFF, 0x61, 0x73, 0x6D, 0x0D, 0x00, 0x01, 0x00}) {
		t.Error("bad magic accepted")
	}
}

func TestIsCoreModule(t *testing.T) {
	if !IsCoreModule(coreHeader) {
		t.Error("core header not recognized")
	}
	if IsCoreModule(componentHeader) {
		t.Error("component mistaken for core module")
	}
}

func TestDecodeOutline(t *testing.T) {
	outline, err := decodeOutline(buildComponent())
	if err != nil {
		t.Fatalf("decodeOutline: %v", err)
	}

	if len(outline.Imports) != 2 {
		t.Fatalf("imports = %d, want 2", len(outline.Imports))
	}
	if outline.Imports[0].Name != "wasi:config/store" || outline.Imports[0].ExternKind != externInstance {
		t.Errorf("import 0 = %+v", outline.Imports[0])
	}
	if outline.Imports[1].Name != "adas:sensors/camera@0.1.0" || outline.Imports[1].ExternKind != externFunc {
		t.Errorf("import 1 = %+v", outline.Imports[1])
	}

	if len(outline.Exports) != 2 {
		t.Fatalf("exports = %d, want 2", len(outline.Exports))
	}
	if outline.Exports[0].Name != "component:demo/handler" || outline.Exports[0].Sort != sortInstance {
		t.Errorf("export 0 = %+v", outline.Exports[0])
	}
	if outline.Exports[1].Name != "process" || outline.Exports[1].Sort != sortFunc {
		t.Errorf("export 1 = %+v", outline.Exports[1])
	}

	if len(outline.CustomSections) != 1 || outline.CustomSections[0].Name != "producers" {
		t.Fatalf("custom sections = %+v", outline.CustomSections)
	}
	if !bytes.Equal(outline.CustomSections[0].Data, []byte{0xDE, 0xAD}) {
		t.Errorf("custom data = %x", outline.CustomSections[0].Data)
	}
}

func TestDecodeOutline_SkipsUnknownSections(t *testing.T) {
	data := append([]byte(nil), componentHeader...)
	data = append(data, section(7, []byte{0x01, 0x02, 0x03})...)

	outline, err := decodeOutline(data)
	if err != nil {
		t.Fatalf("decodeOutline: %v", err)
	}
	if len(outline.Imports) != 0 || len(outline.Exports) != 0 {
		t.Errorf("outline = %+v, want empty", outline)
	}
}

func TestDecodeOutline_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a component", coreHeader},
		{"truncated section", append(append([]byte(nil), componentHeader...), 0x0A, 0x10, 0x01)},
		{"oversized section", append(append([]byte(nil), componentHeader...), 0x0A, 0xFF, 0xFF, 0xFF, 0x7F)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeOutline(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadLEB128(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7F}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xE5, 0x8E, 0x26}, 624485},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, 0xFFFFFFFF},
	}
	for _, tt := range tests {
		got, err := readLEB128(bytes.NewReader(tt.in))
		if err != nil {
			t.Errorf("readLEB128(%x): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("readLEB128(%x) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestReadLEB128_Errors(t *testing.T) {
	for _, in := range [][]byte{
		{},
		{0x80},
		{0x80, 0x80, 0x80, 0x80, 0x80, 0x01},
	} {
		if _, err := readLEB128(bytes.NewReader(in)); err == nil {
			t.Errorf("readLEB128(%x): expected error", in)
		}
	}
}
