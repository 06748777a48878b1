package compat

import (
	"reflect"
	"testing"

	"github.com/wippyai/wasm-composer/descriptor"
)

func fn(name string, params, results int) descriptor.Function {
	f := descriptor.Function{Name: name}
	for i := 0; i < params; i++ {
		f.Params = append(f.Params, descriptor.Param{Name: "p", Type: "string"})
	}
	for i := 0; i < results; i++ {
		f.Results = append(f.Results, descriptor.Param{Name: "r", Type: "string"})
	}
	return f
}

func iface(name string, dir descriptor.Direction, fns ...descriptor.Function) descriptor.Interface {
	return descriptor.Interface{Name: name, Direction: dir, Functions: fns}
}

func TestCanConnect(t *testing.T) {
	exp := iface("a", descriptor.Export)
	imp := iface("a", descriptor.Import)

	if !CanConnect(exp, imp) {
		t.Error("export/import pair should connect")
	}
	if !CanConnect(imp, exp) {
		t.Error("import/export pair should connect")
	}
	if CanConnect(exp, exp) {
		t.Error("export/export pair should not connect")
	}
	if CanConnect(imp, imp) {
		t.Error("import/import pair should not connect")
	}
}

func TestCalculate_DirectionConflict(t *testing.T) {
	a := iface("logger", descriptor.Export, fn("log", 1, 0))
	b := iface("logger", descriptor.Export, fn("log", 1, 0), fn("flush", 0, 0))

	res := Calculate(a, b)
	if res.Valid {
		t.Error("same-direction pair must be invalid")
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0", res.Score)
	}
	if len(res.Issues) != 1 {
		t.Fatalf("issues = %v, want exactly one", res.Issues)
	}
	if res.TotalFunctions != 2 {
		t.Errorf("TotalFunctions = %d, want 2 (larger side)", res.TotalFunctions)
	}
}

func TestCalculate_ExactMatch(t *testing.T) {
	src := iface("logger", descriptor.Export, fn("log", 2, 0), fn("flush", 0, 1))
	dst := iface("logger", descriptor.Import, fn("log", 2, 0), fn("flush", 0, 1))

	res := Calculate(src, dst)
	if !res.Valid {
		t.Fatalf("exact match must be valid, issues: %v", res.Issues)
	}
	want := NameMatchPoints + 2*FunctionMatchPoints + CompletenessBonus
	if res.Score != want {
		t.Errorf("score = %d, want %d", res.Score, want)
	}
	if res.MatchedFunctions != 2 || res.TotalFunctions != 2 {
		t.Errorf("matched/total = %d/%d, want 2/2", res.MatchedFunctions, res.TotalFunctions)
	}
	if len(res.Issues) != 0 {
		t.Errorf("unexpected issues: %v", res.Issues)
	}
}

func TestCalculate_NameMismatchOnly(t *testing.T) {
	src := iface("logger", descriptor.Export, fn("log", 1, 0))
	dst := iface("metrics", descriptor.Import, fn("log", 1, 0))

	res := Calculate(src, dst)
	// 10 for the function plus 20 completeness, no name points.
	if res.Score != FunctionMatchPoints+CompletenessBonus {
		t.Errorf("score = %d, want %d", res.Score, FunctionMatchPoints+CompletenessBonus)
	}
	if res.Valid {
		t.Error("below-threshold result with issues must be invalid")
	}
}

func TestCalculate_PartialMatchAboveThreshold(t *testing.T) {
	src := iface("store", descriptor.Export,
		fn("get", 1, 1), fn("set", 2, 0), fn("del", 1, 0))
	dst := iface("store", descriptor.Import,
		fn("get", 1, 1), fn("set", 2, 0))

	res := Calculate(src, dst)
	// Name 30 + two exact functions 20; "del" missing blocks completeness.
	want := NameMatchPoints + 2*FunctionMatchPoints
	if res.Score != want {
		t.Errorf("score = %d, want %d", res.Score, want)
	}
	if !res.Valid {
		t.Errorf("score %d with %d matches should stay valid, issues: %v",
			res.Score, res.MatchedFunctions, res.Issues)
	}
	if res.MatchedFunctions != 2 {
		t.Errorf("matched = %d, want 2", res.MatchedFunctions)
	}
	if len(res.Issues) != 1 {
		t.Errorf("issues = %v, want the missing-function issue only", res.Issues)
	}
}

func TestCalculate_SignatureMismatch(t *testing.T) {
	src := iface("codec", descriptor.Export, fn("encode", 2, 1))
	dst := iface("codec", descriptor.Import, fn("encode", 1, 2))

	res := Calculate(src, dst)
	if res.MatchedFunctions != 0 {
		t.Errorf("matched = %d, want 0", res.MatchedFunctions)
	}
	if res.Score != NameMatchPoints {
		t.Errorf("score = %d, want name points only (%d)", res.Score, NameMatchPoints)
	}
	if res.Valid {
		t.Error("signature mismatches without any match must be invalid")
	}
	if len(res.Issues) != 2 {
		t.Errorf("issues = %v, want param and result mismatches", res.Issues)
	}
}

func TestCalculate_EmptyInterfaces(t *testing.T) {
	src := iface("marker", descriptor.Export)
	dst := iface("marker", descriptor.Import)

	res := Calculate(src, dst)
	if !res.Valid {
		t.Errorf("empty pair with matching names must be valid, issues: %v", res.Issues)
	}
	if res.Score != NameMatchPoints+EmptyInterfacePoints {
		t.Errorf("score = %d, want %d", res.Score, NameMatchPoints+EmptyInterfacePoints)
	}
	if len(res.Issues) != 1 {
		t.Errorf("issues = %v, want the informational empty note", res.Issues)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	src := iface("store", descriptor.Export, fn("get", 1, 1), fn("missing", 0, 0))
	dst := iface("storage", descriptor.Import, fn("get", 1, 1))

	first := Calculate(src, dst)
	for i := 0; i < 10; i++ {
		if got := Calculate(src, dst); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestCalculate_ScoreClamped(t *testing.T) {
	var fns []descriptor.Function
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		fns = append(fns, fn(name, 0, 0))
	}
	src := iface("big", descriptor.Export, fns...)
	dst := iface("big", descriptor.Import, fns...)

	res := Calculate(src, dst)
	if res.Score != MaxScore {
		t.Errorf("score = %d, want clamp at %d", res.Score, MaxScore)
	}
	if !res.Valid {
		t.Error("clamped full match must be valid")
	}
}

func TestFindCompatible_ExcludesSelf(t *testing.T) {
	src := iface("logger", descriptor.Export, fn("log", 1, 0))
	candidates := []descriptor.Interface{
		iface("logger", descriptor.Import, fn("log", 1, 0)),
		iface("logger", descriptor.Export, fn("log", 1, 0)),
	}
	// The second candidate shares the source's exact name and is skipped
	// before scoring; only differently-named interfaces would remain, and
	// here the first one shares the name too.
	matches := FindCompatible(src, candidates)
	if len(matches) != 0 {
		t.Errorf("matches = %d, want 0 (same-name candidates excluded)", len(matches))
	}
}

func TestFindCompatible_RankingAndCutoff(t *testing.T) {
	src := iface("store", descriptor.Export,
		fn("get", 1, 1), fn("set", 2, 0))

	full := iface("store-service", descriptor.Import, fn("get", 1, 1), fn("set", 2, 0))
	partial := iface("store-api", descriptor.Import, fn("get", 1, 1))
	weak := iface("unrelated", descriptor.Import, fn("frob", 3, 3))

	matches := FindCompatible(src, []descriptor.Interface{weak, partial, full})
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2 (weak candidate culled)", len(matches))
	}
	if matches[0].Interface.Name != "store-service" {
		t.Errorf("best match = %s, want store-service", matches[0].Interface.Name)
	}
	if matches[1].Interface.Name != "store-api" {
		t.Errorf("second match = %s, want store-api", matches[1].Interface.Name)
	}
	if matches[0].Result.Score < matches[1].Result.Score {
		t.Error("ranking must be descending by score")
	}
}

func TestFindCompatible_StableForEqualScores(t *testing.T) {
	src := iface("store", descriptor.Export, fn("get", 1, 1))
	a := iface("store-api", descriptor.Import, fn("get", 1, 1))
	b := iface("store_api", descriptor.Import, fn("get", 1, 1))

	first := FindCompatible(src, []descriptor.Interface{a, b})
	second := FindCompatible(src, []descriptor.Interface{a, b})
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("matches = %d/%d, want 2/2", len(first), len(second))
	}
	if first[0].Result.Score == first[1].Result.Score {
		if first[0].Interface.Name != second[0].Interface.Name {
			t.Error("equal-score ordering must be stable across calls")
		}
		if first[0].Interface.Name != a.Name {
			t.Error("equal-score ordering must preserve candidate order")
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Logger", "logger"},
		{"wasi prefix", "wasi:http-handler", "httphandler"},
		{"component prefix", "component:data-processor", "dataprocessor"},
		{"separators", "data_processor-v2", "dataprocessorv2"},
		{"api suffix", "storage-api", "storage"},
		{"interface suffix", "logger_interface", "logger"},
		{"suffix only is kept", "api", "api"},
		{"single suffix strip", "service-api", "service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeName(tt.in); got != tt.want {
				t.Errorf("normalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeName_Equivalence(t *testing.T) {
	pairs := [][2]string{
		{"wasi:logging", "Logging"},
		{"data-processor", "data_processor"},
		{"storage-api", "Storage"},
	}
	for _, p := range pairs {
		if normalizeName(p[0]) != normalizeName(p[1]) {
			t.Errorf("%q and %q should normalize identically (%q vs %q)",
				p[0], p[1], normalizeName(p[0]), normalizeName(p[1]))
		}
	}
}
