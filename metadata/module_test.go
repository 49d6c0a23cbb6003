package metadata

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/modshim/modshim/errors"
)

// buildModMod synthesizes a mod binary referencing the v1 host API:
// two methods and one field on host:sim/foo@1.0.0.
func buildModMod(t *testing.T) []byte {
	t.Helper()
	b := NewBuilder()
	moveTo := b.ImportFunc("host:sim/foo@1.0.0", "move_to", Signature{
		Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
	})
	b.ImportFunc("host:sim/foo@1.0.0", "tick", Signature{})
	b.ImportGlobal("host:sim/foo@1.0.0", "value", api.ValueTypeI32, false)
	b.ExportForward("run", Signature{
		Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
	}, moveTo)
	return b.Build()
}

func TestDecodeTables(t *testing.T) {
	mod, err := Decode("fixture-mod", buildModMod(t))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(mod.Types) != 1 || mod.Types[0].Path != "host:sim/foo@1.0.0" {
		t.Errorf("Types = %+v, want one entry for host:sim/foo@1.0.0", mod.Types)
	}
	if len(mod.Methods) != 2 {
		t.Fatalf("Methods = %d entries, want 2", len(mod.Methods))
	}
	if mod.Methods[0].Name != "move_to" || len(mod.Methods[0].Sig.Params) != 2 {
		t.Errorf("Methods[0] = %+v", mod.Methods[0])
	}
	if len(mod.Fields) != 1 || mod.Fields[0].Name != "value" || mod.Fields[0].Mutable {
		t.Errorf("Fields = %+v", mod.Fields)
	}
	if mod.RefCount() != 4 {
		t.Errorf("RefCount = %d, want 4", mod.RefCount())
	}
}

func TestTypeRefVersionTag(t *testing.T) {
	tests := []struct {
		path    string
		base    string
		version string
	}{
		{"host:sim/foo@1.0.0", "host:sim/foo", "1.0.0"},
		{"host:sim/foo", "host:sim/foo", ""},
		{"compat:sim/foo", "compat:sim/foo", ""},
	}
	for _, tt := range tests {
		ref := TypeRef{Path: tt.path}
		if ref.Base() != tt.base || ref.VersionTag() != tt.version {
			t.Errorf("TypeRef(%q): Base=%q VersionTag=%q, want %q/%q",
				tt.path, ref.Base(), ref.VersionTag(), tt.base, tt.version)
		}
	}
}

func TestEncodeUntouchedIsByteIdentical(t *testing.T) {
	raw := buildModMod(t)
	mod, err := Decode("fixture-mod", raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(mod.Encode(), raw) {
		t.Error("untouched module did not round-trip byte-identical")
	}
}

func TestEncodeReflectsMutatedReferences(t *testing.T) {
	mod, err := Decode("fixture-mod", buildModMod(t))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	old := mod.Fields[0]
	mod.Fields[0] = FieldRef{
		Type:    "compat:sim/foo",
		Name:    "value_compat",
		ValType: old.ValType,
		Mutable: old.Mutable,
	}

	again, err := Decode("fixture-mod", mod.Encode())
	if err != nil {
		t.Fatalf("re-Decode failed: %v", err)
	}
	if again.Fields[0].Type != "compat:sim/foo" || again.Fields[0].Name != "value_compat" {
		t.Errorf("Fields[0] after round trip = %+v", again.Fields[0])
	}
	if again.Fields[0].ValType != old.ValType || again.Fields[0].Mutable != old.Mutable {
		t.Error("field descriptor changed across rewrite; calling convention broken")
	}
	if again.Methods[0].String() != mod.Methods[0].String() {
		t.Error("unrelated method reference changed")
	}
}

func TestEncodeAppliesTypeRetarget(t *testing.T) {
	b := NewBuilder()
	b.ImportFunc("host:sim/bar@1.0.0", "poke", Signature{})
	raw := b.Build()

	mod, err := Decode("env-mod", raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	mod.Types[0] = TypeRef{Path: "host:sim/bar@2.0.0"}
	mod.Methods[0] = MethodRef{
		Type:      "host:sim/bar@2.0.0",
		Name:      mod.Methods[0].Name,
		TypeIndex: mod.Methods[0].TypeIndex,
		Sig:       mod.Methods[0].Sig,
	}

	again, err := Decode("env-mod", mod.Encode())
	if err != nil {
		t.Fatalf("re-Decode failed: %v", err)
	}
	if again.Methods[0].Type != "host:sim/bar@2.0.0" {
		t.Errorf("Methods[0].Type = %q", again.Methods[0].Type)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		wasm []byte
	}{
		{"empty", nil},
		{"short header", []byte{0x00, 0x61, 0x73}},
		{"bad magic", []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x00, 0x00, 0x00}},
		{"truncated section", append(append([]byte(nil), wasmMagic...), 0x02, 0x7f)},
		{"truncated import count", append(append([]byte(nil), wasmMagic...), 0x02, 0x01, 0x80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("broken", tt.wasm)
			if err == nil {
				t.Fatal("Decode succeeded on malformed input")
			}
			if !errors.IsKind(err, errors.KindMalformedModule) {
				t.Errorf("error kind = %v, want malformed_module", err)
			}
		})
	}
}

func TestDecodeRejectsBadTypeIndex(t *testing.T) {
	// Import section referencing type index 5 with an empty type section.
	wasm := append([]byte(nil), wasmMagic...)
	wasm = append(wasm, sectionType, 0x01, 0x00) // 0 types
	importPayload := appendULEB128(nil, 1)
	importPayload = appendName(importPayload, "host:x")
	importPayload = appendName(importPayload, "f")
	importPayload = append(importPayload, importKindFunc, 0x05)
	wasm = append(wasm, sectionImport)
	wasm = appendULEB128(wasm, uint32(len(importPayload)))
	wasm = append(wasm, importPayload...)

	if _, err := Decode("broken", wasm); err == nil {
		t.Fatal("Decode accepted out-of-range type index")
	}
}

func TestBuilderOutputCompilesUnderWazero(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)

	b := NewBuilder()
	get := b.ImportFunc("host:sim/foo", "get_value", Signature{
		Results: []api.ValueType{api.ValueTypeI32},
	})
	b.ExportForward("value_compat", Signature{
		Results: []api.ValueType{api.ValueTypeI32},
	}, get)
	b.ExportTrap("ctor", Signature{})
	b.ExportIdentity("to_handle", api.ValueTypeI32)
	b.ExportConst("abi_version", api.ValueTypeI32, 2)
	b.ExportGlobal("default_value", api.ValueTypeI32, false, 7)

	compiled, err := rt.CompileModule(ctx, b.Build())
	if err != nil {
		t.Fatalf("wazero rejected builder output: %v", err)
	}
	defer compiled.Close(ctx)

	exports := compiled.ExportedFunctions()
	for _, name := range []string{"value_compat", "ctor", "to_handle", "abi_version"} {
		if _, ok := exports[name]; !ok {
			t.Errorf("export %q missing", name)
		}
	}
}
