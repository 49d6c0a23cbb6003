package modshim_test

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/modshim/modshim"
	"github.com/modshim/modshim/facade"
	"github.com/modshim/modshim/hostapi"
	"github.com/modshim/modshim/metadata"
	"github.com/modshim/modshim/rewrite"
)

func patchConfig(t *testing.T) modshim.Config {
	t.Helper()

	s, err := hostapi.New("2.0.0")
	if err != nil {
		t.Fatalf("surface: %v", err)
	}
	getSig := metadata.Signature{Results: []api.ValueType{api.ValueTypeI32}}
	s.AddMethod("host:sim/foo@2.0.0", "get_value", getSig)

	reg := facade.NewRegistry()
	if err := reg.Add(&facade.Descriptor{
		OriginalType: "host:sim/foo@1.0.0",
		FacadeModule: "compat:sim/foo",
		Applies:      hostapi.MustRange("2.0.0", ""),
		Fields: []facade.FieldForward{
			{Name: "value", ValType: api.ValueTypeI32,
				AccessorModule: "host:sim/foo@2.0.0", AccessorName: "get_value"},
		},
	}); err != nil {
		t.Fatalf("facade: %v", err)
	}

	rs := rewrite.NewRuleSet()
	if err := rs.Add(rewrite.Rule{
		ID: "foo-value", Type: "host:sim/foo@1.0.0", Member: "value", Kind: rewrite.RefField,
		Action: rewrite.ActionRedirectToFacade, NewType: "compat:sim/foo", NewMember: "value",
		Applies: hostapi.MustRange("2.0.0", ""),
	}); err != nil {
		t.Fatalf("rule: %v", err)
	}

	return modshim.Config{Host: s.Freeze(), Rules: rs, Facades: reg.Freeze()}
}

func TestPatchOne(t *testing.T) {
	b := metadata.NewBuilder()
	b.ImportGlobal("host:sim/foo@1.0.0", "value", api.ValueTypeI32, false)

	out, report, err := modshim.PatchOne(context.Background(), patchConfig(t), "mod", b.Build())
	if err != nil {
		t.Fatalf("PatchOne: %v", err)
	}
	if report.Rewritten != 1 {
		t.Fatalf("Rewritten = %d, want 1", report.Rewritten)
	}

	mod, err := metadata.Decode("mod", out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if mod.Fields[0].Type != "compat:sim/foo" {
		t.Errorf("field targets %s, want compat:sim/foo", mod.Fields[0].Type)
	}
}

func TestPatchRequiresHost(t *testing.T) {
	cfg := patchConfig(t)
	cfg.Host = nil
	if _, _, err := modshim.Patch(context.Background(), cfg, nil); err == nil {
		t.Error("Patch accepted a config without a host surface")
	}
}
