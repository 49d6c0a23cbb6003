package facade

import (
	"context"
	"errors"
	"testing"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/modshim/modshim/hostapi"
	"github.com/modshim/modshim/metadata"
)

func fooDescriptor() *Descriptor {
	return &Descriptor{
		OriginalType: "host:sim/foo@1.0.0",
		FacadeModule: "compat:sim/foo",
		Applies:      hostapi.MustRange("2.0.0", ""),
		Methods: []MethodForward{
			{
				Name:       "move_to",
				Sig:        metadata.Signature{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}},
				HostModule: "host:sim/foo@2.0.0",
				HostName:   "move_to_xy",
			},
		},
		Fields: []FieldForward{
			{
				Name:           "value",
				ValType:        api.ValueTypeI32,
				AccessorModule: "host:sim/foo@2.0.0",
				AccessorName:   "get_value",
				Default:        0,
			},
		},
		Conversions: []Conversion{
			{Name: "to_handle", ValType: api.ValueTypeI32},
		},
	}
}

// instantiateHost provides the v2 host API the facade forwards to.
func instantiateHost(ctx context.Context, t *testing.T, rt wazero.Runtime) *int32 {
	t.Helper()
	var lastX int32
	_, err := rt.NewHostModuleBuilder("host:sim/foo@2.0.0").
		NewFunctionBuilder().
		WithFunc(func(x, y int32) { lastX = x }).
		Export("move_to_xy").
		NewFunctionBuilder().
		WithFunc(func() int32 { return 42 }).
		Export("get_value").
		Instantiate(ctx)
	if err != nil {
		t.Fatalf("host module: %v", err)
	}
	return &lastX
}

func TestGuardInstantiateAndForward(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)

	lastX := instantiateHost(ctx, t, rt)

	reg := NewRegistry()
	desc := fooDescriptor()
	if err := reg.Add(desc); err != nil {
		t.Fatalf("Add: %v", err)
	}
	reg.Freeze()

	guard := NewGuard(rt, reg)
	mod, err := guard.Instantiate(ctx, desc)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	// Old method surface forwards to the renamed host method.
	if _, err := mod.ExportedFunction("move_to").Call(ctx, 7, 9); err != nil {
		t.Fatalf("move_to: %v", err)
	}
	if *lastX != 7 {
		t.Errorf("forwarded x = %d, want 7", *lastX)
	}

	// Replaced field: live accessor forwards the current value.
	res, err := mod.ExportedFunction("get_value_compat").Call(ctx)
	if err != nil {
		t.Fatalf("get_value_compat: %v", err)
	}
	if int32(res[0]) != 42 {
		t.Errorf("get_value_compat = %d, want 42", int32(res[0]))
	}

	// The old field shape still binds structurally.
	if g := mod.ExportedGlobal("value"); g == nil {
		t.Error("facade does not export the old field shape")
	}

	// Conversion member returns the same observable value.
	res, err = mod.ExportedFunction("to_handle").Call(ctx, 1234)
	if err != nil {
		t.Fatalf("to_handle: %v", err)
	}
	if int32(res[0]) != 1234 {
		t.Errorf("to_handle = %d, want 1234", int32(res[0]))
	}
}

func TestGuardConstructAlwaysFails(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)

	instantiateHost(ctx, t, rt)

	reg := NewRegistry()
	desc := fooDescriptor()
	if err := reg.Add(desc); err != nil {
		t.Fatalf("Add: %v", err)
	}
	reg.Freeze()

	guard := NewGuard(rt, reg)
	mod, err := guard.Instantiate(ctx, desc)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	constructErr := guard.Construct(ctx, mod)
	if constructErr == nil {
		t.Fatal("Construct succeeded on a facade")
	}
	var misuse *FacadeMisuseError
	if !errors.As(constructErr, &misuse) {
		t.Fatalf("error type = %T, want *FacadeMisuseError", constructErr)
	}
	if misuse.Facade != "compat:sim/foo" {
		t.Errorf("Facade = %q", misuse.Facade)
	}
	if misuse.Cause == nil {
		t.Error("expected the constructor trap as cause")
	}
}

func TestGuardCheckExport(t *testing.T) {
	guard := NewGuard(nil, NewRegistry().Freeze())

	if err := guard.CheckExport("compat:sim/foo", "move_to"); err != nil {
		t.Errorf("ordinary member flagged: %v", err)
	}
	err := guard.CheckExport("compat:sim/foo", ConstructorExport)
	var misuse *FacadeMisuseError
	if !errors.As(err, &misuse) {
		t.Fatalf("constructor access not flagged, got %v", err)
	}
}

func TestRegistryValidation(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Add(&Descriptor{
		OriginalType: "host:sim/foo@1.0.0",
		FacadeModule: "host:sim/foo", // wrong namespace
		Applies:      hostapi.MustRange("2.0.0", ""),
	}); err == nil {
		t.Error("facade outside compat namespace accepted")
	}

	first := &Descriptor{
		OriginalType: "host:sim/foo@1.0.0",
		FacadeModule: "compat:sim/foo",
		Applies:      hostapi.MustRange("2.0.0", "3.0.0"),
	}
	if err := reg.Add(first); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := reg.Add(&Descriptor{
		OriginalType: "host:sim/bar@1.0.0",
		FacadeModule: "compat:sim/foo",
		Applies:      hostapi.MustRange("3.0.0", ""),
	}); err == nil {
		t.Error("duplicate facade module accepted")
	}

	if err := reg.Add(&Descriptor{
		OriginalType: "host:sim/foo@1.0.0",
		FacadeModule: "compat:sim/foo-v2",
		Applies:      hostapi.MustRange("2.5.0", "4.0.0"),
	}); err == nil {
		t.Error("overlapping version range accepted")
	}

	// Adjacent range is fine.
	second := &Descriptor{
		OriginalType: "host:sim/foo@1.0.0",
		FacadeModule: "compat:sim/foo-v3",
		Applies:      hostapi.MustRange("3.0.0", ""),
	}
	if err := reg.Add(second); err != nil {
		t.Errorf("adjacent range rejected: %v", err)
	}
	reg.Freeze()

	if got := reg.ForType("host:sim/foo@1.0.0", semver.New("2.1.0")); got != first {
		t.Error("ForType(2.1.0) picked the wrong descriptor")
	}
	if got := reg.ForType("host:sim/foo@1.0.0", semver.New("3.5.0")); got != second {
		t.Error("ForType(3.5.0) picked the wrong descriptor")
	}
	if got := reg.ForType("host:sim/foo@1.0.0", semver.New("1.0.0")); got != nil {
		t.Error("ForType below all ranges should be nil")
	}
	if reg.Lookup("compat:sim/foo") != first {
		t.Error("Lookup mismatch")
	}
}

func TestIsFacadePath(t *testing.T) {
	if !IsFacadePath("compat:sim/foo") {
		t.Error("compat path not recognized")
	}
	if IsFacadePath("host:sim/foo@1.0.0") {
		t.Error("host path misclassified")
	}
}
