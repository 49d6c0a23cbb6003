package rewrite

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/goleak"

	moderrors "github.com/modshim/modshim/errors"
	"github.com/modshim/modshim/metadata"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSessionRewriteAll(t *testing.T) {
	e := newTestEngine(t)
	s := NewSession(e, hostV2(t))
	s.SetWorkers(4)

	inputs := []ModuleInput{
		{Name: "legacy-mod", Wasm: v1Mod(t).Raw()},
		{Name: "broken-mod", Wasm: []byte{0x00, 0x61, 0x73}},
	}
	for i := 0; i < 8; i++ {
		b := metadata.NewBuilder()
		b.ImportFunc("host:ui/menu@1.0.0", "open", metadata.Signature{})
		inputs = append(inputs, ModuleInput{
			Name: fmt.Sprintf("clean-mod-%d", i),
			Wasm: b.Build(),
		})
	}

	results, summary := s.RewriteAll(context.Background(), inputs)
	if len(results) != len(inputs) {
		t.Fatalf("got %d results for %d inputs", len(results), len(inputs))
	}

	// Results keep input order even though passes run concurrently.
	for i, res := range results {
		if res.Name != inputs[i].Name {
			t.Errorf("results[%d] = %s, want %s", i, res.Name, inputs[i].Name)
		}
	}

	legacy := results[0]
	if legacy.Err != nil {
		t.Fatalf("legacy-mod: %v", legacy.Err)
	}
	if legacy.Report.Rewritten != 4 || legacy.Report.Unresolved != 2 {
		t.Errorf("legacy-mod counts = %d/%d, want 4/2",
			legacy.Report.Rewritten, legacy.Report.Unresolved)
	}

	// One malformed module never takes down its neighbors.
	broken := results[1]
	if broken.Err == nil {
		t.Fatal("broken-mod decoded successfully")
	}
	if !moderrors.IsKind(broken.Err, moderrors.KindMalformedModule) {
		t.Errorf("broken-mod error kind = %v", broken.Err)
	}
	if broken.Wasm != nil || broken.Report != nil {
		t.Error("failed module produced partial output")
	}

	for _, res := range results[2:] {
		if res.Err != nil {
			t.Errorf("%s: %v", res.Name, res.Err)
		}
		if res.Report.Rewritten != 0 {
			t.Errorf("%s rewrote %d references", res.Name, res.Report.Rewritten)
		}
	}

	want := Summary{
		Modules:          10,
		ModulesRewritten: 1,
		ModulesFailed:    1,
		TotalRewritten:   4,
		TotalUnresolved:  2,
	}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
}

func TestSessionCancelledContext(t *testing.T) {
	e := newTestEngine(t)
	s := NewSession(e, hostV2(t))
	s.SetWorkers(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, summary := s.RewriteAll(ctx, []ModuleInput{
		{Name: "legacy-mod", Wasm: v1Mod(t).Raw()},
	})
	if results[0].Err == nil {
		t.Fatal("pass started under a cancelled context")
	}
	if summary.ModulesFailed != 1 {
		t.Errorf("ModulesFailed = %d, want 1", summary.ModulesFailed)
	}
}

func TestSessionEmptyInput(t *testing.T) {
	e := newTestEngine(t)
	s := NewSession(e, hostV2(t))

	results, summary := s.RewriteAll(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("got %d results for no input", len(results))
	}
	if summary != (Summary{}) {
		t.Errorf("summary = %+v, want zero", summary)
	}
}
