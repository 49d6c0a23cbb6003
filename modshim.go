package modshim

import (
	"context"

	"github.com/modshim/modshim/errors"
	"github.com/modshim/modshim/facade"
	"github.com/modshim/modshim/hostapi"
	"github.com/modshim/modshim/rewrite"
)

// Config carries the frozen inputs of a rewrite session: the current host
// surface, the rule catalog, and the facade registry the catalog's redirect
// rules point into.
type Config struct {
	Host    *hostapi.Surface
	Rules   *rewrite.RuleSet
	Facades *facade.Registry

	// Workers bounds concurrent passes; zero means one per CPU.
	Workers int
}

// Patch rewrites a batch of mod binaries against the current host. It is
// the one-call form of NewEngine + NewSession + RewriteAll. The returned
// error covers setup defects only (missing inputs, invalid or ambiguous
// rules, dangling facade targets); per-module failures are reported in the
// results and never abort the batch.
func Patch(ctx context.Context, cfg Config, mods []rewrite.ModuleInput) ([]rewrite.ModuleResult, rewrite.Summary, error) {
	if cfg.Host == nil {
		return nil, rewrite.Summary{}, errors.New(errors.PhaseSession, errors.KindInvalidInput).
			Detail("patch requires a host surface").
			Build()
	}
	engine, err := rewrite.NewEngine(cfg.Rules, cfg.Facades)
	if err != nil {
		return nil, rewrite.Summary{}, err
	}

	session := rewrite.NewSession(engine, cfg.Host)
	session.SetWorkers(cfg.Workers)

	results, summary := session.RewriteAll(ctx, mods)
	return results, summary, nil
}

// PatchOne rewrites a single mod binary. Unlike Patch, a module failure is
// returned directly.
func PatchOne(ctx context.Context, cfg Config, name string, wasm []byte) ([]byte, *rewrite.Report, error) {
	results, _, err := Patch(ctx, cfg, []rewrite.ModuleInput{{Name: name, Wasm: wasm}})
	if err != nil {
		return nil, nil, err
	}
	res := results[0]
	if res.Err != nil {
		return nil, nil, res.Err
	}
	return res.Wasm, res.Report, nil
}
