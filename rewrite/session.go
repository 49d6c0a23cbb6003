package rewrite

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/modshim/modshim/errors"
	"github.com/modshim/modshim/hostapi"
)

// ModuleInput is one mod binary queued for rewriting.
type ModuleInput struct {
	Name string
	Wasm []byte
}

// ModuleResult is the per-module output of a session. Exactly one of
// Wasm/Report or Err is set: a module that fails to decode produces no
// partial output.
type ModuleResult struct {
	Name   string
	Wasm   []byte
	Report *Report
	Err    error
}

// Session rewrites many mod modules against one host surface. Passes are
// independent: each touches only its own module plus the read-only rule set
// and facade registry, so they run concurrently without synchronization.
type Session struct {
	engine  *Engine
	surface *hostapi.Surface
	workers int
}

// NewSession creates a session with one worker per CPU.
func NewSession(engine *Engine, surface *hostapi.Surface) *Session {
	return &Session{
		engine:  engine,
		surface: surface,
		workers: runtime.NumCPU(),
	}
}

// SetWorkers bounds the number of concurrent passes.
func (s *Session) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// RewriteAll runs one pass per input and aggregates the reports. A module
// that fails never affects the others; its result carries the error.
// Cancelling ctx stops passes that have not started; a started pass always
// runs to completion.
func (s *Session) RewriteAll(ctx context.Context, inputs []ModuleInput) ([]ModuleResult, Summary) {
	results := make([]ModuleResult, len(inputs))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ModuleResult{
					Name: in.Name,
					Err:  errors.Wrap(errors.PhaseSession, errors.KindInvalidInput, err, "pass abandoned before start"),
				}
				return nil
			}

			wasm, report, err := s.engine.RewriteBytes(in.Name, in.Wasm, s.surface)
			if err != nil {
				Logger().Error("module pass failed",
					zap.String("module", in.Name),
					zap.Error(err))
				results[i] = ModuleResult{Name: in.Name, Err: err}
				return nil
			}
			results[i] = ModuleResult{Name: in.Name, Wasm: wasm, Report: report}
			return nil
		})
	}
	_ = g.Wait() // per-module failures are recorded, never propagated

	reports := make([]*Report, len(results))
	for i, res := range results {
		reports[i] = res.Report
	}
	summary := Aggregate(reports)

	Logger().Info("session complete",
		zap.Int("modules", summary.Modules),
		zap.Int("modules_rewritten", summary.ModulesRewritten),
		zap.Int("modules_failed", summary.ModulesFailed),
		zap.Int("refs_rewritten", summary.TotalRewritten),
		zap.Int("refs_unresolved", summary.TotalUnresolved))

	return results, summary
}
