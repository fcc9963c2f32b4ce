// Package pipeline runs the quality analyzers over a decoded image.
package pipeline

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Skryldev/photo-quality/checks"
	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
	apperrors "github.com/Skryldev/photo-quality/errors"
)

// Runner executes a fixed set of analyzers concurrently.  Each analyzer
// writes into its own result slot, so report order is the order analyzers
// were added regardless of scheduling.
type Runner struct {
	analyzers []core.Analyzer
}

// New returns a Runner over the given analyzers.
func New(analyzers ...core.Analyzer) *Runner {
	return &Runner{analyzers: append([]core.Analyzer(nil), analyzers...)}
}

// Standard returns a Runner over the five built-in checks in report order.
func Standard() *Runner {
	return New(
		checks.NewBlur(),
		checks.NewResolution(),
		checks.NewBrightness(),
		checks.NewExposure(),
		checks.NewMetadata(),
	)
}

// Use appends analyzers.  Returns the same Runner for chaining.  Not safe to
// call once the Runner is in use.
func (r *Runner) Use(a ...core.Analyzer) *Runner {
	r.analyzers = append(r.analyzers, a...)
	return r
}

// Analyzers returns a copy of the analyzer list.
func (r *Runner) Analyzers() []core.Analyzer {
	return append([]core.Analyzer(nil), r.analyzers...)
}

// Run executes every analyzer against img.  Analyzers cannot fail, so the
// only error is cancellation of ctx.
func (r *Runner) Run(ctx context.Context, img *core.DecodedImage, rules config.Rules, hooks []core.Hook) (core.Checks, error) {
	results := make(core.Checks, len(r.analyzers))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range r.analyzers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return apperrors.Wrap(apperrors.CategoryPipeline, string(a.Name()), err)
			}
			results[i] = runCheck(gctx, a, img, rules, hooks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "run", err)
	}
	return results, nil
}

// runCheck executes a single analyzer, calling hooks and normalising the
// result envelope.
func runCheck(ctx context.Context, a core.Analyzer, img *core.DecodedImage, rules config.Rules, hooks []core.Hook) core.CheckResult {
	name := a.Name()
	for _, h := range hooks {
		h.BeforeCheck(ctx, name, img)
	}

	start := time.Now()
	res := a.Analyze(img, rules)
	elapsed := time.Since(start)

	res.Name = name
	res.Weight = rules.Weights.For(string(name))
	res.Score = clampScore(res.Score)
	if res.Details == nil {
		res.Details = map[string]any{}
	}

	for _, h := range hooks {
		h.AfterCheck(ctx, res, elapsed)
	}
	return res
}

func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s) || s < 0:
		return 0
	case s > 100:
		return 100
	}
	return s
}
