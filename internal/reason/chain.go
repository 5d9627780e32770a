package reason

import (
	"context"

	"go.uber.org/zap"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

// Chain folds an ordered list of providers (fastest and cheapest first) over
// a single classification request. The first structurally valid verdict wins;
// a provider that errors is skipped, never retried. When every provider
// fails, the chain degrades to an evidence-only verdict instead of an error.
type Chain struct {
	providers []Provider
}

// NewChain creates a chain over the given providers in priority order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Classify runs the chain. The returned verdict always has a non-empty
// source list when the evidence was non-empty: providers that omit sources
// get them backfilled from the evidence.
func (c *Chain) Classify(ctx context.Context, query string, ev model.Evidence) *model.Verdict {
	for _, p := range c.providers {
		v, err := p.Classify(ctx, query, ev)
		if err != nil {
			zap.L().Warn("reason: provider failed, advancing chain",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}

		if len(v.Sources) == 0 {
			v.Sources = ev.Sources()
		}

		zap.L().Info("reason: verdict produced",
			zap.String("provider", p.Name()),
			zap.String("verdict", string(v.Verdict)),
			zap.Int("smoke_level", v.SmokeLevel),
		)
		return v
	}

	zap.L().Warn("reason: all providers failed, using evidence-only fallback",
		zap.Int("providers", len(c.providers)),
	)
	return fallbackVerdict(ev)
}

// fallbackVerdict synthesizes an evidence-only verdict when no provider
// produced a usable one.
func fallbackVerdict(ev model.Evidence) *model.Verdict {
	return &model.Verdict{
		Verdict:           model.VerdictUncertain,
		SmokeLevel:        50,
		Title:             "Jury's still out on this one",
		Summary:           "None of the reasoning services could weigh in right now. The sources below were collected for this query; judge for yourself until a proper verdict lands.",
		DiplomaticMessage: "I ran this through the checker but the verdict machines are napping. Here are the sources it dug up, have a look before sharing.",
		Sources:           ev.Sources(),
	}
}
