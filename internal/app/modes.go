package app

import (
	"context"
	"fmt"

	"github.com/skyblocktools/flipfinder/internal/domain"
	"github.com/skyblocktools/flipfinder/internal/engine"
	"github.com/skyblocktools/flipfinder/internal/notify"
	"github.com/skyblocktools/flipfinder/internal/pricing"
)

// buildEngine assembles the detection engine from the wired dependencies and
// the active configuration.
func (a *App) buildEngine(deps *Dependencies) *engine.Engine {
	builder := pricing.Builder{
		OutlierPct: a.cfg.Pricing.OutlierPct,
		MinSamples: a.cfg.Pricing.MinSamples,
	}
	evaluator := pricing.Evaluator{
		Fees: pricing.FeeSchedule{
			AuctionCutPct: a.cfg.Fees.AuctionCutPct,
			BINCutPct:     a.cfg.Fees.BINCutPct,
			ClaimFlat:     a.cfg.Fees.ClaimFlat,
		}.Fee,
	}

	e := engine.New(
		engine.Config{
			PollInterval: a.cfg.Engine.PollInterval.Duration,
			CycleBudget:  a.cfg.Engine.CycleBudget.Duration,
			Retention:    a.cfg.Dedup.Retention.Duration,
			Thresholds: domain.Thresholds{
				MinProfit:    a.cfg.Thresholds.MinProfit,
				MinProfitPct: a.cfg.Thresholds.MinProfitPct,
			},
		},
		deps.Assembler,
		builder,
		evaluator,
		deps.Dedup,
		deps.Notifier,
		a.logger,
	)

	if deps.Flips != nil {
		e = e.WithFlipStore(deps.Flips)
	}
	if deps.RefStore != nil {
		e = e.WithReferenceStore(deps.RefStore)
	}
	if deps.Archiver != nil {
		e = e.WithArchiver(deps.Archiver)
	}
	if deps.Notifier != nil {
		e = e.WithAlerter(deps.Notifier)
	}
	return e
}

// RunMode starts the detection engine and blocks until the context is
// cancelled.
func (a *App) RunMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting run mode",
		"poll_interval", a.cfg.Engine.PollInterval.Duration.String(),
		"min_profit", a.cfg.Thresholds.MinProfit,
		"min_profit_pct", a.cfg.Thresholds.MinProfitPct,
	)

	return a.buildEngine(deps).Run(ctx)
}

// OnceMode performs a single detection pass and prints the candidates to
// stdout without notifying or recording anything. Useful for tuning
// thresholds against the live market.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting dry run")

	candidates, err := a.buildEngine(deps).EvaluateOnce(ctx)
	if err != nil {
		return fmt.Errorf("app: dry run: %w", err)
	}

	if len(candidates) == 0 {
		fmt.Println("no flip candidates found")
		return nil
	}

	fmt.Printf("%d flip candidate(s):\n\n", len(candidates))
	for _, c := range candidates {
		title, message := notify.FormatFlip(c)
		fmt.Printf("%s\n%s\n\n", title, message)
	}
	return nil
}
