// Package engine drives the poll-evaluate-notify cycle. On every tick it
// assembles a full market snapshot, rebuilds reference prices, evaluates
// listings against the thresholds, and emits each winning candidate at most
// once through the dedup store and sink.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/skyblocktools/flipfinder/internal/domain"
	"github.com/skyblocktools/flipfinder/internal/notify"
	"github.com/skyblocktools/flipfinder/internal/pricing"
)

// SnapshotSource produces complete market snapshots.
type SnapshotSource interface {
	Assemble(ctx context.Context) (*domain.Snapshot, error)
}

// Alerter receives operational events such as repeated cycle failures.
// Implemented by notify.Notifier.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// failureAlertThreshold is how many consecutive cycle failures trigger an
// operational alert. A single failed cycle is routine; a streak means the
// source or the network is down.
const failureAlertThreshold = 3

// statsLogInterval paces the flip-history summary log. The first successful
// cycle logs one immediately, then at most one per interval.
const statsLogInterval = time.Hour

// warmStartMaxAge bounds how old a persisted reference may be and still seed
// the map on restart. Anything older is market history, not a price.
const warmStartMaxAge = time.Hour

// Config holds the engine's timing and threshold parameters.
type Config struct {
	// PollInterval is the time between cycle starts.
	PollInterval time.Duration

	// CycleBudget bounds the wall-clock time of a single cycle. A cycle
	// that exceeds it is cancelled and counted as failed.
	CycleBudget time.Duration

	// Retention is how long an emitted listing stays marked in the dedup
	// store. It should comfortably exceed the longest listing lifetime.
	Retention time.Duration

	// Thresholds gate which candidates are emitted.
	Thresholds domain.Thresholds
}

// CycleStats is a point-in-time view of the engine's health.
type CycleStats struct {
	Cycles              uint64
	FlipsEmitted        uint64
	LastSuccess         time.Time
	ConsecutiveFailures int
	LastError           string
}

// Engine owns the reference price map and runs detection cycles on a fixed
// interval. The reference map is only ever replaced wholesale at the end of a
// successful cycle; failed cycles leave it and the dedup store untouched.
type Engine struct {
	cfg       Config
	source    SnapshotSource
	builder   pricing.Builder
	evaluator pricing.Evaluator
	dedup     domain.DedupStore
	sink      domain.FlipSink

	// Optional collaborators; nil disables the concern.
	flips    domain.FlipStore
	refStore domain.ReferenceStore
	archiver domain.SnapshotArchiver
	alerter  Alerter

	logger  *slog.Logger
	running atomic.Bool

	mu           sync.Mutex
	refs         map[string]domain.PriceReference
	stats        CycleStats
	lastStatsLog time.Time
}

// New creates an Engine. flips, refStore and archiver may be nil.
func New(cfg Config, source SnapshotSource, builder pricing.Builder, evaluator pricing.Evaluator,
	dedup domain.DedupStore, sink domain.FlipSink, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		source:    source,
		builder:   builder,
		evaluator: evaluator,
		dedup:     dedup,
		sink:      sink,
		logger:    logger.With(slog.String("component", "engine")),
		refs:      make(map[string]domain.PriceReference),
	}
}

// WithFlipStore attaches a persistent flip history.
func (e *Engine) WithFlipStore(s domain.FlipStore) *Engine {
	e.flips = s
	return e
}

// WithReferenceStore attaches a store used to warm-start the reference map
// on Run and to persist it after each successful cycle.
func (e *Engine) WithReferenceStore(s domain.ReferenceStore) *Engine {
	e.refStore = s
	return e
}

// WithArchiver attaches a snapshot archiver invoked after each successful
// cycle.
func (e *Engine) WithArchiver(a domain.SnapshotArchiver) *Engine {
	e.archiver = a
	return e
}

// WithAlerter attaches an operational alert channel.
func (e *Engine) WithAlerter(a Alerter) *Engine {
	e.alerter = a
	return e
}

// Run executes cycles on the configured interval until ctx is cancelled.
// The first cycle starts immediately. A tick that arrives while a cycle is
// still in flight is dropped rather than queued.
func (e *Engine) Run(ctx context.Context) error {
	e.warmStart(ctx)

	e.tryCycle(ctx)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.InfoContext(ctx, "engine stopping", slog.String("reason", ctx.Err().Error()))
			return ctx.Err()
		case <-ticker.C:
			e.tryCycle(ctx)
		}
	}
}

// EvaluateOnce runs a single detection pass without touching the dedup store
// or delivering anything. Used by the dry-run mode.
func (e *Engine) EvaluateOnce(ctx context.Context) ([]domain.FlipCandidate, error) {
	e.warmStart(ctx)

	cctx, cancel := e.cycleContext(ctx)
	defer cancel()

	snap, err := e.source.Assemble(cctx)
	if err != nil {
		return nil, err
	}

	refs := e.builder.Build(snap, e.currentRefs())
	return e.evaluator.Evaluate(snap, refs, e.cfg.Thresholds, uuid.NewString()), nil
}

// Stats returns a snapshot of the engine's cycle counters.
func (e *Engine) Stats() CycleStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// tryCycle runs a cycle unless one is already in flight, in which case the
// tick is dropped and logged.
func (e *Engine) tryCycle(ctx context.Context) {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.WarnContext(ctx, "previous cycle still running, tick dropped")
		return
	}
	defer e.running.Store(false)

	e.runCycle(ctx)
}

func (e *Engine) runCycle(ctx context.Context) {
	start := time.Now()

	cctx, cancel := e.cycleContext(ctx)
	defer cancel()

	snap, err := e.source.Assemble(cctx)
	if err != nil {
		failures := e.recordFailure(err)
		e.logger.ErrorContext(ctx, "snapshot failed",
			slog.String("error", err.Error()),
			slog.Int("consecutive_failures", failures),
			slog.Duration("elapsed", time.Since(start)))

		if e.alerter != nil && failures == failureAlertThreshold {
			if aerr := e.alerter.Notify(ctx, notify.EventCycleFailed,
				"Flip detection degraded",
				fmt.Sprintf("%d consecutive cycles failed, last error: %v", failures, err),
			); aerr != nil {
				e.logger.WarnContext(ctx, "failure alert not delivered", slog.String("error", aerr.Error()))
			}
		}
		return
	}

	refs := e.builder.Build(snap, e.currentRefs())

	cycleID := uuid.NewString()
	candidates := e.evaluator.Evaluate(snap, refs, e.cfg.Thresholds, cycleID)

	emitted := 0
	for _, c := range candidates {
		won, err := e.dedup.TryMarkEmitted(cctx, c.ListingID, snap.TakenAt, e.cfg.Retention)
		if err != nil {
			// Without the mark we cannot guarantee at-most-once, so the
			// candidate is skipped this cycle. It will be re-evaluated on
			// the next one if still listed.
			e.logger.ErrorContext(ctx, "dedup check failed",
				slog.String("listing_id", c.ListingID),
				slog.String("error", err.Error()))
			continue
		}
		if !won {
			if e.logger.Enabled(ctx, slog.LevelDebug) {
				if seen, err := e.dedup.FirstSeen(cctx, c.ListingID); err == nil {
					e.logger.DebugContext(ctx, "candidate already emitted",
						slog.String("listing_id", c.ListingID),
						slog.Time("first_seen", seen))
				}
			}
			continue
		}

		emitted++

		// Delivery failure does not roll back the dedup mark. A flaky
		// notifier must not cause duplicate alerts.
		if err := e.sink.Deliver(cctx, c); err != nil {
			e.logger.ErrorContext(ctx, "delivery failed",
				slog.String("listing_id", c.ListingID),
				slog.String("item_id", c.ItemID),
				slog.String("error", err.Error()))
		}

		if e.flips != nil {
			if err := e.flips.Insert(cctx, c); err != nil {
				e.logger.ErrorContext(ctx, "flip history insert failed",
					slog.String("listing_id", c.ListingID),
					slog.String("error", err.Error()))
			}
		}
	}

	e.commit(refs, emitted)

	if e.refStore != nil {
		if err := e.refStore.Save(cctx, refs); err != nil {
			e.logger.WarnContext(ctx, "reference persist failed", slog.String("error", err.Error()))
		}
	}
	if e.archiver != nil {
		if err := e.archiver.Archive(cctx, snap); err != nil {
			e.logger.WarnContext(ctx, "snapshot archive failed", slog.String("error", err.Error()))
		}
	}

	e.logger.InfoContext(ctx, "cycle complete",
		slog.String("cycle_id", cycleID),
		slog.Uint64("seq", snap.Seq),
		slog.Int("listings", len(snap.Listings)),
		slog.Int("references", len(refs)),
		slog.Int("candidates", len(candidates)),
		slog.Int("emitted", emitted),
		slog.Duration("elapsed", time.Since(start)))

	e.maybeLogHistory(ctx)
}

// maybeLogHistory logs a 24h flip-history summary from the persistent store,
// at most once per statsLogInterval.
func (e *Engine) maybeLogHistory(ctx context.Context) {
	if e.flips == nil {
		return
	}

	e.mu.Lock()
	due := time.Since(e.lastStatsLog) >= statsLogInterval
	if due {
		e.lastStatsLog = time.Now()
	}
	e.mu.Unlock()
	if !due {
		return
	}

	stats, err := e.flips.Stats(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		e.logger.WarnContext(ctx, "flip history stats failed", slog.String("error", err.Error()))
		return
	}

	attrs := []slog.Attr{
		slog.Int64("flips_24h", stats.Count),
		slog.Int64("total_profit_24h", stats.TotalProfit),
	}
	if recent, err := e.flips.ListRecent(ctx, 1); err == nil && len(recent) > 0 {
		attrs = append(attrs,
			slog.String("last_item", recent[0].ItemID),
			slog.Int64("last_profit", recent[0].Profit))
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "flip history", attrs...)
}

func (e *Engine) cycleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.CycleBudget > 0 {
		return context.WithTimeout(ctx, e.cfg.CycleBudget)
	}
	return context.WithCancel(ctx)
}

// warmStart loads the persisted reference map so a restart does not begin
// cold. Only fills an empty map; an in-memory map from a prior cycle wins.
func (e *Engine) warmStart(ctx context.Context) {
	if e.refStore == nil {
		return
	}

	e.mu.Lock()
	empty := len(e.refs) == 0
	e.mu.Unlock()
	if !empty {
		return
	}

	refs, err := e.refStore.Load(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "reference warm start failed", slog.String("error", err.Error()))
		return
	}

	cutoff := time.Now().Add(-warmStartMaxAge)
	discarded := 0
	for id, ref := range refs {
		if ref.Stale(cutoff) {
			delete(refs, id)
			discarded++
		}
	}
	if len(refs) == 0 {
		if discarded > 0 {
			e.logger.InfoContext(ctx, "persisted references all stale", slog.Int("discarded", discarded))
		}
		return
	}

	e.mu.Lock()
	if len(e.refs) == 0 {
		e.refs = refs
	}
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "references restored",
		slog.Int("items", len(refs)),
		slog.Int("discarded", discarded))
}

func (e *Engine) currentRefs() map[string]domain.PriceReference {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refs
}

func (e *Engine) commit(refs map[string]domain.PriceReference, emitted int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refs = refs
	e.stats.Cycles++
	e.stats.FlipsEmitted += uint64(emitted)
	e.stats.LastSuccess = time.Now()
	e.stats.ConsecutiveFailures = 0
	e.stats.LastError = ""
}

func (e *Engine) recordFailure(err error) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Cycles++
	e.stats.ConsecutiveFailures++
	e.stats.LastError = err.Error()
	return e.stats.ConsecutiveFailures
}
