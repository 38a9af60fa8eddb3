// Package engine runs the decision cycle: refresh state, manage held
// positions, scan sentiment for candidates, and enter the best of them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"hype_trader/internal/alert"
	"hype_trader/internal/broker"
	"hype_trader/internal/config"
	"hype_trader/internal/core"
	"hype_trader/internal/ledger"
	"hype_trader/internal/risk"
	"hype_trader/internal/signal"
	"hype_trader/pkg/telemetry"
)

// Engine owns one trading loop. Not safe for concurrent RunCycle calls;
// the loop is strictly sequential.
type Engine struct {
	cfg     *config.Config
	broker  core.IBroker
	data    core.IMarketData
	sources []core.ISentimentSource
	ledger  *ledger.Ledger
	journal core.IJournal
	alerts  *alert.Manager
	logger  core.ILogger

	cycle int64
}

// New creates an engine from its collaborators
func New(cfg *config.Config, brk core.IBroker, data core.IMarketData, sources []core.ISentimentSource,
	led *ledger.Ledger, jnl core.IJournal, alerts *alert.Manager, logger core.ILogger) *Engine {
	return &Engine{
		cfg:     cfg,
		broker:  brk,
		data:    data,
		sources: sources,
		ledger:  led,
		journal: jnl,
		alerts:  alerts,
		logger:  logger.WithField("component", "engine"),
	}
}

// Run executes cycles until ctx is canceled. A failed cycle backs off for the
// error cooldown instead of the full interval so transient brokerage trouble
// is retried promptly.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("trading loop started",
		"interval", e.cfg.CycleInterval().String(),
		"cooldown", e.cfg.ErrorCooldown().String(),
	)
	for {
		delay := e.cfg.CycleInterval()
		if err := e.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			telemetry.MetricCycleErrorsTotal.Inc()
			e.logger.Error("cycle failed", "error", err)
			delay = e.cfg.ErrorCooldown()
		}

		select {
		case <-ctx.Done():
			e.logger.Info("trading loop stopped")
			return nil
		case <-time.After(delay):
		}
	}
}

// RunCycle executes one full decision cycle. Position management always runs;
// new entries are gated on the market being open and past the opening guard.
func (e *Engine) RunCycle(ctx context.Context) error {
	e.cycle++
	start := time.Now()
	log := e.logger.WithField("cycle", e.cycle)
	log.Info("cycle started")

	defer func() {
		telemetry.MetricCyclesTotal.Inc()
		telemetry.MetricCycleDuration.Observe(time.Since(start).Seconds())
	}()

	clock, err := e.broker.GetClock(ctx)
	if err != nil {
		return fmt.Errorf("market clock: %w", err)
	}
	account, err := e.broker.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("account snapshot: %w", err)
	}
	if err := e.ledger.Refresh(ctx, account.Equity); err != nil {
		return fmt.Errorf("ledger refresh: %w", err)
	}

	// Protective exits run regardless of market state; closes submitted while
	// the market is shut queue for the open
	e.manageExisting(ctx, clock.Timestamp)

	if !clock.IsOpen {
		log.Info("market closed, skipping entries", "next_open", clock.NextOpen)
		return nil
	}
	if inOpeningGuard(clock, e.cfg.Timing) {
		log.Info("inside opening guard window, skipping entries")
		return nil
	}

	candidates := e.scanCandidates(ctx)
	if len(candidates) == 0 {
		log.Info("no tradable candidates this cycle")
		return nil
	}

	e.enterCandidates(ctx, candidates, account)

	// Final reconcile so the logged status reflects this cycle's orders
	if err := e.ledger.Refresh(ctx, account.Equity); err != nil {
		return fmt.Errorf("post-cycle refresh: %w", err)
	}
	log.Info("cycle finished", "duration", time.Since(start).String())
	return nil
}

// inOpeningGuard reports whether the session is still inside the volatile
// opening window. The brokerage clock has no "opened at" field, so the session
// open is anchored off the next close minus the regular session length.
func inOpeningGuard(clock *core.Clock, timing config.TimingConfig) bool {
	sessionLen := time.Duration(timing.SessionLengthMinutes) * time.Minute
	guard := time.Duration(timing.MarketOpenGuardMinutes) * time.Minute
	sessionOpen := clock.NextClose.Add(-sessionLen)
	return clock.Timestamp.Before(sessionOpen.Add(guard))
}

// manageExisting evaluates the exit rules for every held position. Failures
// are isolated per symbol: one bad position never blocks managing the rest.
func (e *Engine) manageExisting(ctx context.Context, now time.Time) {
	for _, pos := range e.ledger.ActivePositions() {
		log := e.logger.WithField("symbol", pos.Symbol)

		var ind *signal.IndicatorSet
		momentum := 0.0
		bars, err := e.data.GetBars(ctx, pos.Symbol, e.cfg.Trading.LookbackDays)
		if err != nil {
			log.Warn("bars unavailable, managing on price alone", "error", err)
		} else if ind, err = signal.ComputeIndicators(bars); err != nil {
			log.Warn("not enough history for indicators", "error", err)
			ind = nil
		} else {
			momentum = signal.Evaluate(ind, pos.Side()).Momentum
		}

		decision := risk.EvaluateExit(pos, ind, momentum, now, e.cfg.Risk)
		if !decision.Exit {
			continue
		}
		e.closePosition(ctx, pos, decision)
	}
}

func (e *Engine) closePosition(ctx context.Context, pos *ledger.Position, decision risk.ExitDecision) {
	log := e.logger.WithField("symbol", pos.Symbol)
	log.Info("exit triggered", "rule", decision.Rule, "reason", decision.Reason, "pl_pct", fmt.Sprintf("%.2f", pos.PLPct()))

	if !pos.CanClose() {
		log.Warn("shares held by open orders, close deferred to next cycle")
		return
	}
	if _, err := e.broker.ClosePosition(ctx, pos.Symbol); err != nil {
		if errors.Is(err, broker.ErrSharesHeld) {
			log.Warn("shares held by open orders, close deferred to next cycle")
			return
		}
		telemetry.MetricOrderErrors.Inc()
		log.Error("close failed", "error", err)
		return
	}

	e.ledger.MarkPendingClose(pos.Symbol)
	telemetry.MetricExitsTotal.WithLabelValues(decision.Rule).Inc()
	e.record(ctx, core.JournalEntry{
		Symbol: pos.Symbol,
		Action: "exit",
		Rule:   decision.Rule,
		Detail: decision.Reason,
	})
	e.alerts.Notify(ctx, alert.Warning, "Position closed", decision.Reason, map[string]string{
		"symbol": pos.Symbol,
		"rule":   decision.Rule,
		"pl_pct": fmt.Sprintf("%.2f", pos.PLPct()),
	})
}

// enterCandidates walks the ranked shortlist and opens or tops up positions
func (e *Engine) enterCandidates(ctx context.Context, candidates []*core.Candidate, account *core.AccountSnapshot) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalRank < candidates[j].FinalRank
	})
	shortlist := candidates
	if len(shortlist) > e.cfg.Trading.TopCandidates {
		shortlist = shortlist[:e.cfg.Trading.TopCandidates]
	}

	for _, c := range shortlist {
		log := e.logger.WithField("symbol", c.Ticker)

		if e.ledger.HasPendingOrder(c.Ticker) || e.ledger.IsPendingClose(c.Ticker) {
			log.Debug("order already in flight, skipping")
			continue
		}
		if c.TechScore < e.cfg.Trading.MinEntryScore {
			telemetry.MetricEntriesRejected.WithLabelValues("weak_score").Inc()
			e.record(ctx, core.JournalEntry{
				Symbol: c.Ticker, Action: "reject", Rule: "weak_score",
				Detail: fmt.Sprintf("technical score %.3f below %.2f", c.TechScore, e.cfg.Trading.MinEntryScore),
			})
			continue
		}

		req := risk.SizeRequest{
			Equity:        account.Equity,
			Price:         c.Price,
			TechScore:     c.TechScore,
			SentimentRank: c.SentimentRank,
			TotalExposure: e.ledger.ActiveExposure(account.Equity),
		}
		if pos := e.ledger.Position(c.Ticker); pos != nil {
			req.HasPosition = true
			req.ExistingQty = pos.Qty
			req.ExistingExposure = e.ledger.Exposure(pos, account.Equity)
			req.ExistingPLPct = pos.PLPct()
		}

		result := risk.SizeTrade(req, e.cfg.Trading, e.cfg.Risk)
		if !result.Admit {
			log.Debug("entry rejected by sizing", "reason", result.Reason)
			telemetry.MetricEntriesRejected.WithLabelValues("sizing").Inc()
			e.record(ctx, core.JournalEntry{Symbol: c.Ticker, Action: "reject", Rule: "sizing", Detail: result.Reason})
			continue
		}

		e.submitEntry(ctx, c, result, candidates)
	}
}

func (e *Engine) submitEntry(ctx context.Context, c *core.Candidate, size risk.SizeResult, allCandidates []*core.Candidate) {
	log := e.logger.WithField("symbol", c.Ticker)
	order, err := e.broker.SubmitOrder(ctx, core.OrderRequest{
		Symbol:        c.Ticker,
		Qty:           size.Shares,
		Side:          core.SideBuy,
		TimeInForce:   "day",
		ClientOrderID: "hype-" + uuid.NewString(),
	})
	if err != nil {
		switch {
		case errors.Is(err, broker.ErrInsufficientCapital):
			log.Info("insufficient capital, rotating out weaker positions")
			e.rotate(ctx, c, allCandidates)
		case errors.Is(err, broker.ErrSymbolUnavailable):
			telemetry.MetricEntriesRejected.WithLabelValues("unavailable").Inc()
			log.Warn("symbol not tradable", "error", err)
		default:
			telemetry.MetricOrderErrors.Inc()
			log.Error("order submission failed", "error", err)
		}
		return
	}

	now := time.Now().UTC()
	e.ledger.AddPendingOrder(core.PendingOrder{
		Symbol:  c.Ticker,
		Shares:  size.Shares,
		Side:    core.SideBuy,
		OrderID: order.ID,
	})
	if e.ledger.Position(c.Ticker) == nil {
		e.ledger.RecordEntry(c.Ticker, now)
	}
	telemetry.MetricOrdersSubmitted.WithLabelValues(string(core.SideBuy)).Inc()
	log.Info("entry submitted",
		"shares", size.Shares.String(),
		"target_pct", fmt.Sprintf("%.2f", size.TargetPct*100),
		"score", fmt.Sprintf("%.3f", c.TechScore),
		"final_rank", fmt.Sprintf("%.1f", c.FinalRank),
	)
	e.record(ctx, core.JournalEntry{
		Symbol: c.Ticker,
		Action: "entry",
		Detail: fmt.Sprintf("%s shares at ~%s, score %.3f, rank %.1f", size.Shares, c.Price.StringFixed(2), c.TechScore, c.FinalRank),
	})
	e.alerts.Notify(ctx, alert.Info, "Entry submitted",
		fmt.Sprintf("%s shares of %s at ~%s", size.Shares, c.Ticker, c.Price.StringFixed(2)),
		map[string]string{
			"symbol": c.Ticker,
			"score":  fmt.Sprintf("%.3f", c.TechScore),
			"rank":   fmt.Sprintf("%.1f", c.FinalRank),
		})
}

func (e *Engine) record(ctx context.Context, entry core.JournalEntry) {
	entry.Time = time.Now().UTC()
	entry.Cycle = e.cycle
	if err := e.journal.Record(ctx, entry); err != nil {
		e.logger.Warn("journal write failed", "error", err)
	}
}
