package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"hype_trader/internal/alert"
	"hype_trader/internal/core"
	"hype_trader/internal/ledger"
	"hype_trader/pkg/telemetry"
)

// rotate frees capital for a candidate the account cannot fund by closing
// held positions that rank strictly worse than it. At most MaxRotations
// positions go per cycle, worst first, and a position is never closed for a
// candidate it outranks. The freed capital settles before the next cycle;
// the blocked candidate is not retried within this one.
func (e *Engine) rotate(ctx context.Context, incoming *core.Candidate, candidates []*core.Candidate) {
	if e.cfg.Trading.MaxRotations <= 0 {
		return
	}

	rankOf := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		rankOf[c.Ticker] = c.FinalRank
	}

	type rankedPosition struct {
		pos  *ledger.Position
		rank float64
	}
	var held []rankedPosition
	for _, pos := range e.ledger.ActivePositions() {
		rank, ok := rankOf[pos.Symbol]
		if !ok {
			// Not even on today's radar: worst possible rank
			rank = math.Inf(1)
		}
		held = append(held, rankedPosition{pos: pos, rank: rank})
	}

	sort.SliceStable(held, func(i, j int) bool { return held[i].rank > held[j].rank })

	closed := 0
	for _, h := range held {
		if closed >= e.cfg.Trading.MaxRotations {
			break
		}
		if h.rank <= incoming.FinalRank {
			break
		}

		log := e.logger.WithField("symbol", h.pos.Symbol)
		if !h.pos.CanClose() {
			log.Warn("shares held by open orders, skipping for rotation")
			continue
		}
		if _, err := e.broker.ClosePosition(ctx, h.pos.Symbol); err != nil {
			log.Warn("rotation close failed", "error", err)
			continue
		}
		e.ledger.MarkPendingClose(h.pos.Symbol)
		telemetry.MetricRotationsTotal.Inc()
		closed++

		detail := fmt.Sprintf("closed for %s (rank %.1f vs %.1f)", incoming.Ticker, h.rank, incoming.FinalRank)
		log.Info("position rotated out", "for", incoming.Ticker, "rank", h.rank, "incoming_rank", incoming.FinalRank)
		e.record(ctx, core.JournalEntry{Symbol: h.pos.Symbol, Action: "rotation", Detail: detail})
		e.alerts.Notify(ctx, alert.Info, "Position rotated", detail, map[string]string{"symbol": h.pos.Symbol})
	}

	if closed == 0 {
		e.logger.Info("no position ranked worse than candidate, rotation skipped", "symbol", incoming.Ticker)
	}
}
