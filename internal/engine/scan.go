package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/alitto/pond"
	"github.com/shopspring/decimal"

	"hype_trader/internal/core"
	"hype_trader/internal/sentiment"
	"hype_trader/internal/signal"
	"hype_trader/pkg/telemetry"
)

// scanCandidates pulls the ranked lists from every sentiment source, merges
// them, and analyzes each ticker's technicals in parallel. A source failing or
// a ticker lacking history only shrinks the candidate set.
func (e *Engine) scanCandidates(ctx context.Context) []*core.Candidate {
	limit := e.cfg.Sources.ListLimit

	var lists []sentiment.RankedList
	for _, src := range e.sources {
		ranked, err := src.FetchRanked(ctx, limit)
		if err != nil {
			e.logger.Warn("sentiment source failed", "source", src.Name(), "error", err)
			continue
		}
		lists = append(lists, sentiment.RankedList{Source: src.Name(), Limit: limit, Entries: ranked})
	}
	if len(lists) == 0 {
		e.logger.Warn("no sentiment source produced a list")
		return nil
	}

	merged := sentiment.MergeRanks(lists)
	telemetry.MetricCandidatesScanned.Add(float64(len(merged)))

	pool := pond.New(e.cfg.Trading.AnalysisWorkers, len(merged))
	defer pool.StopAndWait()
	group, groupCtx := pool.GroupContext(ctx)

	var mu sync.Mutex
	var candidates []*core.Candidate

	for _, r := range merged {
		ranked := r
		if isCryptoTicker(ranked.Ticker) {
			e.logger.Debug("skipping crypto ticker", "symbol", ranked.Ticker)
			continue
		}
		group.Submit(func() error {
			c := e.analyze(groupCtx, ranked)
			if c != nil {
				mu.Lock()
				candidates = append(candidates, c)
				mu.Unlock()
			}
			// Analysis failures are per-ticker, never group-fatal
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		e.logger.Warn("candidate analysis interrupted", "error", err)
	}

	sentiment.AttachTechnicalRanks(candidates)
	e.logger.Info("candidate scan complete", "merged", len(merged), "analyzed", len(candidates))
	return candidates
}

// analyze computes indicators and a neutral-bias technical score for one
// ticker. Returns nil when the ticker has no usable market data.
func (e *Engine) analyze(ctx context.Context, r sentiment.Ranked) *core.Candidate {
	bars, err := e.data.GetBars(ctx, r.Ticker, e.cfg.Trading.LookbackDays)
	if err != nil {
		e.logger.Debug("no market data for candidate", "symbol", r.Ticker, "error", err)
		return nil
	}
	ind, err := signal.ComputeIndicators(bars)
	if err != nil {
		e.logger.Debug("insufficient history for candidate", "symbol", r.Ticker, "error", err)
		return nil
	}

	score := signal.Evaluate(ind, "")
	return &core.Candidate{
		Ticker:        r.Ticker,
		Price:         decimal.NewFromFloat(ind.Price),
		SentimentRank: r.SentimentRank,
		SourceRanks:   r.SourceRanks,
		Mentions:      r.Mentions,
		TechScore:     score.Score,
		RawScore:      score.RawScore,
		Momentum:      score.Momentum,
		Signals:       score.Signals,
	}
}

// isCryptoTicker reports whether a ticker is a crypto pair in the sources'
// ".X" suffix convention; those are not tradable on the equities account.
func isCryptoTicker(ticker string) bool {
	return strings.HasSuffix(ticker, ".X")
}
