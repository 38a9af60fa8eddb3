package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"hype_trader/internal/core"
	pkghttp "hype_trader/pkg/http"
)

const stocktwitsDefaultURL = "https://api.stocktwits.com"

// StocktwitsSource reads the trending symbols feed. The feed is unordered for
// our purposes, so entries are re-ranked by watchlist count descending.
type StocktwitsSource struct {
	client *pkghttp.Client
	logger core.ILogger
}

type stocktwitsResponse struct {
	Symbols []stocktwitsSymbol `json:"symbols"`
}

type stocktwitsSymbol struct {
	Symbol         string `json:"symbol"`
	Title          string `json:"title"`
	WatchlistCount int64  `json:"watchlist_count"`
}

// NewStocktwitsSource creates a source against baseURL (empty means the public API)
func NewStocktwitsSource(baseURL string, timeout time.Duration, logger core.ILogger) *StocktwitsSource {
	if baseURL == "" {
		baseURL = stocktwitsDefaultURL
	}
	return &StocktwitsSource{
		client: pkghttp.NewClient(baseURL, timeout, nil),
		logger: logger.WithField("source", "stocktwits"),
	}
}

// Name implements core.ISentimentSource
func (s *StocktwitsSource) Name() string {
	return "stocktwits"
}

// FetchRanked returns up to limit tickers ranked by watchlist count
func (s *StocktwitsSource) FetchRanked(ctx context.Context, limit int) ([]core.RankedTicker, error) {
	body, err := s.client.Get(ctx, "/api/2/trending/symbols.json", nil)
	if err != nil {
		return nil, fmt.Errorf("stocktwits fetch: %w", err)
	}

	var resp stocktwitsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("stocktwits decode: %w", err)
	}

	sort.SliceStable(resp.Symbols, func(i, j int) bool {
		return resp.Symbols[i].WatchlistCount > resp.Symbols[j].WatchlistCount
	})

	out := make([]core.RankedTicker, 0, limit)
	for _, e := range resp.Symbols {
		if len(out) >= limit {
			break
		}
		if e.Symbol == "" {
			continue
		}
		out = append(out, core.RankedTicker{
			Ticker:   e.Symbol,
			Rank:     len(out) + 1,
			Mentions: e.WatchlistCount,
		})
	}
	s.logger.Debug("fetched ranked tickers", "count", len(out))
	return out, nil
}
