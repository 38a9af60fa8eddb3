package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hype_trader/internal/core"
	pkghttp "hype_trader/pkg/http"
)

const apeWisdomDefaultURL = "https://apewisdom.io"

// ApeWisdomSource reads the aggregated social mention leaderboard from the
// ApeWisdom public API. Entries come back already ranked by mention volume.
type ApeWisdomSource struct {
	client *pkghttp.Client
	logger core.ILogger
}

type apeWisdomResponse struct {
	Results []apeWisdomEntry `json:"results"`
}

type apeWisdomEntry struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	Mentions int64  `json:"mentions"`
	Upvotes  int64  `json:"upvotes"`
}

// NewApeWisdomSource creates a source against baseURL (empty means the public API)
func NewApeWisdomSource(baseURL string, timeout time.Duration, logger core.ILogger) *ApeWisdomSource {
	if baseURL == "" {
		baseURL = apeWisdomDefaultURL
	}
	return &ApeWisdomSource{
		client: pkghttp.NewClient(baseURL, timeout, nil),
		logger: logger.WithField("source", "apewisdom"),
	}
}

// Name implements core.ISentimentSource
func (s *ApeWisdomSource) Name() string {
	return "apewisdom"
}

// FetchRanked returns up to limit tickers, rank 1 first
func (s *ApeWisdomSource) FetchRanked(ctx context.Context, limit int) ([]core.RankedTicker, error) {
	body, err := s.client.Get(ctx, "/api/v1.0/filter/all-stocks/page/1", nil)
	if err != nil {
		return nil, fmt.Errorf("apewisdom fetch: %w", err)
	}

	var resp apeWisdomResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("apewisdom decode: %w", err)
	}

	out := make([]core.RankedTicker, 0, limit)
	for _, e := range resp.Results {
		if len(out) >= limit {
			break
		}
		if e.Ticker == "" {
			continue
		}
		out = append(out, core.RankedTicker{
			Ticker:   e.Ticker,
			Rank:     len(out) + 1,
			Mentions: e.Mentions,
		})
	}
	s.logger.Debug("fetched ranked tickers", "count", len(out))
	return out, nil
}
