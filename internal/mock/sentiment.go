package mock

import (
	"context"

	"hype_trader/internal/core"
)

// SentimentSource serves a fixed ranked list
type SentimentSource struct {
	SourceName string
	Ranked     []core.RankedTicker
	Err        error
}

// NewSentimentSource builds a source named name ranking the given tickers 1..N
func NewSentimentSource(name string, tickers ...string) *SentimentSource {
	ranked := make([]core.RankedTicker, len(tickers))
	for i, t := range tickers {
		ranked[i] = core.RankedTicker{Ticker: t, Rank: i + 1, Mentions: int64(100 - i)}
	}
	return &SentimentSource{SourceName: name, Ranked: ranked}
}

func (s *SentimentSource) Name() string {
	return s.SourceName
}

func (s *SentimentSource) FetchRanked(ctx context.Context, limit int) ([]core.RankedTicker, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Ranked) > limit {
		return s.Ranked[:limit], nil
	}
	return s.Ranked, nil
}

// Journal records entries in memory
type Journal struct {
	Entries []core.JournalEntry
	Err     error
}

func (j *Journal) Record(ctx context.Context, entry core.JournalEntry) error {
	if j.Err != nil {
		return j.Err
	}
	j.Entries = append(j.Entries, entry)
	return nil
}

func (j *Journal) Close() error {
	return nil
}
