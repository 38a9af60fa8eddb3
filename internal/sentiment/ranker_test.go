package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hype_trader/internal/core"
)

func TestMergeRanksBothSources(t *testing.T) {
	lists := []RankedList{
		{
			Source: "apewisdom",
			Limit:  20,
			Entries: []core.RankedTicker{
				{Ticker: "AAPL", Rank: 1, Mentions: 500},
				{Ticker: "MSFT", Rank: 2, Mentions: 300},
			},
		},
		{
			Source: "stocktwits",
			Limit:  20,
			Entries: []core.RankedTicker{
				{Ticker: "AAPL", Rank: 1, Mentions: 900},
				{Ticker: "TSLA", Rank: 2, Mentions: 800},
			},
		},
	}

	merged := MergeRanks(lists)
	require.Len(t, merged, 3)

	byTicker := make(map[string]Ranked)
	for _, r := range merged {
		byTicker[r.Ticker] = r
	}

	// Present in both: mean of observed ranks
	aapl := byTicker["AAPL"]
	assert.Equal(t, 1.0, aapl.SentimentRank)
	assert.Equal(t, int64(1400), aapl.Mentions)
	assert.Equal(t, 1, aapl.SourceRanks["apewisdom"])
	assert.Equal(t, 1, aapl.SourceRanks["stocktwits"])

	// Present in one: the observed rank, not the mean with the penalty slot
	msft := byTicker["MSFT"]
	assert.Equal(t, 2.0, msft.SentimentRank)
	assert.Equal(t, 2, msft.SourceRanks["apewisdom"])
	assert.Equal(t, 21, msft.SourceRanks["stocktwits"])

	tsla := byTicker["TSLA"]
	assert.Equal(t, 2.0, tsla.SentimentRank)
	assert.Equal(t, 21, tsla.SourceRanks["apewisdom"])
	assert.Equal(t, 2, tsla.SourceRanks["stocktwits"])
}

func TestMergeRanksSortedAndTieBroken(t *testing.T) {
	lists := []RankedList{
		{
			Source: "apewisdom",
			Limit:  20,
			Entries: []core.RankedTicker{
				{Ticker: "GME", Rank: 1},
				{Ticker: "AMC", Rank: 2},
			},
		},
		{
			Source: "stocktwits",
			Limit:  20,
			Entries: []core.RankedTicker{
				{Ticker: "AMC", Rank: 1},
				{Ticker: "GME", Rank: 2},
			},
		},
	}

	merged := MergeRanks(lists)
	require.Len(t, merged, 2)
	// Both rank 1.5, alphabetical tie break
	assert.Equal(t, "AMC", merged[0].Ticker)
	assert.Equal(t, "GME", merged[1].Ticker)
	assert.Equal(t, 1.5, merged[0].SentimentRank)
	assert.Equal(t, 1.5, merged[1].SentimentRank)
}

func TestMergeRanksEmptyInput(t *testing.T) {
	assert.Empty(t, MergeRanks(nil))
	assert.Empty(t, MergeRanks([]RankedList{{Source: "apewisdom", Limit: 20}}))
}

func TestAttachTechnicalRanks(t *testing.T) {
	candidates := []*core.Candidate{
		{Ticker: "AAA", SentimentRank: 3, TechScore: 0.40},
		{Ticker: "BBB", SentimentRank: 1, TechScore: 0.80},
		{Ticker: "CCC", SentimentRank: 2, TechScore: 0.60},
	}

	AttachTechnicalRanks(candidates)

	assert.Equal(t, 1, candidates[1].TechnicalRank) // BBB, best tech score
	assert.Equal(t, 2, candidates[2].TechnicalRank)
	assert.Equal(t, 3, candidates[0].TechnicalRank)

	assert.Equal(t, 2.0, candidates[1].FinalRank) // 1 + 1
	assert.Equal(t, 4.0, candidates[2].FinalRank) // 2 + 2
	assert.Equal(t, 6.0, candidates[0].FinalRank) // 3 + 3
}

func TestAttachTechnicalRanksStableOnTies(t *testing.T) {
	candidates := []*core.Candidate{
		{Ticker: "AAA", SentimentRank: 1, TechScore: 0.5},
		{Ticker: "BBB", SentimentRank: 2, TechScore: 0.5},
	}

	AttachTechnicalRanks(candidates)

	assert.Equal(t, 1, candidates[0].TechnicalRank)
	assert.Equal(t, 2, candidates[1].TechnicalRank)
}
