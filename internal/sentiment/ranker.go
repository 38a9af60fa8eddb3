// Package sentiment pulls ranked ticker lists from social sources and merges
// them into a single sentiment rank per ticker.
package sentiment

import (
	"sort"

	"hype_trader/internal/core"
)

// RankedList is one source's contribution: ranks 1..Limit, lower is better
type RankedList struct {
	Source  string
	Limit   int
	Entries []core.RankedTicker
}

// Ranked is a ticker with its merged sentiment rank
type Ranked struct {
	Ticker        string
	SentimentRank float64
	SourceRanks   map[string]int // raw per-source ranks, absent sources carry Limit+1
	Mentions      int64
}

// MergeRanks outer-joins all tickers across sources. A ticker absent from a
// source is recorded with rank Limit+1 in that source's column (worse than
// last place), but only the ranks actually observed feed the merged rank:
// present in two or more sources means the mean of the observed ranks,
// present in exactly one means that rank.
func MergeRanks(lists []RankedList) []Ranked {
	type acc struct {
		observed []int
		sources  map[string]int
		mentions int64
	}
	byTicker := make(map[string]*acc)

	for _, list := range lists {
		for _, e := range list.Entries {
			a, ok := byTicker[e.Ticker]
			if !ok {
				a = &acc{sources: make(map[string]int)}
				byTicker[e.Ticker] = a
			}
			a.observed = append(a.observed, e.Rank)
			a.sources[list.Source] = e.Rank
			a.mentions += e.Mentions
		}
	}

	// Fill the penalty rank for sources that missed a ticker
	for _, list := range lists {
		for _, a := range byTicker {
			if _, ok := a.sources[list.Source]; !ok {
				a.sources[list.Source] = list.Limit + 1
			}
		}
	}

	out := make([]Ranked, 0, len(byTicker))
	for ticker, a := range byTicker {
		sum := 0
		for _, r := range a.observed {
			sum += r
		}
		out = append(out, Ranked{
			Ticker:        ticker,
			SentimentRank: float64(sum) / float64(len(a.observed)),
			SourceRanks:   a.sources,
			Mentions:      a.mentions,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SentimentRank != out[j].SentimentRank {
			return out[i].SentimentRank < out[j].SentimentRank
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// AttachTechnicalRanks assigns each candidate its 1..M ordinal position by
// technical score descending and sets FinalRank = sentiment + technical rank.
// Candidates reaching this function already have technical data; those
// without are dropped earlier, not penalized.
func AttachTechnicalRanks(candidates []*core.Candidate) {
	byScore := make([]*core.Candidate, len(candidates))
	copy(byScore, candidates)
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].TechScore > byScore[j].TechScore
	})
	for i, c := range byScore {
		c.TechnicalRank = i + 1
		c.FinalRank = c.SentimentRank + float64(c.TechnicalRank)
	}
}
