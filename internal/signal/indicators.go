// Package signal computes technical indicators and turns them into a
// side-biased technical score with a human-readable signal trail.
package signal

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"hype_trader/internal/core"
)

// Indicator periods. Standard parameters, not tunable: the scoring thresholds
// below are calibrated against them.
const (
	shortMAPeriod  = 20
	longMAPeriod   = 50
	rsiPeriod      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignalLen  = 9
	bbandsPeriod   = 20
	bbandsDev      = 2.0
)

// MinBars is the minimum bar history required to fill every indicator
const MinBars = longMAPeriod + 1

// IndicatorSet holds the latest values of every indicator the scorer consumes
type IndicatorSet struct {
	Price     float64
	PrevClose float64 // previous session close, for 24h momentum
	SMAShort  float64
	SMALong   float64
	RSI       float64
	MACD      float64
	MACDSig   float64
	BBUpper   float64
	BBMiddle  float64
	BBLower   float64
}

// MACDDiff returns the convergence/divergence spread (fast signal minus slow signal)
func (s *IndicatorSet) MACDDiff() float64 {
	return s.MACD - s.MACDSig
}

// BelowBothMAs reports whether price sits under both moving averages
func (s *IndicatorSet) BelowBothMAs() bool {
	return s.Price < s.SMAShort && s.Price < s.SMALong
}

// ComputeIndicators derives the latest IndicatorSet from a daily bar series
func ComputeIndicators(bars []core.Bar) (*IndicatorSet, error) {
	if len(bars) < MinBars {
		return nil, fmt.Errorf("need at least %d bars, got %d", MinBars, len(bars))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	smaShort := talib.Sma(closes, shortMAPeriod)
	smaLong := talib.Sma(closes, longMAPeriod)
	rsi := talib.Rsi(closes, rsiPeriod)
	macd, macdSignal, _ := talib.Macd(closes, macdFast, macdSlow, macdSignalLen)
	upper, middle, lower := talib.BBands(closes, bbandsPeriod, bbandsDev, bbandsDev, talib.SMA)

	last := len(closes) - 1
	return &IndicatorSet{
		Price:     closes[last],
		PrevClose: closes[last-1],
		SMAShort:  smaShort[last],
		SMALong:   smaLong[last],
		RSI:       rsi[last],
		MACD:      macd[last],
		MACDSig:   macdSignal[last],
		BBUpper:   upper[last],
		BBMiddle:  middle[last],
		BBLower:   lower[last],
	}, nil
}
