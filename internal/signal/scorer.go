package signal

import (
	"fmt"

	"hype_trader/internal/core"
)

// RuleSetVersion identifies the canonical scoring table. Earlier generations
// of these rules (two-way SMA cross, percentile blending) are superseded and
// must not be mixed back in.
const RuleSetVersion = "v3"

// Score is the output of the technical scorer
type Score struct {
	// Score is rawScore mapped through (raw+100)/200. It is NOT clamped to
	// [0,1]: rawScore can exceed ±100 by construction, and the out-of-range
	// value is part of the contract.
	Score    float64
	RawScore float64
	Momentum float64 // close-to-close percent change
	Signals  []string
}

// Evaluate scores an indicator set under a directional bias. Bias "" means
// neutral screening. Pure function: same inputs, same output.
func Evaluate(ind *IndicatorSet, bias core.Side) Score {
	var raw float64
	var signals []string

	momentum := 0.0
	if ind.PrevClose != 0 {
		momentum = (ind.Price/ind.PrevClose - 1) * 100
	}

	// Trend: price vs both moving averages, four-way
	aboveShort := ind.Price > ind.SMAShort
	aboveLong := ind.Price > ind.SMALong
	switch {
	case aboveShort && aboveLong && ind.SMAShort > ind.SMALong:
		signals = append(signals, "Strong bullish trend: price above both MAs, 20 over 50")
		raw += 30
	case aboveShort && aboveLong:
		signals = append(signals, "Mixed trend: price above both MAs but 20 under 50")
		raw += 10
	case !aboveShort && !aboveLong:
		signals = append(signals, "Bearish trend: price below both MAs")
		raw -= 30
	default:
		signals = append(signals, "Mixed trend: price between MAs")
		raw -= 10
	}

	// Oscillator (RSI 14)
	switch {
	case ind.RSI < 30:
		if bias != core.SideSell {
			signals = append(signals, fmt.Sprintf("Oversold: RSI at %.2f", ind.RSI))
			raw += 30
		} else {
			signals = append(signals, fmt.Sprintf("Warning: RSI oversold at %.2f", ind.RSI))
			raw -= 15
		}
	case ind.RSI > 70:
		if bias != core.SideBuy {
			signals = append(signals, fmt.Sprintf("Overbought: RSI at %.2f", ind.RSI))
			raw -= 30
		} else {
			signals = append(signals, fmt.Sprintf("Warning: RSI overbought at %.2f", ind.RSI))
			raw += 15
		}
	default:
		signals = append(signals, fmt.Sprintf("RSI neutral at %.2f", ind.RSI))
	}

	// Convergence/divergence. No bias inversion here; this differs from the
	// oscillator rule on purpose.
	diff := ind.MACDDiff()
	switch {
	case diff > -0.1 && diff < 0.1:
		signals = append(signals, fmt.Sprintf("Weak MACD signal: diff %.3f", diff))
		raw -= 10
	case diff > 0.5:
		signals = append(signals, fmt.Sprintf("Strong bullish MACD: diff %.3f", diff))
		raw += 30
	case diff > 0:
		signals = append(signals, fmt.Sprintf("Weak bullish MACD: diff %.3f", diff))
		raw += 10
	case diff < -0.5:
		signals = append(signals, fmt.Sprintf("Strong bearish MACD: diff %.3f", diff))
		raw -= 30
	default:
		signals = append(signals, fmt.Sprintf("Weak bearish MACD: diff %.3f", diff))
		raw -= 10
	}

	// Bollinger bands
	if ind.Price < ind.BBLower {
		if bias != core.SideSell {
			signals = append(signals, "Price below lower band: potential oversold")
			raw += 25
		} else {
			signals = append(signals, "Warning: price below lower band")
			raw -= 15
		}
	} else if ind.Price > ind.BBUpper {
		if bias != core.SideBuy {
			signals = append(signals, "Price above upper band: potential overbought")
			raw -= 25
		} else {
			signals = append(signals, "Warning: price above upper band")
			raw += 15
		}
	}

	// Momentum (24h close-to-close)
	switch {
	case momentum > 2:
		signals = append(signals, fmt.Sprintf("Strong positive momentum: %.1f%%", momentum))
		raw += 30
	case momentum > 0:
		signals = append(signals, fmt.Sprintf("Mild positive momentum: %.1f%%", momentum))
		raw += 15
	case momentum > -2:
		signals = append(signals, fmt.Sprintf("Mild negative momentum: %.1f%%", momentum))
		raw -= 15
	default:
		signals = append(signals, fmt.Sprintf("Strong negative momentum: %.1f%%", momentum))
		raw -= 30
	}

	return Score{
		Score:    (raw + 100) / 200,
		RawScore: raw,
		Momentum: momentum,
		Signals:  signals,
	}
}
