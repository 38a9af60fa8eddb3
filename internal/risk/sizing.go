// Package risk holds the pure decision rules: how large an entry may be and
// when a position must be closed. No I/O here; the engine feeds in state and
// acts on the verdicts.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"hype_trader/internal/config"
)

// Floors applied to the sizing factors so a marginal candidate still gets a
// meaningful position rather than dust.
const (
	minScoreFactor = 0.4
	minRankFactor  = 0.5
	rankFactorSpan = 40.0
)

// SizeRequest carries everything sizing needs to know about one candidate
type SizeRequest struct {
	Equity        decimal.Decimal
	Price         decimal.Decimal
	TechScore     float64
	SentimentRank float64
	TotalExposure float64 // portfolio exposure excluding pending closes, as a fraction of equity

	// For adding to an existing position; zero values mean a fresh entry
	ExistingExposure float64
	ExistingPLPct    float64
	ExistingQty      decimal.Decimal
	HasPosition      bool
}

// SizeResult is the sizing verdict. Admit is false whenever Shares would be
// zero or negative; callers never receive an admitted zero-share order.
type SizeResult struct {
	Admit     bool
	Shares    decimal.Decimal
	TargetPct float64
	Reason    string
}

// SizeTrade converts a scored candidate into a share count. The target
// fraction scales the base size by technical conviction and sentiment rank,
// both floored. Adding to an existing position is only allowed while the
// position is not already at target and not losing beyond the add threshold.
func SizeTrade(req SizeRequest, trading config.TradingConfig, riskCfg config.RiskConfig) SizeResult {
	if req.TotalExposure >= trading.MaxTotalExposure {
		return SizeResult{Reason: fmt.Sprintf("portfolio exposure %.1f%% at limit", req.TotalExposure*100)}
	}
	if req.Price.IsZero() || req.Price.IsNegative() {
		return SizeResult{Reason: "no usable price"}
	}

	scoreFactor := req.TechScore
	if scoreFactor < minScoreFactor {
		scoreFactor = minScoreFactor
	}
	rankFactor := 1 - req.SentimentRank/rankFactorSpan
	if rankFactor < minRankFactor {
		rankFactor = minRankFactor
	}
	targetPct := trading.BasePositionPct * scoreFactor * rankFactor

	if req.HasPosition {
		if req.ExistingExposure >= targetPct {
			return SizeResult{TargetPct: targetPct, Reason: "position already at target size"}
		}
		if req.ExistingPLPct < riskCfg.AddLossThresholdPct {
			return SizeResult{TargetPct: targetPct,
				Reason: fmt.Sprintf("not adding to loser: P&L %.2f%% below %.2f%%", req.ExistingPLPct, riskCfg.AddLossThresholdPct)}
		}
	}

	targetValue := req.Equity.Mul(decimal.NewFromFloat(targetPct))
	heldValue := req.ExistingQty.Mul(req.Price)
	shares := targetValue.Sub(heldValue).Div(req.Price).IntPart()
	if shares <= 0 {
		return SizeResult{TargetPct: targetPct, Reason: "target size rounds to zero shares"}
	}

	return SizeResult{
		Admit:     true,
		Shares:    decimal.NewFromInt(shares),
		TargetPct: targetPct,
	}
}
