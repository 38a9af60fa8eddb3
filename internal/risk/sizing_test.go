package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hype_trader/internal/config"
)

func sizingDefaults() (config.TradingConfig, config.RiskConfig) {
	cfg := config.Default()
	return cfg.Trading, cfg.Risk
}

func TestSizeTradeFreshEntry(t *testing.T) {
	trading, riskCfg := sizingDefaults()
	res := SizeTrade(SizeRequest{
		Equity:        decimal.NewFromInt(100000),
		Price:         decimal.NewFromInt(30),
		TechScore:     0.5,
		SentimentRank: 10,
	}, trading, riskCfg)

	require.True(t, res.Admit)
	// 8% base * 0.5 score * (1 - 10/40) rank = 3% of 100k = $3000 at $30
	assert.InDelta(t, 0.03, res.TargetPct, 1e-9)
	assert.Equal(t, int64(100), res.Shares.IntPart())
}

func TestSizeTradeDampensOnSentimentRankOnly(t *testing.T) {
	trading, riskCfg := sizingDefaults()
	// Sentiment rank 5 gives factor 0.875; the technical rank added into the
	// final rank never shrinks the position
	res := SizeTrade(SizeRequest{
		Equity:        decimal.NewFromInt(100000),
		Price:         decimal.NewFromInt(30),
		TechScore:     0.5,
		SentimentRank: 5,
	}, trading, riskCfg)

	require.True(t, res.Admit)
	assert.InDelta(t, 0.08*0.5*0.875, res.TargetPct, 1e-9)
	assert.Equal(t, int64(116), res.Shares.IntPart())
}

func TestSizeTradeFactorsAreFloored(t *testing.T) {
	trading, riskCfg := sizingDefaults()
	res := SizeTrade(SizeRequest{
		Equity:        decimal.NewFromInt(100000),
		Price:         decimal.NewFromInt(10),
		TechScore:     0.1, // floors to 0.4
		SentimentRank: 35,  // rank factor 0.125 floors to 0.5
	}, trading, riskCfg)

	require.True(t, res.Admit)
	assert.InDelta(t, 0.08*0.4*0.5, res.TargetPct, 1e-9)
	assert.Equal(t, int64(160), res.Shares.IntPart())
}

func TestSizeTradeRejectsAtExposureCap(t *testing.T) {
	trading, riskCfg := sizingDefaults()
	res := SizeTrade(SizeRequest{
		Equity:        decimal.NewFromInt(100000),
		Price:         decimal.NewFromInt(30),
		TechScore:     0.9,
		SentimentRank: 2,
		TotalExposure: 1.6,
	}, trading, riskCfg)

	assert.False(t, res.Admit)
	assert.Contains(t, res.Reason, "exposure")
}

func TestSizeTradeRejectsZeroShares(t *testing.T) {
	trading, riskCfg := sizingDefaults()
	res := SizeTrade(SizeRequest{
		Equity:        decimal.NewFromInt(1000),
		Price:         decimal.NewFromInt(5000), // target value rounds below one share
		TechScore:     0.9,
		SentimentRank: 2,
	}, trading, riskCfg)

	assert.False(t, res.Admit)
	assert.True(t, res.Shares.IsZero())
}

func TestSizeTradeTopsUpExistingPosition(t *testing.T) {
	trading, riskCfg := sizingDefaults()
	res := SizeTrade(SizeRequest{
		Equity:           decimal.NewFromInt(100000),
		Price:            decimal.NewFromInt(30),
		TechScore:        0.5,
		SentimentRank:    10,
		HasPosition:      true,
		ExistingQty:      decimal.NewFromInt(40), // $1200 held of a $3000 target
		ExistingExposure: 0.012,
		ExistingPLPct:    1.5,
	}, trading, riskCfg)

	require.True(t, res.Admit)
	assert.Equal(t, int64(60), res.Shares.IntPart())
}

func TestSizeTradeRejectsAddingToLoser(t *testing.T) {
	trading, riskCfg := sizingDefaults()
	res := SizeTrade(SizeRequest{
		Equity:           decimal.NewFromInt(100000),
		Price:            decimal.NewFromInt(30),
		TechScore:        0.5,
		SentimentRank:    10,
		HasPosition:      true,
		ExistingQty:      decimal.NewFromInt(40),
		ExistingExposure: 0.012,
		ExistingPLPct:    -3.0, // beyond the -2% add threshold
	}, trading, riskCfg)

	assert.False(t, res.Admit)
	assert.Contains(t, res.Reason, "loser")
}

func TestSizeTradeRejectsPositionAtTarget(t *testing.T) {
	trading, riskCfg := sizingDefaults()
	res := SizeTrade(SizeRequest{
		Equity:           decimal.NewFromInt(100000),
		Price:            decimal.NewFromInt(30),
		TechScore:        0.5,
		SentimentRank:    10,
		HasPosition:      true,
		ExistingQty:      decimal.NewFromInt(100),
		ExistingExposure: 0.03,
		ExistingPLPct:    2.0,
	}, trading, riskCfg)

	assert.False(t, res.Admit)
	assert.Contains(t, res.Reason, "target")
}

func TestSizeTradeRejectsUnusablePrice(t *testing.T) {
	trading, riskCfg := sizingDefaults()
	res := SizeTrade(SizeRequest{
		Equity:        decimal.NewFromInt(100000),
		TechScore:     0.9,
		SentimentRank: 2,
	}, trading, riskCfg)

	assert.False(t, res.Admit)
}
