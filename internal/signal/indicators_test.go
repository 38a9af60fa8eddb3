package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hype_trader/internal/core"
)

func dailyBars(closes []float64) []core.Bar {
	bars := make([]core.Bar, len(closes))
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = core.Bar{
			Time:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestComputeIndicatorsRejectsShortHistory(t *testing.T) {
	closes := make([]float64, MinBars-1)
	for i := range closes {
		closes[i] = 100
	}
	_, err := ComputeIndicators(dailyBars(closes))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bars")
}

func TestComputeIndicatorsFlatSeries(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100
	}
	ind, err := ComputeIndicators(dailyBars(closes))
	require.NoError(t, err)

	assert.Equal(t, 100.0, ind.Price)
	assert.Equal(t, 100.0, ind.PrevClose)
	assert.InDelta(t, 100.0, ind.SMAShort, 1e-9)
	assert.InDelta(t, 100.0, ind.SMALong, 1e-9)
	assert.InDelta(t, 0.0, ind.MACDDiff(), 1e-9)
	assert.InDelta(t, 100.0, ind.BBMiddle, 1e-9)
	assert.False(t, ind.BelowBothMAs())
}

func TestComputeIndicatorsUptrend(t *testing.T) {
	closes := make([]float64, 120)
	price := 50.0
	for i := range closes {
		closes[i] = price
		price += 0.5
	}
	ind, err := ComputeIndicators(dailyBars(closes))
	require.NoError(t, err)

	assert.Greater(t, ind.Price, ind.SMAShort)
	assert.Greater(t, ind.SMAShort, ind.SMALong)
	assert.Greater(t, ind.RSI, 70.0, "steady gains drive RSI high")
	assert.Equal(t, closes[118], ind.PrevClose)
	assert.False(t, ind.BelowBothMAs())
}

func TestComputeIndicatorsDowntrend(t *testing.T) {
	closes := make([]float64, 120)
	price := 200.0
	for i := range closes {
		closes[i] = price
		price -= 0.5
	}
	ind, err := ComputeIndicators(dailyBars(closes))
	require.NoError(t, err)

	assert.Less(t, ind.Price, ind.SMAShort)
	assert.Less(t, ind.Price, ind.SMALong)
	assert.True(t, ind.BelowBothMAs())
	assert.Less(t, ind.RSI, 30.0)
}
