package mock

import (
	"context"
	"sync"
	"time"

	"hype_trader/internal/core"
)

// MarketData serves canned bar series keyed by symbol
type MarketData struct {
	mu   sync.Mutex
	Bars map[string][]core.Bar
	Err  error
}

// NewMarketData returns an empty market data stub
func NewMarketData() *MarketData {
	return &MarketData{Bars: make(map[string][]core.Bar)}
}

func (m *MarketData) GetBars(ctx context.Context, symbol string, lookbackDays int) ([]core.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Bars[symbol], nil
}

// SetTrendingBars installs n daily bars ending at endPrice with a constant
// daily step, enough to drive the indicator pipeline in tests.
func (m *MarketData) SetTrendingBars(symbol string, n int, endPrice, dailyStep float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bars := make([]core.Bar, n)
	day := time.Now().UTC().AddDate(0, 0, -n)
	price := endPrice - dailyStep*float64(n-1)
	for i := range bars {
		bars[i] = core.Bar{
			Time:   day.AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1_000_000,
		}
		price += dailyStep
	}
	m.Bars[symbol] = bars
}
