package engine

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hype_trader/internal/alert"
	"hype_trader/internal/broker"
	"hype_trader/internal/config"
	"hype_trader/internal/core"
	"hype_trader/internal/ledger"
	"hype_trader/internal/logging"
	"hype_trader/internal/mock"
)

type fixture struct {
	engine  *Engine
	broker  *mock.Broker
	data    *mock.MarketData
	source  *mock.SentimentSource
	journal *mock.Journal
	ledger  *ledger.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Broker.APIKey = "k"
	cfg.Broker.APISecret = "s"

	brk := mock.NewBroker()
	now := time.Now().UTC()
	brk.Clock = core.Clock{
		Timestamp: now,
		IsOpen:    true,
		NextOpen:  now.Add(18 * time.Hour),
		NextClose: now.Add(time.Hour), // session opened hours ago
	}

	data := mock.NewMarketData()
	source := mock.NewSentimentSource("apewisdom")
	jnl := &mock.Journal{}

	store, err := ledger.NewEntryTimeStore(filepath.Join(t.TempDir(), "entries.csv"))
	require.NoError(t, err)
	led := ledger.NewLedger(brk, store, logging.NewNop())

	eng := New(cfg, brk, data, []core.ISentimentSource{source}, led, jnl, alert.NewManager(logging.NewNop()), logging.NewNop())
	return &fixture{engine: eng, broker: brk, data: data, source: source, journal: jnl, ledger: led}
}

func (f *fixture) holdPosition(symbol string, entry, current float64, entryTime time.Time) {
	f.broker.SetPosition(core.BrokerPosition{
		Symbol:        symbol,
		Qty:           decimal.NewFromInt(10),
		QtyAvailable:  decimal.NewFromInt(10),
		AvgEntryPrice: decimal.NewFromFloat(entry),
		CurrentPrice:  decimal.NewFromFloat(current),
	})
	f.broker.Closed[symbol] = []core.Order{
		{Symbol: symbol, Side: core.SideBuy, Status: core.OrderStatusFilled, FilledAt: entryTime},
	}
}

func TestCycleEntersStrongCandidate(t *testing.T) {
	f := newFixture(t)
	f.source.Ranked = []core.RankedTicker{{Ticker: "NVDA", Rank: 1, Mentions: 900}}
	f.data.SetTrendingBars("NVDA", 120, 100.0, 0.5)

	require.NoError(t, f.engine.RunCycle(context.Background()))

	require.Len(t, f.broker.Submitted, 1)
	order := f.broker.Submitted[0]
	assert.Equal(t, "NVDA", order.Symbol)
	assert.Equal(t, core.SideBuy, order.Side)
	assert.True(t, order.Qty.GreaterThan(decimal.Zero))
	assert.True(t, strings.HasPrefix(order.ClientOrderID, "hype-"))
	assert.Equal(t, "day", order.TimeInForce)

	var entries []core.JournalEntry
	for _, e := range f.journal.Entries {
		if e.Action == "entry" {
			entries = append(entries, e)
		}
	}
	require.Len(t, entries, 1)
	assert.Equal(t, "NVDA", entries[0].Symbol)
}

func TestCycleRejectsWeakCandidate(t *testing.T) {
	f := newFixture(t)
	f.source.Ranked = []core.RankedTicker{{Ticker: "MEME", Rank: 1, Mentions: 500}}
	f.data.SetTrendingBars("MEME", 120, 50.0, -0.5) // steady downtrend

	require.NoError(t, f.engine.RunCycle(context.Background()))

	assert.Empty(t, f.broker.Submitted)
	var rejects []core.JournalEntry
	for _, e := range f.journal.Entries {
		if e.Action == "reject" {
			rejects = append(rejects, e)
		}
	}
	require.NotEmpty(t, rejects)
	assert.Equal(t, "weak_score", rejects[0].Rule)
}

func TestCycleSkipsCryptoTickers(t *testing.T) {
	f := newFixture(t)
	f.source.Ranked = []core.RankedTicker{{Ticker: "BTC.X", Rank: 1, Mentions: 9000}}
	f.data.SetTrendingBars("BTC.X", 120, 100.0, 0.5)

	require.NoError(t, f.engine.RunCycle(context.Background()))
	assert.Empty(t, f.broker.Submitted)
}

func TestCycleSkipsCandidateWithoutHistory(t *testing.T) {
	f := newFixture(t)
	f.source.Ranked = []core.RankedTicker{{Ticker: "IPO", Rank: 1, Mentions: 400}}
	f.data.SetTrendingBars("IPO", 20, 50.0, 0.5) // too few bars for indicators

	require.NoError(t, f.engine.RunCycle(context.Background()))
	assert.Empty(t, f.broker.Submitted)
}

func TestExitsRunWhileMarketClosed(t *testing.T) {
	f := newFixture(t)
	f.broker.Clock.IsOpen = false
	// -12% breaches the hard stop
	f.holdPosition("LOSS", 100, 88, time.Now().UTC().Add(-2*time.Hour))
	f.source.Ranked = []core.RankedTicker{{Ticker: "NVDA", Rank: 1}}
	f.data.SetTrendingBars("NVDA", 120, 100.0, 0.5)

	require.NoError(t, f.engine.RunCycle(context.Background()))

	assert.Contains(t, f.broker.ClosedCalls, "LOSS")
	assert.Empty(t, f.broker.Submitted, "no entries while the market is closed")
}

func TestCloseDeferredWhenSharesHeld(t *testing.T) {
	f := newFixture(t)
	// Hard stop breached, but every share is tied up by an open order
	f.broker.SetPosition(core.BrokerPosition{
		Symbol:        "LOSS",
		Qty:           decimal.NewFromInt(10),
		QtyAvailable:  decimal.Zero,
		AvgEntryPrice: decimal.NewFromFloat(100),
		CurrentPrice:  decimal.NewFromFloat(88),
	})
	f.broker.Closed["LOSS"] = []core.Order{
		{Symbol: "LOSS", Side: core.SideBuy, Status: core.OrderStatusFilled, FilledAt: time.Now().UTC().Add(-2 * time.Hour)},
	}

	require.NoError(t, f.engine.RunCycle(context.Background()))
	assert.Empty(t, f.broker.ClosedCalls, "close must wait until shares free up")
}

func TestOpeningGuardSuppressesEntries(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	// Session opened 20 minutes ago, inside the 30 minute guard
	f.broker.Clock = core.Clock{
		Timestamp: now,
		IsOpen:    true,
		NextClose: now.Add(370 * time.Minute),
	}
	f.source.Ranked = []core.RankedTicker{{Ticker: "NVDA", Rank: 1}}
	f.data.SetTrendingBars("NVDA", 120, 100.0, 0.5)

	require.NoError(t, f.engine.RunCycle(context.Background()))
	assert.Empty(t, f.broker.Submitted)
}

func TestHealthyPositionIsHeld(t *testing.T) {
	f := newFixture(t)
	f.holdPosition("KEEP", 100, 103, time.Now().UTC().Add(-2*time.Hour))
	f.data.SetTrendingBars("KEEP", 120, 103.0, 0.5)

	require.NoError(t, f.engine.RunCycle(context.Background()))
	assert.Empty(t, f.broker.ClosedCalls)
}

func TestPendingOrderBlocksDuplicateEntry(t *testing.T) {
	f := newFixture(t)
	f.broker.Open = []core.Order{
		{ID: "o1", Symbol: "NVDA", Qty: decimal.NewFromInt(10), Side: core.SideBuy, Status: core.OrderStatusNew},
	}
	f.source.Ranked = []core.RankedTicker{{Ticker: "NVDA", Rank: 1}}
	f.data.SetTrendingBars("NVDA", 120, 100.0, 0.5)

	require.NoError(t, f.engine.RunCycle(context.Background()))
	assert.Empty(t, f.broker.Submitted)
}

func TestInsufficientCapitalRotatesWorstPosition(t *testing.T) {
	f := newFixture(t)
	entryTime := time.Now().UTC().Add(-2 * time.Hour)
	// Held but nowhere on today's candidate list: worst possible rank
	f.holdPosition("OLDY", 100, 101, entryTime)
	f.source.Ranked = []core.RankedTicker{{Ticker: "NVDA", Rank: 1, Mentions: 900}}
	f.data.SetTrendingBars("NVDA", 120, 100.0, 0.5)
	f.broker.SubmitErr = broker.ErrInsufficientCapital

	require.NoError(t, f.engine.RunCycle(context.Background()))

	assert.Contains(t, f.broker.ClosedCalls, "OLDY")
	var rotations []core.JournalEntry
	for _, e := range f.journal.Entries {
		if e.Action == "rotation" {
			rotations = append(rotations, e)
		}
	}
	require.Len(t, rotations, 1)
	assert.Equal(t, "OLDY", rotations[0].Symbol)
}

func TestRotationNeverClosesBetterRankedPosition(t *testing.T) {
	f := newFixture(t)
	entryTime := time.Now().UTC().Add(-2 * time.Hour)
	f.holdPosition("TOPP", 100, 101, entryTime)
	// Both held and candidate tickers are analyzed; TOPP ranks ahead of NVDA
	f.source.Ranked = []core.RankedTicker{
		{Ticker: "TOPP", Rank: 1, Mentions: 900},
		{Ticker: "NVDA", Rank: 2, Mentions: 800},
	}
	f.data.SetTrendingBars("TOPP", 120, 101.0, 0.5)
	f.data.SetTrendingBars("NVDA", 120, 100.0, 0.5)
	f.broker.SubmitErr = broker.ErrInsufficientCapital

	require.NoError(t, f.engine.RunCycle(context.Background()))

	assert.NotContains(t, f.broker.ClosedCalls, "TOPP")
}

func TestCycleErrorWhenBrokerDown(t *testing.T) {
	f := newFixture(t)
	f.broker.ClockErr = assert.AnError
	assert.Error(t, f.engine.RunCycle(context.Background()))
}
