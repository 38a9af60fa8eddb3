// Package ledger mirrors the brokerage's positions locally and layers on the
// state the brokerage does not keep: entry times, high-water marks, and
// pending-order bookkeeping.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"hype_trader/internal/core"
)

// Position is a tracked position. Quantity is signed: negative means short.
// The brokerage view is authoritative for quantity and prices; EntryTime and
// HighWaterMark are maintained locally.
type Position struct {
	Symbol        string
	Qty           decimal.Decimal
	QtyAvailable  decimal.Decimal // shares not tied up by open orders
	EntryPrice    decimal.Decimal
	CurrentPrice  decimal.Decimal
	HighWaterMark decimal.Decimal // highest price observed, never below entry price
	EntryTime     time.Time
}

// CanClose reports whether any shares are free to close. Shares held for open
// orders make a close order bounce, so callers skip the submission instead.
func (p *Position) CanClose() bool {
	return !p.QtyAvailable.IsZero()
}

// Side derives direction from the quantity sign
func (p *Position) Side() core.Side {
	if p.Qty.IsNegative() {
		return core.SideSell
	}
	return core.SideBuy
}

// UpdatePrice records a new observed price. The high-water mark only ratchets up.
func (p *Position) UpdatePrice(price decimal.Decimal) {
	p.CurrentPrice = price
	if price.GreaterThan(p.HighWaterMark) {
		p.HighWaterMark = price
	}
}

// PLPct is the unrealized profit percentage adjusted for direction: a short
// position gains as price falls.
func (p *Position) PLPct() float64 {
	if p.EntryPrice.IsZero() {
		return 0
	}
	raw := p.CurrentPrice.Div(p.EntryPrice).InexactFloat64() - 1
	if p.Side() == core.SideSell {
		raw = -raw
	}
	return raw * 100
}

// DrawdownPct is the percent decline from the high-water mark. Zero or
// negative by construction since the mark never trails the current price.
func (p *Position) DrawdownPct() float64 {
	if p.HighWaterMark.IsZero() {
		return 0
	}
	return (p.CurrentPrice.Div(p.HighWaterMark).InexactFloat64() - 1) * 100
}

// MarketValue is the absolute dollar value of the position
func (p *Position) MarketValue() decimal.Decimal {
	return p.Qty.Mul(p.CurrentPrice).Abs()
}

// Age returns how long the position has been held as of now
func (p *Position) Age(now time.Time) time.Duration {
	return now.Sub(p.EntryTime)
}
