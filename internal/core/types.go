package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an order or position
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the closing side for this side
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderStatus represents the brokerage-reported order state
type OrderStatus string

const (
	OrderStatusNew           OrderStatus = "new"
	OrderStatusAccepted      OrderStatus = "accepted"
	OrderStatusPendingNew    OrderStatus = "pending_new"
	OrderStatusPartiallyFill OrderStatus = "partially_filled"
	OrderStatusFilled        OrderStatus = "filled"
	OrderStatusCanceled      OrderStatus = "canceled"
	OrderStatusRejected      OrderStatus = "rejected"
	OrderStatusExpired       OrderStatus = "expired"
)

// IsPending reports whether the order is still waiting at the brokerage
func (s OrderStatus) IsPending() bool {
	switch s {
	case OrderStatusNew, OrderStatusAccepted, OrderStatusPendingNew, OrderStatusPartiallyFill:
		return true
	}
	return false
}

// BrokerPosition is a position as reported by the brokerage. The ledger treats
// this as the authoritative view and mirrors it each cycle.
type BrokerPosition struct {
	Symbol        string
	Qty           decimal.Decimal // signed, sign encodes long/short
	AvgEntryPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	QtyAvailable  decimal.Decimal // shares not held for open orders
}

// Side derives the position direction from the sign of Qty
func (p BrokerPosition) Side() Side {
	if p.Qty.IsNegative() {
		return SideSell
	}
	return SideBuy
}

// AccountSnapshot holds account figures fetched fresh every decision cycle.
// Never cached across cycles: it must reflect the latest fills.
type AccountSnapshot struct {
	Equity                decimal.Decimal
	BuyingPower           decimal.Decimal
	InitialMargin         decimal.Decimal
	MarginMultiplier      decimal.Decimal
	DaytradingBuyingPower decimal.Decimal
}

// Order is a brokerage order, live or historical
type Order struct {
	ID            string
	ClientOrderID string
	Symbol        string
	Qty           decimal.Decimal
	Side          Side
	Status        OrderStatus
	SubmittedAt   time.Time
	FilledAt      time.Time
}

// OrderRequest describes a market order to submit
type OrderRequest struct {
	Symbol        string
	Qty           decimal.Decimal
	Side          Side
	TimeInForce   string // "day"
	ClientOrderID string
}

// PendingOrder tracks an in-flight entry order, used only to prevent duplicate
// submissions for the same symbol within a cycle.
type PendingOrder struct {
	Symbol  string
	Shares  decimal.Decimal
	Side    Side
	OrderID string
}

// Clock is the brokerage market clock
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// Bar is a single OHLCV bar. Prices are float64 because bars feed the
// indicator library directly; money figures elsewhere use decimal.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// RankedTicker is one entry of a source's ranked list (rank 1..N, lower is better)
type RankedTicker struct {
	Ticker   string
	Rank     int
	Mentions int64
}

// Candidate is an ephemeral per-cycle trading candidate. Not persisted.
type Candidate struct {
	Ticker string
	Price  decimal.Decimal

	// Sentiment side
	SentimentRank float64
	SourceRanks   map[string]int // raw per-source ranks kept for auditability
	Mentions      int64

	// Technical side
	TechScore float64
	RawScore  float64
	Momentum  float64
	Signals   []string

	TechnicalRank int
	FinalRank     float64 // sentiment rank + technical rank, lower is better
}

// JournalEntry is one audited decision
type JournalEntry struct {
	Time   time.Time
	Cycle  int64
	Symbol string
	Action string // "entry", "exit", "reject", "rotation", "hold"
	Rule   string
	Detail string
}
