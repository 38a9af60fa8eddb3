// Package core defines the shared types and interfaces for the trading agent
package core

import (
	"context"
)

// IBroker defines the brokerage boundary. Every call is a fallible remote
// operation: implementations return a result or an error, never a silently
// defaulted financial figure.
type IBroker interface {
	GetAccount(ctx context.Context) (*AccountSnapshot, error)
	GetAllPositions(ctx context.Context) ([]BrokerPosition, error)
	GetOpenOrders(ctx context.Context) ([]Order, error)
	// GetClosedOrders returns filled/canceled orders for a symbol, oldest first.
	// Used to recover entry times for positions that predate this process.
	GetClosedOrders(ctx context.Context, symbol string, limit int) ([]Order, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (*Order, error)
	ClosePosition(ctx context.Context, symbol string) (*Order, error)
	GetClock(ctx context.Context) (*Clock, error)
}

// IMarketData provides historical OHLCV bars for indicator computation
type IMarketData interface {
	GetBars(ctx context.Context, symbol string, lookbackDays int) ([]Bar, error)
}

// ISentimentSource returns a ranked list of trending tickers. A failing source
// contributes nothing to the cycle's ranking; no retries at this layer.
type ISentimentSource interface {
	Name() string
	FetchRanked(ctx context.Context, limit int) ([]RankedTicker, error)
}

// IJournal records audited trading decisions. Journal failures must never
// abort a cycle.
type IJournal interface {
	Record(ctx context.Context, entry JournalEntry) error
	Close() error
}

// ILogger defines the interface for logging
type ILogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) ILogger
	WithFields(fields map[string]interface{}) ILogger
}
