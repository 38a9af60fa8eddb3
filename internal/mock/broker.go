// Package mock provides in-memory test doubles for the brokerage, market
// data, and sentiment boundaries.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"hype_trader/internal/core"
)

// Broker is an in-memory core.IBroker. Fields are settable by tests; every
// method can be forced to fail via the matching error field.
type Broker struct {
	mu sync.Mutex

	Account   core.AccountSnapshot
	Positions []core.BrokerPosition
	Open      []core.Order
	Closed    map[string][]core.Order
	Clock     core.Clock

	AccountErr   error
	PositionsErr error
	OrdersErr    error
	SubmitErr    error
	CloseErr     error
	ClockErr     error

	Submitted    []core.OrderRequest
	ClosedCalls  []string
	nextOrderSeq int
}

// NewBroker returns a broker with a funded flat account and an open market
func NewBroker() *Broker {
	return &Broker{
		Account: core.AccountSnapshot{
			Equity:           decimal.NewFromInt(100000),
			BuyingPower:      decimal.NewFromInt(200000),
			MarginMultiplier: decimal.NewFromInt(2),
		},
		Closed: make(map[string][]core.Order),
		Clock:  core.Clock{IsOpen: true},
	}
}

func (b *Broker) GetAccount(ctx context.Context) (*core.AccountSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.AccountErr != nil {
		return nil, b.AccountErr
	}
	acct := b.Account
	return &acct, nil
}

func (b *Broker) GetAllPositions(ctx context.Context) ([]core.BrokerPosition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PositionsErr != nil {
		return nil, b.PositionsErr
	}
	out := make([]core.BrokerPosition, len(b.Positions))
	copy(out, b.Positions)
	return out, nil
}

func (b *Broker) GetOpenOrders(ctx context.Context) ([]core.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OrdersErr != nil {
		return nil, b.OrdersErr
	}
	out := make([]core.Order, len(b.Open))
	copy(out, b.Open)
	return out, nil
}

func (b *Broker) GetClosedOrders(ctx context.Context, symbol string, limit int) ([]core.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OrdersErr != nil {
		return nil, b.OrdersErr
	}
	orders := b.Closed[symbol]
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	out := make([]core.Order, len(orders))
	copy(out, orders)
	return out, nil
}

func (b *Broker) SubmitOrder(ctx context.Context, req core.OrderRequest) (*core.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SubmitErr != nil {
		return nil, b.SubmitErr
	}
	b.Submitted = append(b.Submitted, req)
	b.nextOrderSeq++
	return &core.Order{
		ID:            fmt.Sprintf("order-%d", b.nextOrderSeq),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Qty:           req.Qty,
		Side:          req.Side,
		Status:        core.OrderStatusAccepted,
	}, nil
}

func (b *Broker) ClosePosition(ctx context.Context, symbol string) (*core.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CloseErr != nil {
		return nil, b.CloseErr
	}
	b.ClosedCalls = append(b.ClosedCalls, symbol)
	b.nextOrderSeq++
	return &core.Order{
		ID:     fmt.Sprintf("order-%d", b.nextOrderSeq),
		Symbol: symbol,
		Status: core.OrderStatusAccepted,
	}, nil
}

func (b *Broker) GetClock(ctx context.Context) (*core.Clock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ClockErr != nil {
		return nil, b.ClockErr
	}
	clock := b.Clock
	return &clock, nil
}

// SetPosition adds or replaces a position by symbol
func (b *Broker) SetPosition(p core.BrokerPosition) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.Positions {
		if existing.Symbol == p.Symbol {
			b.Positions[i] = p
			return
		}
	}
	b.Positions = append(b.Positions, p)
}

// RemovePosition drops a position by symbol
func (b *Broker) RemovePosition(symbol string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.Positions[:0]
	for _, p := range b.Positions {
		if p.Symbol != symbol {
			out = append(out, p)
		}
	}
	b.Positions = out
}
