package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hype_trader/internal/core"
	"hype_trader/pkg/telemetry"
)

// Ledger reconciles the local position view with the brokerage each cycle.
// The brokerage is the source of truth for holdings; the ledger adds the
// locally owned state and the per-cycle pending bookkeeping.
type Ledger struct {
	broker core.IBroker
	store  *EntryTimeStore
	logger core.ILogger

	positions     map[string]*Position
	pendingOrders map[string]core.PendingOrder
	pendingCloses map[string]bool
}

// NewLedger creates a ledger backed by the given brokerage and entry time store
func NewLedger(broker core.IBroker, store *EntryTimeStore, logger core.ILogger) *Ledger {
	return &Ledger{
		broker:        broker,
		store:         store,
		logger:        logger.WithField("component", "ledger"),
		positions:     make(map[string]*Position),
		pendingOrders: make(map[string]core.PendingOrder),
		pendingCloses: make(map[string]bool),
	}
}

// Refresh pulls positions and open orders from the brokerage and reconciles
// the local view: new positions get entry times recovered, vanished positions
// are dropped, surviving ones get price and high-water-mark updates. Pending
// close flags reset every refresh since the brokerage view reflects any fills.
func (l *Ledger) Refresh(ctx context.Context, equity decimal.Decimal) error {
	brokerPositions, err := l.broker.GetAllPositions(ctx)
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}

	seen := make(map[string]bool, len(brokerPositions))
	for _, bp := range brokerPositions {
		seen[bp.Symbol] = true
		pos, ok := l.positions[bp.Symbol]
		if !ok {
			pos = &Position{
				Symbol:     bp.Symbol,
				EntryPrice: bp.AvgEntryPrice,
				// Seeded at entry so a position recovered under water still
				// reports its true drawdown
				HighWaterMark: decimal.Max(bp.AvgEntryPrice, bp.CurrentPrice),
				EntryTime:     l.recoverEntryTime(ctx, bp),
			}
			l.positions[bp.Symbol] = pos
		}
		pos.Qty = bp.Qty
		pos.QtyAvailable = bp.QtyAvailable
		pos.EntryPrice = bp.AvgEntryPrice
		pos.UpdatePrice(bp.CurrentPrice)
	}

	for symbol := range l.positions {
		if !seen[symbol] {
			delete(l.positions, symbol)
			if err := l.store.Forget(symbol); err != nil {
				l.logger.Warn("failed to forget entry time", "symbol", symbol, "error", err)
			}
			l.logger.Info("position closed at brokerage", "symbol", symbol)
		}
	}
	l.pendingCloses = make(map[string]bool)

	if err := l.refreshPendingOrders(ctx); err != nil {
		return err
	}

	exposure := l.TotalExposure(equity)
	telemetry.MetricOpenPositions.Set(float64(len(l.positions)))
	telemetry.MetricTotalExposure.Set(exposure)

	l.narrate(equity, exposure)
	return nil
}

// recoverEntryTime resolves when a position was opened: the persisted store
// first, then the earliest matching fill in order history, then now as a last
// resort (which restarts the grace window, the conservative failure mode).
func (l *Ledger) recoverEntryTime(ctx context.Context, bp core.BrokerPosition) time.Time {
	if t, ok := l.store.Get(bp.Symbol); ok {
		return t
	}

	entry := time.Now().UTC()
	orders, err := l.broker.GetClosedOrders(ctx, bp.Symbol, 50)
	if err != nil {
		l.logger.Warn("failed to fetch order history for entry time", "symbol", bp.Symbol, "error", err)
	} else {
		for _, o := range orders {
			if o.Status != core.OrderStatusFilled || o.Side != bp.Side() || o.FilledAt.IsZero() {
				continue
			}
			if o.FilledAt.Before(entry) {
				entry = o.FilledAt
			}
		}
	}

	if err := l.store.Set(bp.Symbol, entry); err != nil {
		l.logger.Warn("failed to persist entry time", "symbol", bp.Symbol, "error", err)
	}
	return entry
}

func (l *Ledger) refreshPendingOrders(ctx context.Context) error {
	orders, err := l.broker.GetOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch open orders: %w", err)
	}

	l.pendingOrders = make(map[string]core.PendingOrder, len(orders))
	for _, o := range orders {
		if !o.Status.IsPending() {
			continue
		}
		l.pendingOrders[o.Symbol] = core.PendingOrder{
			Symbol:  o.Symbol,
			Shares:  o.Qty,
			Side:    o.Side,
			OrderID: o.ID,
		}
	}
	return nil
}

// RecordEntry persists the entry time for a freshly opened position
func (l *Ledger) RecordEntry(symbol string, t time.Time) {
	if err := l.store.Set(symbol, t); err != nil {
		l.logger.Warn("failed to persist entry time", "symbol", symbol, "error", err)
	}
}

// AddPendingOrder registers an in-flight order so the same symbol is not
// traded twice within a cycle
func (l *Ledger) AddPendingOrder(o core.PendingOrder) {
	l.pendingOrders[o.Symbol] = o
}

// HasPendingOrder reports whether an order for symbol is in flight
func (l *Ledger) HasPendingOrder(symbol string) bool {
	_, ok := l.pendingOrders[symbol]
	return ok
}

// MarkPendingClose flags a position as having a close submitted. Idempotent;
// the flag prevents duplicate close orders until the next refresh confirms the fill.
func (l *Ledger) MarkPendingClose(symbol string) {
	l.pendingCloses[symbol] = true
}

// IsPendingClose reports whether a close has already been submitted for symbol
func (l *Ledger) IsPendingClose(symbol string) bool {
	return l.pendingCloses[symbol]
}

// Position returns the tracked position for symbol, or nil
func (l *Ledger) Position(symbol string) *Position {
	return l.positions[symbol]
}

// ActivePositions returns held positions without a pending close, sorted by
// symbol for deterministic iteration
func (l *Ledger) ActivePositions() []*Position {
	out := make([]*Position, 0, len(l.positions))
	for symbol, p := range l.positions {
		if l.pendingCloses[symbol] {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// TotalExposure returns the sum of absolute position values as a fraction of equity
func (l *Ledger) TotalExposure(equity decimal.Decimal) float64 {
	if equity.IsZero() {
		return 0
	}
	total := decimal.Zero
	for _, p := range l.positions {
		total = total.Add(p.MarketValue())
	}
	return total.Div(equity).InexactFloat64()
}

// ActiveExposure is TotalExposure without pending-close positions. New-trade
// admission uses this figure so capital about to be freed by an in-flight
// close is not counted twice.
func (l *Ledger) ActiveExposure(equity decimal.Decimal) float64 {
	if equity.IsZero() {
		return 0
	}
	total := decimal.Zero
	for symbol, p := range l.positions {
		if l.pendingCloses[symbol] {
			continue
		}
		total = total.Add(p.MarketValue())
	}
	return total.Div(equity).InexactFloat64()
}

// Exposure returns one position's value as a fraction of equity
func (l *Ledger) Exposure(p *Position, equity decimal.Decimal) float64 {
	if equity.IsZero() {
		return 0
	}
	return p.MarketValue().Div(equity).InexactFloat64()
}

func (l *Ledger) narrate(equity decimal.Decimal, exposure float64) {
	l.logger.Info("portfolio status",
		"positions", len(l.positions),
		"pending_orders", len(l.pendingOrders),
		"equity", equity.StringFixed(2),
		"exposure_pct", fmt.Sprintf("%.1f", exposure*100),
	)
	for _, p := range l.ActivePositions() {
		l.logger.Info("holding",
			"symbol", p.Symbol,
			"side", p.Side(),
			"qty", p.Qty.String(),
			"entry", p.EntryPrice.StringFixed(2),
			"price", p.CurrentPrice.StringFixed(2),
			"pl_pct", fmt.Sprintf("%.2f", p.PLPct()),
			"drawdown_pct", fmt.Sprintf("%.2f", p.DrawdownPct()),
		)
	}
}
