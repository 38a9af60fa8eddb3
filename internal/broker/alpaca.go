package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"hype_trader/internal/config"
	"hype_trader/internal/core"
	pkghttp "hype_trader/pkg/http"
)

// keySigner injects the Alpaca API key headers into every request
type keySigner struct {
	key    string
	secret string
}

func (s *keySigner) SignRequest(req *http.Request) error {
	req.Header.Set("APCA-API-KEY-ID", s.key)
	req.Header.Set("APCA-API-SECRET-KEY", s.secret)
	return nil
}

// Alpaca talks to the Alpaca Trading API for account, order, and position
// operations and to the Market Data API for daily bars. It implements both
// core.IBroker and core.IMarketData. All calls share one rate limiter since
// both APIs draw from the same account request budget.
type Alpaca struct {
	trading *pkghttp.Client
	data    *pkghttp.Client
	limiter *rate.Limiter
	logger  core.ILogger
}

// NewAlpaca builds a client from broker configuration
func NewAlpaca(cfg config.BrokerConfig, timeout time.Duration, logger core.ILogger) *Alpaca {
	signer := &keySigner{key: cfg.APIKey.Value(), secret: cfg.APISecret.Value()}
	perSecond := rate.Limit(float64(cfg.RatePerMinute) / 60.0)
	return &Alpaca{
		trading: pkghttp.NewClient(cfg.TradingBaseURL, timeout, signer),
		data:    pkghttp.NewClient(cfg.DataBaseURL, timeout, signer),
		limiter: rate.NewLimiter(perSecond, cfg.RatePerMinute/10+1),
		logger:  logger.WithField("component", "alpaca"),
	}
}

type accountResponse struct {
	Equity                decimal.Decimal `json:"equity"`
	BuyingPower           decimal.Decimal `json:"buying_power"`
	InitialMargin         decimal.Decimal `json:"initial_margin"`
	Multiplier            decimal.Decimal `json:"multiplier"`
	DaytradingBuyingPower decimal.Decimal `json:"daytrading_buying_power"`
}

type positionResponse struct {
	Symbol        string          `json:"symbol"`
	Qty           decimal.Decimal `json:"qty"`
	QtyAvailable  decimal.Decimal `json:"qty_available"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
}

type orderResponse struct {
	ID            string          `json:"id"`
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Qty           decimal.Decimal `json:"qty"`
	Side          string          `json:"side"`
	Status        string          `json:"status"`
	SubmittedAt   *time.Time      `json:"submitted_at"`
	FilledAt      *time.Time      `json:"filled_at"`
}

type orderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type clockResponse struct {
	Timestamp time.Time `json:"timestamp"`
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

type barsResponse struct {
	Bars []barResponse `json:"bars"`
}

type barResponse struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

func (a *Alpaca) wait(ctx context.Context) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// GetAccount fetches the current account snapshot
func (a *Alpaca) GetAccount(ctx context.Context) (*core.AccountSnapshot, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	body, err := a.trading.Get(ctx, "/v2/account", nil)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", classify(err))
	}
	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &core.AccountSnapshot{
		Equity:                resp.Equity,
		BuyingPower:           resp.BuyingPower,
		InitialMargin:         resp.InitialMargin,
		MarginMultiplier:      resp.Multiplier,
		DaytradingBuyingPower: resp.DaytradingBuyingPower,
	}, nil
}

// GetAllPositions fetches every open position
func (a *Alpaca) GetAllPositions(ctx context.Context) ([]core.BrokerPosition, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	body, err := a.trading.Get(ctx, "/v2/positions", nil)
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", classify(err))
	}
	var resp []positionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	out := make([]core.BrokerPosition, len(resp))
	for i, p := range resp {
		out[i] = core.BrokerPosition{
			Symbol:        p.Symbol,
			Qty:           p.Qty,
			QtyAvailable:  p.QtyAvailable,
			AvgEntryPrice: p.AvgEntryPrice,
			CurrentPrice:  p.CurrentPrice,
		}
	}
	return out, nil
}

// GetOpenOrders fetches all open orders
func (a *Alpaca) GetOpenOrders(ctx context.Context) ([]core.Order, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	body, err := a.trading.Get(ctx, "/v2/orders", map[string]string{"status": "open"})
	if err != nil {
		return nil, fmt.Errorf("get open orders: %w", classify(err))
	}
	return decodeOrders(body)
}

// GetClosedOrders fetches historical orders for one symbol, oldest first
func (a *Alpaca) GetClosedOrders(ctx context.Context, symbol string, limit int) ([]core.Order, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	body, err := a.trading.Get(ctx, "/v2/orders", map[string]string{
		"status":    "closed",
		"symbols":   symbol,
		"limit":     strconv.Itoa(limit),
		"direction": "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("get closed orders: %w", classify(err))
	}
	return decodeOrders(body)
}

func decodeOrders(body []byte) ([]core.Order, error) {
	var resp []orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]core.Order, len(resp))
	for i, o := range resp {
		out[i] = toOrder(o)
	}
	return out, nil
}

func toOrder(o orderResponse) core.Order {
	order := core.Order{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Qty:           o.Qty,
		Side:          core.Side(o.Side),
		Status:        core.OrderStatus(o.Status),
	}
	if o.SubmittedAt != nil {
		order.SubmittedAt = *o.SubmittedAt
	}
	if o.FilledAt != nil {
		order.FilledAt = *o.FilledAt
	}
	return order
}

// SubmitOrder submits a market day order
func (a *Alpaca) SubmitOrder(ctx context.Context, req core.OrderRequest) (*core.Order, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	tif := req.TimeInForce
	if tif == "" {
		tif = "day"
	}
	body, err := a.trading.Post(ctx, "/v2/orders", orderRequest{
		Symbol:        req.Symbol,
		Qty:           req.Qty.String(),
		Side:          string(req.Side),
		Type:          "market",
		TimeInForce:   tif,
		ClientOrderID: req.ClientOrderID,
	})
	if err != nil {
		return nil, fmt.Errorf("submit order %s: %w", req.Symbol, classify(err))
	}
	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	order := toOrder(resp)
	a.logger.Info("order submitted", "symbol", order.Symbol, "side", order.Side, "qty", order.Qty.String(), "id", order.ID)
	return &order, nil
}

// ClosePosition liquidates a whole position with a market order
func (a *Alpaca) ClosePosition(ctx context.Context, symbol string) (*core.Order, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	body, err := a.trading.Delete(ctx, "/v2/positions/"+symbol, nil)
	if err != nil {
		return nil, fmt.Errorf("close position %s: %w", symbol, classify(err))
	}
	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode close order: %w", err)
	}
	order := toOrder(resp)
	a.logger.Info("close submitted", "symbol", symbol, "id", order.ID)
	return &order, nil
}

// GetClock fetches the market clock
func (a *Alpaca) GetClock(ctx context.Context) (*core.Clock, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	body, err := a.trading.Get(ctx, "/v2/clock", nil)
	if err != nil {
		return nil, fmt.Errorf("get clock: %w", classify(err))
	}
	var resp clockResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode clock: %w", err)
	}
	return &core.Clock{
		Timestamp: resp.Timestamp,
		IsOpen:    resp.IsOpen,
		NextOpen:  resp.NextOpen,
		NextClose: resp.NextClose,
	}, nil
}

// GetBars fetches daily bars covering the lookback window, oldest first
func (a *Alpaca) GetBars(ctx context.Context, symbol string, lookbackDays int) ([]core.Bar, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	// Calendar buffer: ~100 trading days need ~150 calendar days
	start := time.Now().UTC().AddDate(0, 0, -lookbackDays*3/2)
	body, err := a.data.Get(ctx, "/v2/stocks/"+symbol+"/bars", map[string]string{
		"timeframe":  "1Day",
		"start":      start.Format("2006-01-02"),
		"limit":      strconv.Itoa(lookbackDays * 2),
		"adjustment": "split",
		"feed":       "iex",
	})
	if err != nil {
		return nil, fmt.Errorf("get bars %s: %w", symbol, classify(err))
	}
	var resp barsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	out := make([]core.Bar, len(resp.Bars))
	for i, b := range resp.Bars {
		out[i] = core.Bar{
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return out, nil
}
