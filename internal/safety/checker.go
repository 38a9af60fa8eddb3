// Package safety runs pre-flight checks before the trading loop starts
package safety

import (
	"context"
	"fmt"

	"hype_trader/internal/core"
)

// Checker validates that the brokerage account is in a tradable state
type Checker struct {
	logger core.ILogger
}

// NewChecker creates a checker
func NewChecker(logger core.ILogger) *Checker {
	return &Checker{logger: logger.WithField("component", "safety")}
}

// CheckAccount verifies the account and the brokerage connection before any
// order can be placed. A failure here should abort startup, not be retried
// into a degraded session.
func (c *Checker) CheckAccount(ctx context.Context, broker core.IBroker) error {
	account, err := broker.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("account unreachable: %w", err)
	}
	if !account.Equity.IsPositive() {
		return fmt.Errorf("account equity %s is not positive, refusing to trade", account.Equity)
	}
	if account.BuyingPower.IsNegative() {
		return fmt.Errorf("account buying power %s is negative, refusing to trade", account.BuyingPower)
	}

	clock, err := broker.GetClock(ctx)
	if err != nil {
		return fmt.Errorf("market clock unreachable: %w", err)
	}

	positions, err := broker.GetAllPositions(ctx)
	if err != nil {
		return fmt.Errorf("positions unreachable: %w", err)
	}

	c.logger.Info("account safety check passed",
		"equity", account.Equity.StringFixed(2),
		"buying_power", account.BuyingPower.StringFixed(2),
		"open_positions", len(positions),
		"market_open", clock.IsOpen,
	)
	return nil
}
