package safety

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"hype_trader/internal/logging"
	"hype_trader/internal/mock"
)

func TestCheckAccountPasses(t *testing.T) {
	broker := mock.NewBroker()
	c := NewChecker(logging.NewNop())
	assert.NoError(t, c.CheckAccount(context.Background(), broker))
}

func TestCheckAccountRejectsZeroEquity(t *testing.T) {
	broker := mock.NewBroker()
	broker.Account.Equity = decimal.Zero
	c := NewChecker(logging.NewNop())

	err := c.CheckAccount(context.Background(), broker)
	assert.ErrorContains(t, err, "equity")
}

func TestCheckAccountRejectsNegativeBuyingPower(t *testing.T) {
	broker := mock.NewBroker()
	broker.Account.BuyingPower = decimal.NewFromInt(-100)
	c := NewChecker(logging.NewNop())

	err := c.CheckAccount(context.Background(), broker)
	assert.ErrorContains(t, err, "buying power")
}

func TestCheckAccountFailsWhenBrokerDown(t *testing.T) {
	broker := mock.NewBroker()
	broker.AccountErr = assert.AnError
	c := NewChecker(logging.NewNop())
	assert.Error(t, c.CheckAccount(context.Background(), broker))

	broker = mock.NewBroker()
	broker.ClockErr = assert.AnError
	assert.Error(t, c.CheckAccount(context.Background(), broker))
}
