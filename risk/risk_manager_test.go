package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchforge/domain"
)

func rd(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestManager(t *testing.T) *RiskManager {
	t.Helper()
	maxExposure := rd("1000000")
	rm := NewRiskManager(Limits{
		MaxPositionSize: map[string]decimal.Decimal{"BTCUSD": rd("10"), "ETHUSD": rd("100")},
		MaxOrderSize:    map[string]decimal.Decimal{"BTCUSD": rd("5"), "ETHUSD": rd("50")},
		MaxExposure:     &maxExposure,
		PriceTolerance:  rd("0.1"),
	})
	rm.UpdateReferencePrice("BTCUSD", rd("50000"))
	rm.UpdateReferencePrice("ETHUSD", rd("3000"))
	return rm
}

// checkSigned mirrors the original python test suite's signed-size call
// convention: positive quantity for a buy, negative for a sell.
func checkSigned(rm *RiskManager, symbol string, signedQty, price decimal.Decimal) error {
	side := domain.SideBuy
	qty := signedQty
	if signedQty.IsNegative() {
		side = domain.SideSell
		qty = signedQty.Neg()
	}
	return rm.CheckOrder(symbol, side, qty, &price)
}

func rejectedAs(t *testing.T, err error, want CheckResult) {
	t.Helper()
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, want, rejected.Result)
}

func TestPositionLimit(t *testing.T) {
	rm := newTestManager(t)
	rm.SetPosition("BTCUSD", rd("7"))

	rejectedAs(t, checkSigned(rm, "BTCUSD", rd("4"), rd("50000")), FailedPositionLimit)

	assert.NoError(t, checkSigned(rm, "BTCUSD", rd("2"), rd("50000")))
	assert.NoError(t, checkSigned(rm, "BTCUSD", rd("-5"), rd("50000")))
}

func TestOrderSizeLimit(t *testing.T) {
	rm := newTestManager(t)

	rejectedAs(t, checkSigned(rm, "BTCUSD", rd("6"), rd("50000")), FailedOrderSize)
	assert.NoError(t, checkSigned(rm, "BTCUSD", rd("4"), rd("50000")))
	rejectedAs(t, checkSigned(rm, "BTCUSD", rd("-6"), rd("50000")), FailedOrderSize)
}

func TestExposureLimit(t *testing.T) {
	maxExposure := rd("200000")
	rm := newTestManager(t)
	rm.limits.MaxExposure = &maxExposure

	rejectedAs(t, checkSigned(rm, "BTCUSD", rd("5"), rd("50000")), FailedExposure)
	assert.NoError(t, checkSigned(rm, "BTCUSD", rd("3"), rd("50000")))
}

func TestPriceTolerance(t *testing.T) {
	rm := newTestManager(t)
	rm.UpdateReferencePrice("BTCUSD", rd("50000"))

	rejectedAs(t, checkSigned(rm, "BTCUSD", rd("1"), rd("57500")), FailedPriceTolerance)
	assert.NoError(t, checkSigned(rm, "BTCUSD", rd("1"), rd("52500")))
}

func TestPriceToleranceSkippedForMarketOrders(t *testing.T) {
	rm := newTestManager(t)
	assert.NoError(t, rm.CheckOrder("BTCUSD", domain.SideBuy, rd("1"), nil))
}

func TestUpdateAfterFillTracksPositionAndExposure(t *testing.T) {
	rm := newTestManager(t)
	initialExposure := rm.Exposure()

	rm.UpdateAfterFill("BTCUSD", rd("2"), rd("50000"))
	assert.True(t, rm.Position("BTCUSD").Equal(rd("2")), "expected position 2, got %s", rm.Position("BTCUSD"))
	assert.True(t, rm.Exposure().Equal(initialExposure.Add(rd("100000"))), "expected exposure to grow by 100000, got %s", rm.Exposure())

	rm.UpdateAfterFill("BTCUSD", rd("-1"), rd("50000"))
	assert.True(t, rm.Position("BTCUSD").Equal(rd("1")), "expected position 1 after partial unwind, got %s", rm.Position("BTCUSD"))
	assert.True(t, rm.Exposure().Equal(initialExposure.Add(rd("150000"))), "expected exposure to grow by a further 50000, got %s", rm.Exposure())
}

// TestRiskShortCircuitOrdering exercises scenario 6: an order that violates
// both Position and Order-size limits is reported as failing Position, since
// that check runs first.
func TestRiskShortCircuitOrdering(t *testing.T) {
	maxExposure := rd("200000")
	rm := NewRiskManager(Limits{
		MaxPositionSize: map[string]decimal.Decimal{"BTC": rd("10")},
		MaxOrderSize:    map[string]decimal.Decimal{"BTC": rd("5")},
		MaxExposure:     &maxExposure,
		PriceTolerance:  rd("0.1"),
	})
	rm.UpdateReferencePrice("BTC", rd("50000"))
	rm.SetPosition("BTC", rd("8"))

	// Violates both position (8+6=14 > 10) and order size (6 > 5).
	rejectedAs(t, checkSigned(rm, "BTC", rd("6"), rd("50000")), FailedPositionLimit)

	rm.SetPosition("BTC", rd("0"))
	rejectedAs(t, checkSigned(rm, "BTC", rd("6"), rd("50000")), FailedOrderSize)

	rm.SetPosition("BTC", rd("0"))
	rejectedAs(t, checkSigned(rm, "BTC", rd("5"), rd("50000")), FailedExposure)

	rejectedAs(t, checkSigned(rm, "BTC", rd("1"), rd("57500")), FailedPriceTolerance)

	assert.NoError(t, checkSigned(rm, "BTC", rd("1"), rd("52500")))
}
