// Package risk implements pre-trade admission control: a fixed sequence
// of checks run before an order reaches the matching engine.
package risk

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"matchforge/domain"
)

// CheckResult identifies which check an order passed or failed. Failed is
// the first failing kind in check order: Position, then OrderSize, then
// Exposure, then PriceTolerance.
type CheckResult int

const (
	Passed CheckResult = iota
	FailedPositionLimit
	FailedOrderSize
	FailedExposure
	FailedPriceTolerance
)

func (r CheckResult) String() string {
	switch r {
	case Passed:
		return "passed"
	case FailedPositionLimit:
		return "failed_position_limit"
	case FailedOrderSize:
		return "failed_order_size"
	case FailedExposure:
		return "failed_exposure"
	case FailedPriceTolerance:
		return "failed_price_tolerance"
	default:
		return "unknown"
	}
}

// RejectedError is returned by CheckOrder carrying the failing check's
// kind. A failed check never mutates the manager's positions, exposure or
// reference prices.
type RejectedError struct {
	Result CheckResult
}

func (e *RejectedError) Error() string {
	return "risk: order rejected: " + e.Result.String()
}

// Limits configures the fixed check sequence. A symbol with no entry in a
// per-symbol map, or a nil MaxExposure, disables that check entirely; an
// entry that is present is enforced as a cap even when it is zero.
type Limits struct {
	MaxPositionSize map[string]decimal.Decimal
	MaxOrderSize    map[string]decimal.Decimal
	MaxExposure     *decimal.Decimal
	PriceTolerance  decimal.Decimal // fractional, e.g. 0.10 for 10%
}

// RiskManager holds configured limits and the mutable state (positions,
// exposure, reference prices) the checks are evaluated against.
type RiskManager struct {
	limits Limits

	positions       map[string]decimal.Decimal
	currentExposure decimal.Decimal
	referencePrices map[string]decimal.Decimal
}

// NewRiskManager builds a RiskManager with the given configured limits.
func NewRiskManager(limits Limits) *RiskManager {
	return &RiskManager{
		limits:          limits,
		positions:       make(map[string]decimal.Decimal),
		currentExposure: decimal.Zero,
		referencePrices: make(map[string]decimal.Decimal),
	}
}

// SetPosition overrides the tracked position for symbol directly, used by
// callers (tests, simulators) seeding a starting position rather than
// accumulating it through fills.
func (r *RiskManager) SetPosition(symbol string, size decimal.Decimal) {
	r.positions[symbol] = size
}

// UpdateReferencePrice sets or replaces the reference price used by the
// price-tolerance check. May be called at any time.
func (r *RiskManager) UpdateReferencePrice(symbol string, price decimal.Decimal) {
	r.referencePrices[symbol] = price
}

// signedSize returns quantity with side's sign applied: positive for buys,
// negative for sells.
func signedSize(side domain.Side, quantity decimal.Decimal) decimal.Decimal {
	if side == domain.SideSell {
		return quantity.Neg()
	}
	return quantity
}

// CheckOrder runs the fixed check sequence and returns nil if the order
// passes every configured check, or a *RejectedError naming the first
// failing kind. price is nil for Market orders, which always skip the
// price-tolerance check.
func (r *RiskManager) CheckOrder(symbol string, side domain.Side, quantity decimal.Decimal, price *decimal.Decimal) error {
	signed := signedSize(side, quantity)

	if result := r.checkPositionLimit(symbol, signed); result != Passed {
		return &RejectedError{Result: result}
	}
	if result := r.checkOrderSize(symbol, signed); result != Passed {
		return &RejectedError{Result: result}
	}
	// Exposure needs a price to value the order's notional. A Limit order
	// carries its own; a Market order has none at admission time, so the
	// reference price stands in as an estimate. With neither available the
	// check is skipped, same as an unconfigured limit.
	exposurePrice, havePrice := price, false
	if exposurePrice != nil {
		havePrice = true
	} else if ref, ok := r.referencePrices[symbol]; ok {
		exposurePrice, havePrice = &ref, true
	}
	if havePrice {
		if result := r.checkExposure(symbol, signed, *exposurePrice); result != Passed {
			return &RejectedError{Result: result}
		}
	}

	if price != nil {
		if result := r.checkPriceTolerance(symbol, *price); result != Passed {
			return &RejectedError{Result: result}
		}
	}
	return nil
}

func (r *RiskManager) checkPositionLimit(symbol string, signedQuantity decimal.Decimal) CheckResult {
	limit, ok := r.limits.MaxPositionSize[symbol]
	if !ok {
		return Passed
	}

	current := r.positions[symbol]
	newPosition := current.Add(signedQuantity)
	if newPosition.Abs().GreaterThan(limit) {
		log.Warn().
			Str("symbol", symbol).
			Str("current", current.String()).
			Str("order", signedQuantity.String()).
			Str("limit", limit.String()).
			Msg("position limit exceeded")
		return FailedPositionLimit
	}
	return Passed
}

func (r *RiskManager) checkOrderSize(symbol string, signedQuantity decimal.Decimal) CheckResult {
	limit, ok := r.limits.MaxOrderSize[symbol]
	if !ok {
		return Passed
	}

	if signedQuantity.Abs().GreaterThan(limit) {
		log.Warn().
			Str("symbol", symbol).
			Str("order", signedQuantity.String()).
			Str("limit", limit.String()).
			Msg("order size limit exceeded")
		return FailedOrderSize
	}
	return Passed
}

func (r *RiskManager) checkExposure(symbol string, signedQuantity, price decimal.Decimal) CheckResult {
	if r.limits.MaxExposure == nil {
		return Passed
	}

	orderExposure := signedQuantity.Mul(price).Abs()
	newExposure := r.currentExposure.Add(orderExposure)
	if newExposure.GreaterThan(*r.limits.MaxExposure) {
		log.Warn().
			Str("current", r.currentExposure.String()).
			Str("order", orderExposure.String()).
			Str("limit", r.limits.MaxExposure.String()).
			Msg("exposure limit exceeded")
		return FailedExposure
	}
	return Passed
}

func (r *RiskManager) checkPriceTolerance(symbol string, price decimal.Decimal) CheckResult {
	reference, ok := r.referencePrices[symbol]
	if !ok {
		return Passed
	}

	deviation := price.Sub(reference).Abs().Div(reference)
	if deviation.GreaterThan(r.limits.PriceTolerance) {
		log.Warn().
			Str("symbol", symbol).
			Str("order_price", price.String()).
			Str("reference", reference.String()).
			Str("deviation", deviation.String()).
			Str("tolerance", r.limits.PriceTolerance.String()).
			Msg("price tolerance exceeded")
		return FailedPriceTolerance
	}
	return Passed
}

// RecordFill applies a confirmed fill's position and exposure effects.
// Adapts to the MatchingEngine's RiskGate interface, which calls this once
// per side of every trade with that side and the unsigned trade quantity;
// the side's sign is applied here.
func (r *RiskManager) RecordFill(symbol string, side domain.Side, quantity, price decimal.Decimal) {
	r.UpdateAfterFill(symbol, signedSize(side, quantity), price)
}

// UpdateAfterFill applies a confirmed fill: position += signedQuantity,
// exposure += |signedQuantity| * price.
func (r *RiskManager) UpdateAfterFill(symbol string, signedQuantity, price decimal.Decimal) {
	current := r.positions[symbol]
	r.positions[symbol] = current.Add(signedQuantity)

	fillExposure := signedQuantity.Mul(price).Abs()
	r.currentExposure = r.currentExposure.Add(fillExposure)

	log.Info().
		Str("symbol", symbol).
		Str("position", r.positions[symbol].String()).
		Str("exposure", r.currentExposure.String()).
		Msg("position and exposure updated")
}

// Position returns the currently tracked position for symbol (zero if
// untracked).
func (r *RiskManager) Position(symbol string) decimal.Decimal {
	return r.positions[symbol]
}

// Exposure returns the current aggregate notional exposure.
func (r *RiskManager) Exposure() decimal.Decimal {
	return r.currentExposure
}
