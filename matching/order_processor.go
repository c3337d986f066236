package matching

import (
	"errors"

	"github.com/shopspring/decimal"

	"matchforge/domain"
)

// ValidationError reports a malformed submission rejected at admission,
// before it ever reaches the Matcher.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "matching: validation failed: " + e.Reason
}

var (
	errNonPositiveQuantity = &ValidationError{Reason: "quantity must be positive"}
	errNonPositivePrice    = &ValidationError{Reason: "price must be positive"}
)

// ErrNotFound is returned by Cancel for an unknown or already-terminal
// order id. It is a normal negative result, not treated as an exception.
var ErrNotFound = errors.New("matching: order not resting")

// InvariantViolation reports an internal inconsistency between the
// Matcher's own bookkeeping and the order book it drives — something that
// should never happen and, if it does, means a bug exists elsewhere in the
// engine. Seeing one should be fatal in debug builds and logged-and-abort
// in production; see Matcher.drainLevel.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "matching: invariant violation: " + e.Reason
}

// OrderProcessor owns the order id sequence, constructs Order records from
// the pool, validates them at admission, and dispatches every admitted order
// to the Matcher. Cancellation is delegated straight to the order book.
type OrderProcessor struct {
	ids     *IDGenerator
	book    bookAdapter
	matcher *Matcher
}

// bookAdapter narrows the order book surface OrderProcessor touches
// directly (everything else goes through the Matcher).
type bookAdapter interface {
	Remove(orderID uint64) (*domain.Order, error)
	Lookup(orderID uint64) *domain.Order
}

// NewOrderProcessor builds an OrderProcessor dispatching to matcher, whose
// cancellations are served by book.
func NewOrderProcessor(book bookAdapter, matcher *Matcher) *OrderProcessor {
	return &OrderProcessor{ids: NewIDGenerator(), book: book, matcher: matcher}
}

// SubmitLimit validates and constructs a Limit order and dispatches it to
// the Matcher, returning its assigned id. Rejects non-positive quantity and
// non-finite/non-positive price without mutating any state.
func (p *OrderProcessor) SubmitLimit(symbol string, side domain.Side, price, quantity decimal.Decimal, timestamp int64) (uint64, error) {
	if err := validateQuantity(quantity); err != nil {
		return 0, err
	}
	if err := validatePrice(price); err != nil {
		return 0, err
	}

	order := domain.NewLimitOrder(p.ids.Next(), symbol, side, price, quantity, timestamp)
	p.matcher.Match(order)
	return order.ID, nil
}

// SubmitMarket validates and constructs a Market order and dispatches it to
// the Matcher, returning its assigned id. Rejects non-positive quantity.
func (p *OrderProcessor) SubmitMarket(symbol string, side domain.Side, quantity decimal.Decimal, timestamp int64) (uint64, error) {
	if err := validateQuantity(quantity); err != nil {
		return 0, err
	}

	order := domain.NewMarketOrder(p.ids.Next(), symbol, side, quantity, timestamp)
	p.matcher.Match(order)
	return order.ID, nil
}

// Cancel removes a resting order by id and marks it Cancelled. Returns
// ErrNotFound if the id is unknown or no longer resting.
func (p *OrderProcessor) Cancel(orderID uint64) error {
	order, err := p.book.Remove(orderID)
	if err != nil {
		return ErrNotFound
	}
	order.Cancel()
	order.Destroy()
	return nil
}

func validateQuantity(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return errNonPositiveQuantity
	}
	return nil
}

// validatePrice rejects non-positive prices. decimal.Decimal has no NaN or
// Inf representation, so the non-finite rejection the admission layer must
// perform is automatic: there is no bit pattern for it to reject.
func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return errNonPositivePrice
	}
	return nil
}
