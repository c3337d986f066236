// Package domain holds the matching engine's core data model: orders and
// trades. Types here have no dependency on the order book or matcher.
package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Side represents the order side (Buy or Sell)
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// Sign returns +1 for Buy and -1 for Sell; the risk layer uses it to turn
// an order size into a signed position delta.
func (s Side) Sign() int64 {
	if s == SideBuy {
		return 1
	}
	return -1
}

// OrderType represents the type of order
type OrderType int

const (
	OrderTypeLimit OrderType = iota
	OrderTypeMarket
)

// OrderStatus represents the current status of an order
type OrderStatus int

const (
	OrderStatusNew OrderStatus = iota
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusCancelled
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNew:
		return "new"
	case OrderStatusPartiallyFilled:
		return "partially_filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Order represents a resting or in-flight order.
//
// Hot fields (read on every match step) are grouped first, cold fields
// (touched only on creation or logging) last.
type Order struct {
	// Hot fields
	ID          uint64
	Price       *decimal.Decimal // nil for Market orders
	Quantity    decimal.Decimal  // original quantity
	Filled      decimal.Decimal
	Side        Side
	Type        OrderType
	Status      OrderStatus
	ListElement interface{} // *list.Element, for O(1) removal from its PriceLevel

	// Cold fields
	Symbol    string
	Timestamp int64 // ms since epoch
}

var orderPool sync.Pool

func init() {
	orderPool.New = func() any {
		return &Order{}
	}
}

// NewLimitOrder constructs a Limit order from the pool.
func NewLimitOrder(id uint64, symbol string, side Side, price, quantity decimal.Decimal, timestamp int64) *Order {
	o := orderPool.Get().(*Order)
	o.ID = id
	o.Symbol = symbol
	o.Side = side
	o.Type = OrderTypeLimit
	o.Price = &price
	o.Quantity = quantity
	o.Filled = decimal.Zero
	o.Status = OrderStatusNew
	o.Timestamp = timestamp
	o.ListElement = nil
	return o
}

// NewMarketOrder constructs a Market order from the pool. Market orders
// never carry a price.
func NewMarketOrder(id uint64, symbol string, side Side, quantity decimal.Decimal, timestamp int64) *Order {
	o := orderPool.Get().(*Order)
	o.ID = id
	o.Symbol = symbol
	o.Side = side
	o.Type = OrderTypeMarket
	o.Price = nil
	o.Quantity = quantity
	o.Filled = decimal.Zero
	o.Status = OrderStatusNew
	o.Timestamp = timestamp
	o.ListElement = nil
	return o
}

// IsFilled reports whether the order has no remaining quantity left to fill.
func (o *Order) IsFilled() bool {
	return o.Filled.Cmp(o.Quantity) >= 0
}

// RemainingQuantity returns the unfilled quantity.
func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.Filled)
}

// Fill applies a fill of the given quantity and updates status accordingly.
func (o *Order) Fill(quantity decimal.Decimal) {
	o.Filled = o.Filled.Add(quantity)
	if o.IsFilled() {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}
}

// Cancel marks the order as cancelled.
func (o *Order) Cancel() {
	o.Status = OrderStatusCancelled
}

// Reject marks the order as rejected at admission. Rejected orders never
// enter the book and are never returned to a caller by id.
func (o *Order) Reject() {
	o.Status = OrderStatusRejected
}

// Destroy resets the order and returns it to the pool. Callers must not
// touch the order after calling Destroy.
func (o *Order) Destroy() {
	o.Reset()
	orderPool.Put(o)
}

// Reset zeroes the order in place.
func (o *Order) Reset() {
	*o = Order{}
}
