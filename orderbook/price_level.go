package orderbook

import (
	"container/list"

	"github.com/shopspring/decimal"
	"matchforge/domain"
)

// PriceLevel is a FIFO queue of resting orders at one price, with a cached
// aggregate remaining quantity.
//
// The aggregate is maintained incrementally on insert and on partial fill
// (the common, hot-path cases). On order removal (cancel or full fill) the
// level is instead marked dirty and the aggregate is recomputed lazily the
// next time it's observed (Aggregate()) — spec.md §4.1: "the
// aggregate-quantity cache on each PriceLevel is recomputed only when
// observed after a removal; matching fills update it incrementally."
type PriceLevel struct {
	Price  decimal.Decimal
	Orders *list.List // FIFO of *domain.Order
	agg    decimal.Decimal
	dirty  bool
}

// NewPriceLevel creates an empty price level at the given price.
func NewPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: list.New(),
		agg:    decimal.Zero,
	}
}

// Append adds an order to the tail of the FIFO and returns the
// *list.Element the caller should stash on the order for O(1) removal.
func (pl *PriceLevel) Append(order *domain.Order) *list.Element {
	elem := pl.Orders.PushBack(order)
	pl.agg = pl.agg.Add(order.RemainingQuantity())
	return elem
}

// RemoveElement removes an order from the FIFO by its stashed element and
// marks the level dirty rather than walking the list to re-sum.
func (pl *PriceLevel) RemoveElement(elem *list.Element) {
	pl.Orders.Remove(elem)
	pl.dirty = true
}

// ApplyFill decrements the cached aggregate by a matched quantity. Used on
// the hot path when a resting order is partially filled but stays in the
// FIFO.
func (pl *PriceLevel) ApplyFill(quantity decimal.Decimal) {
	pl.agg = pl.agg.Sub(quantity)
}

// Aggregate returns the level's total remaining quantity, recomputing it
// first if the level has been marked dirty by a removal.
func (pl *PriceLevel) Aggregate() decimal.Decimal {
	if pl.dirty {
		pl.recompute()
	}
	return pl.agg
}

func (pl *PriceLevel) recompute() {
	sum := decimal.Zero
	for e := pl.Orders.Front(); e != nil; e = e.Next() {
		sum = sum.Add(e.Value.(*domain.Order).RemainingQuantity())
	}
	pl.agg = sum
	pl.dirty = false
}

// Front returns the head (oldest arrival) order of the FIFO, or nil if empty.
func (pl *PriceLevel) Front() *domain.Order {
	e := pl.Orders.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*domain.Order)
}

// Empty reports whether the level has no resting orders left.
func (pl *PriceLevel) Empty() bool {
	return pl.Orders.Len() == 0
}
