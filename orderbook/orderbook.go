// Package orderbook implements the price-time-priority book: ordered
// price levels per side plus the hash indices needed for O(1) cancel.
package orderbook

import (
	"container/list"
	"errors"

	"github.com/shopspring/decimal"
	"matchforge/domain"
)

// ErrNotResting is returned by Remove when the order id is unknown or the
// order is no longer resting.
var ErrNotResting = errors.New("orderbook: order not resting")

// orderLocation records where a resting order lives, so Remove is O(1):
// look up the side+price here, then remove from that level's FIFO via the
// order's own stashed *list.Element.
type orderLocation struct {
	side  domain.Side
	price decimal.Decimal
}

// OrderBook is the two-sided price-time-priority book for one symbol.
type OrderBook struct {
	symbol string
	bids   *PriceTree // descending: best = highest price
	asks   *PriceTree // ascending: best = lowest price

	ordersByID map[uint64]*domain.Order
	locations  map[uint64]orderLocation
}

// NewOrderBook creates an empty book for symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol:     symbol,
		bids:       NewPriceTree(true),
		asks:       NewPriceTree(false),
		ordersByID: make(map[uint64]*domain.Order),
		locations:  make(map[uint64]orderLocation),
	}
}

func (ob *OrderBook) treeFor(side domain.Side) *PriceTree {
	if side == domain.SideBuy {
		return ob.bids
	}
	return ob.asks
}

// Insert rests a Limit order with remaining > 0 on its side of the book.
func (ob *OrderBook) Insert(order *domain.Order) {
	price := *order.Price
	level := ob.treeFor(order.Side).GetOrCreate(price)
	elem := level.Append(order)
	order.ListElement = elem

	ob.ordersByID[order.ID] = order
	ob.locations[order.ID] = orderLocation{side: order.Side, price: price}
}

// Remove removes a resting order by id in O(1) and returns it. Returns
// ErrNotResting if the id is unknown.
func (ob *OrderBook) Remove(orderID uint64) (*domain.Order, error) {
	order, ok := ob.ordersByID[orderID]
	if !ok {
		return nil, ErrNotResting
	}
	loc := ob.locations[orderID]
	tree := ob.treeFor(loc.side)

	level := tree.Get(loc.price)
	if level != nil && order.ListElement != nil {
		level.RemoveElement(order.ListElement.(*list.Element))
		order.ListElement = nil
		if level.Empty() {
			tree.Delete(loc.price)
		}
	}

	delete(ob.ordersByID, orderID)
	delete(ob.locations, orderID)
	return order, nil
}

// ApplyFill records a matched quantity against a still-resting order's
// level, keeping the level's cached aggregate current without a removal.
func (ob *OrderBook) ApplyFill(order *domain.Order, quantity decimal.Decimal) {
	loc, ok := ob.locations[order.ID]
	if !ok {
		return
	}
	if level := ob.treeFor(loc.side).Get(loc.price); level != nil {
		level.ApplyFill(quantity)
	}
}

// Lookup returns the resting order for id, or nil if not resting.
func (ob *OrderBook) Lookup(orderID uint64) *domain.Order {
	return ob.ordersByID[orderID]
}

// BestBid returns the best (highest) resting bid price, and whether one
// exists.
func (ob *OrderBook) BestBid() (decimal.Decimal, bool) {
	level := ob.bids.Best()
	if level == nil {
		return decimal.Zero, false
	}
	return level.Price, true
}

// BestAsk returns the best (lowest) resting ask price, and whether one
// exists.
func (ob *OrderBook) BestAsk() (decimal.Decimal, bool) {
	level := ob.asks.Best()
	if level == nil {
		return decimal.Zero, false
	}
	return level.Price, true
}

// BestLevel returns the best price level on the given side, or nil.
func (ob *OrderBook) BestLevel(side domain.Side) *PriceLevel {
	return ob.treeFor(side).Best()
}

// OppositeTree returns the price tree an incoming order of the given side
// matches against (asks for an incoming Buy, bids for an incoming Sell).
// Used only by the Matcher.
func (ob *OrderBook) OppositeTree(incomingSide domain.Side) *PriceTree {
	if incomingSide == domain.SideBuy {
		return ob.asks
	}
	return ob.bids
}

// EvictIfEmpty removes the price level at price on side if it has no
// orders left. Called by the Matcher after draining a level.
func (ob *OrderBook) EvictIfEmpty(side domain.Side, price decimal.Decimal) {
	tree := ob.treeFor(side)
	if level := tree.Get(price); level != nil && level.Empty() {
		tree.Delete(price)
	}
}

// Snapshot returns (bids, asks) as (price, aggregate quantity) pairs in
// priority order.
func (ob *OrderBook) Snapshot() (bids, asks []LevelSnapshot) {
	return ob.bids.Depth(ob.bids.Size()), ob.asks.Depth(ob.asks.Size())
}

// Symbol returns the book's trading symbol.
func (ob *OrderBook) Symbol() string {
	return ob.symbol
}
