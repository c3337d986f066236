package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Trade represents a matched trade between two orders.
//
// Hot fields (read during log append/broadcast) are grouped first, cold
// fields (audit-only) last — same grouping idea as Order.
type Trade struct {
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Timestamp int64 // ms since epoch, = max(buy.Timestamp, sell.Timestamp)
	Symbol    string

	ID          uint64
	BuyOrderID  uint64
	SellOrderID uint64
}

var tradePool = sync.Pool{
	New: func() any {
		return &Trade{}
	},
}

// NewTrade constructs a Trade from the pool. price is the resting
// (maker) order's price; quantity is the matched quantity. The trade's
// symbol follows the buy side's symbol if present, else the sell side's
// (spec.md §9) — in a single-instrument engine both sides share a symbol.
func NewTrade(id uint64, price, quantity decimal.Decimal, buyOrder, sellOrder *Order) *Trade {
	trade := tradePool.Get().(*Trade)
	trade.ID = id
	trade.Price = price
	trade.Quantity = quantity
	trade.BuyOrderID = buyOrder.ID
	trade.SellOrderID = sellOrder.ID

	symbol := buyOrder.Symbol
	if symbol == "" {
		symbol = sellOrder.Symbol
	}
	trade.Symbol = symbol

	trade.Timestamp = buyOrder.Timestamp
	if sellOrder.Timestamp > trade.Timestamp {
		trade.Timestamp = sellOrder.Timestamp
	}
	return trade
}

// Destroy returns the trade to the pool. Callers must not touch the trade
// after calling Destroy.
func (t *Trade) Destroy() {
	t.Reset()
	tradePool.Put(t)
}

// Reset zeroes the trade in place.
func (t *Trade) Reset() {
	*t = Trade{}
}
