package matching

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"

	"matchforge/domain"
)

// TradeCallback is invoked once per trade, in the same thread of control as
// the Execute call that produced it.
type TradeCallback func(trade *domain.Trade)

// tradeIDKey is the skiplist comparator for the trade log, keyed on the
// trade's monotonic uint64 id. Modeled on the perp-dex book's priceKeyAsc/
// priceKeyDesc comparators, retargeted from price to trade id — ascending
// only, since the log has a single well-defined production order.
type tradeIDKey struct{}

func (tradeIDKey) Compare(lhs, rhs interface{}) int {
	l, r := lhs.(uint64), rhs.(uint64)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func (tradeIDKey) CalcScore(key interface{}) float64 {
	return float64(key.(uint64))
}

// TradeExecutor owns trade-id assignment, an ordered trade log, and the
// callback fired on every execution. The log is a skiplist keyed by trade
// id rather than a slice so DrainTrades can filter and trim without a full
// copy-then-scan, and iteration stays id-ordered even after Recycle evicts
// from the middle.
type TradeExecutor struct {
	ids *IDGenerator
	log *skiplist.SkipList
	cb  TradeCallback
}

// NewTradeExecutor creates a TradeExecutor with its own trade-id sequence.
func NewTradeExecutor() *TradeExecutor {
	return &TradeExecutor{
		ids: NewIDGenerator(),
		log: skiplist.New(tradeIDKey{}),
	}
}

// OnTrade registers the callback invoked for every trade Execute produces.
// At most one callback is held; registering again replaces it.
func (te *TradeExecutor) OnTrade(cb TradeCallback) {
	te.cb = cb
}

// Execute records a trade between buy and sell at price for quantity,
// appends it to the ordered log, and invokes the registered callback (if
// any) before returning. price is always the resting order's price
// (spec.md §4.2).
func (te *TradeExecutor) Execute(buy, sell *domain.Order, price, quantity decimal.Decimal) *domain.Trade {
	trade := domain.NewTrade(te.ids.Next(), price, quantity, buy, sell)
	te.log.Set(trade.ID, trade)
	if te.cb != nil {
		te.cb(trade)
	}
	return trade
}

// DrainTrades returns trades in production order, optionally filtered by
// symbol, optionally limited to at most the most recent limit entries (0
// means unlimited), and removes exactly the returned trades from the log.
// A second call returns only what was produced since the first: trades
// skipped by the symbol filter or excluded by limit stay in the log for a
// later drain. Callers done with the returned trades should follow up with
// Recycle to return them to the pool.
func (te *TradeExecutor) DrainTrades(symbol string, limit int) []*domain.Trade {
	matched := make([]*domain.Trade, 0, te.log.Len())
	for elem := te.log.Front(); elem != nil; elem = elem.Next() {
		trade := elem.Value.(*domain.Trade)
		if symbol != "" && trade.Symbol != symbol {
			continue
		}
		matched = append(matched, trade)
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	for _, trade := range matched {
		te.log.Remove(trade.ID)
	}
	return matched
}

// Recycle returns the given trades to domain's trade pool. Trades already
// drained via DrainTrades are no longer in the log; Recycle also accepts
// trades that were never drained and removes them first. Callers must not
// use a trade after passing it here.
func (te *TradeExecutor) Recycle(trades []*domain.Trade) {
	for _, trade := range trades {
		te.log.Remove(trade.ID)
		trade.Destroy()
	}
}

// Len returns the number of trades currently held in the log.
func (te *TradeExecutor) Len() int {
	return te.log.Len()
}
