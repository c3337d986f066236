package matching

import (
	"github.com/shopspring/decimal"

	"matchforge/domain"
	"matchforge/orderbook"
)

// RiskGate is consulted before every submission reaches the processor.
// MatchingEngine is agnostic to what the gate actually enforces; the risk
// package supplies the concrete implementation.
type RiskGate interface {
	CheckOrder(symbol string, side domain.Side, quantity decimal.Decimal, price *decimal.Decimal) error
	RecordFill(symbol string, side domain.Side, quantity, price decimal.Decimal)
}

// MatchingEngine is the public façade over one symbol's order book: the
// composition root for OrderBook, TradeExecutor, Matcher, and
// OrderProcessor, with an optional risk gate consulted ahead of admission.
type MatchingEngine struct {
	symbol    string
	book      *orderbook.OrderBook
	executor  *TradeExecutor
	matcher   *Matcher
	processor *OrderProcessor
	risk      RiskGate
	onTrade   TradeCallback
}

// NewMatchingEngine builds an engine for one symbol. risk may be nil, in
// which case every submission is admitted unconditionally.
func NewMatchingEngine(symbol string, risk RiskGate) *MatchingEngine {
	book := orderbook.NewOrderBook(symbol)
	executor := NewTradeExecutor()
	matcher := NewMatcher(book, executor)
	e := &MatchingEngine{
		symbol:    symbol,
		book:      book,
		executor:  executor,
		matcher:   matcher,
		processor: NewOrderProcessor(book, matcher),
		risk:      risk,
	}
	executor.OnTrade(e.handleTrade)
	return e
}

// handleTrade is the TradeExecutor's sole callback: it feeds the risk
// gate's fill bookkeeping and then forwards to whatever callback the caller
// registered via RegisterTradeCallback, both synchronously and in the same
// thread of control as the submission that produced the trade. Routing
// through here (rather than re-draining the trade log after submission)
// keeps fill recording independent of how much of the log a caller has
// already drained.
func (e *MatchingEngine) handleTrade(trade *domain.Trade) {
	if e.risk != nil {
		e.risk.RecordFill(e.symbol, domain.SideBuy, trade.Quantity, trade.Price)
		e.risk.RecordFill(e.symbol, domain.SideSell, trade.Quantity, trade.Price)
	}
	if e.onTrade != nil {
		e.onTrade(trade)
	}
}

// SubmitLimit admits and matches a Limit order, returning its id. If a risk
// gate is configured and rejects the order, no state changes and the risk
// error is returned as-is.
func (e *MatchingEngine) SubmitLimit(side domain.Side, price, quantity decimal.Decimal, timestamp int64) (uint64, error) {
	if e.risk != nil {
		if err := e.risk.CheckOrder(e.symbol, side, quantity, &price); err != nil {
			return 0, err
		}
	}
	return e.processor.SubmitLimit(e.symbol, side, price, quantity, timestamp)
}

// SubmitMarket admits and matches a Market order, returning its id.
func (e *MatchingEngine) SubmitMarket(side domain.Side, quantity decimal.Decimal, timestamp int64) (uint64, error) {
	if e.risk != nil {
		if err := e.risk.CheckOrder(e.symbol, side, quantity, nil); err != nil {
			return 0, err
		}
	}
	return e.processor.SubmitMarket(e.symbol, side, quantity, timestamp)
}

// Cancel removes a resting order by id. Returns ErrNotFound if the id is
// unknown or no longer resting.
func (e *MatchingEngine) Cancel(orderID uint64) error {
	return e.processor.Cancel(orderID)
}

// Snapshot returns (bids, asks) as (price, aggregate quantity) pairs in
// priority order.
func (e *MatchingEngine) Snapshot() (bids, asks []orderbook.LevelSnapshot) {
	return e.book.Snapshot()
}

// DrainTrades returns the trades executed since the last drain, optionally
// limited to the most recent limit entries (0 means unlimited), and clears
// them from the log. The engine does not return drained trades to the
// trade pool.
func (e *MatchingEngine) DrainTrades(limit int) []*domain.Trade {
	return e.executor.DrainTrades(e.symbol, limit)
}

// RegisterTradeCallback registers fn to be invoked for every trade as it is
// produced, in the same thread of control as the submission that produced
// it. At most one callback is held; registering again replaces it.
func (e *MatchingEngine) RegisterTradeCallback(fn TradeCallback) {
	e.onTrade = fn
}

// Symbol returns the instrument this engine matches.
func (e *MatchingEngine) Symbol() string {
	return e.symbol
}
