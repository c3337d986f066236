package matching

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"matchforge/domain"
	"matchforge/orderbook"
)

// Matcher implements price-time-priority matching for one OrderBook. It
// holds no state of its own beyond the book and the executor it was
// constructed with; matching is a pure function of their current contents.
type Matcher struct {
	book     *orderbook.OrderBook
	executor *TradeExecutor
}

// NewMatcher builds a Matcher over book, producing trades through executor.
func NewMatcher(book *orderbook.OrderBook, executor *TradeExecutor) *Matcher {
	return &Matcher{book: book, executor: executor}
}

// Match drains resting orders against incoming, best price first and FIFO
// within a price, until incoming is exhausted or no further crossing is
// possible. If incoming is a Limit order with quantity remaining
// afterward, it is rested on its own side. A Market order left with
// quantity remaining is discarded without resting (spec.md §4.2 step 6).
//
// Each step re-reads the opposite side's best level rather than holding an
// iterator across mutation: draining a level can evict it from the book's
// price tree, and an iterator held across that eviction would be invalid.
func (m *Matcher) Match(incoming *domain.Order) {
	opposite := m.book.OppositeTree(incoming.Side)

	for !incoming.IsFilled() {
		level := opposite.Best()
		if level == nil {
			break
		}
		if incoming.Type == domain.OrderTypeLimit && !crosses(incoming, level.Price) {
			break
		}

		m.drainLevel(incoming, level)
	}

	if incoming.Type == domain.OrderTypeLimit && !incoming.IsFilled() {
		m.book.Insert(incoming)
	}
}

// crosses reports whether an incoming Limit order at incoming.Price can
// trade against a resting level at levelPrice: a buy crosses any ask at or
// below its limit, a sell crosses any bid at or above its limit.
func crosses(incoming *domain.Order, levelPrice decimal.Decimal) bool {
	if incoming.Side == domain.SideBuy {
		return incoming.Price.GreaterThanOrEqual(levelPrice)
	}
	return incoming.Price.LessThanOrEqual(levelPrice)
}

// drainLevel consumes resting orders from level's FIFO head while incoming
// still has quantity remaining, emitting a trade per resting order touched
// and evicting the level once it empties.
func (m *Matcher) drainLevel(incoming *domain.Order, level *orderbook.PriceLevel) {
	side := incoming.Side
	restingSide := domain.SideSell
	if side == domain.SideSell {
		restingSide = domain.SideBuy
	}

	for !incoming.IsFilled() {
		resting := level.Front()
		if resting == nil {
			break
		}

		quantity := incoming.RemainingQuantity()
		if restQty := resting.RemainingQuantity(); restQty.LessThan(quantity) {
			quantity = restQty
		}

		var buy, sell *domain.Order
		if side == domain.SideBuy {
			buy, sell = incoming, resting
		} else {
			buy, sell = resting, incoming
		}
		trade := m.executor.Execute(buy, sell, level.Price, quantity)

		incoming.Fill(quantity)
		resting.Fill(quantity)
		m.book.ApplyFill(resting, quantity)

		log.Debug().
			Uint64("trade_id", trade.ID).
			Str("symbol", trade.Symbol).
			Str("price", trade.Price.String()).
			Str("quantity", trade.Quantity.String()).
			Msg("trade executed")

		if resting.IsFilled() {
			if _, err := m.book.Remove(resting.ID); err != nil {
				violation := &InvariantViolation{Reason: fmt.Sprintf(
					"resting order %d reported filled but the book no longer has it resting: %v",
					resting.ID, err,
				)}
				log.Error().Err(violation).Uint64("order_id", resting.ID).Msg("invariant violation")
				panic(violation)
			}
			resting.Destroy()
		}
	}

	m.book.EvictIfEmpty(restingSide, level.Price)
}
