package matching

import (
	"testing"

	"github.com/shopspring/decimal"

	"matchforge/domain"
	"matchforge/orderbook"
)

func newEngine(t *testing.T) (*orderbook.OrderBook, *Matcher, *TradeExecutor, *IDGenerator) {
	t.Helper()
	book := orderbook.NewOrderBook("BTCUSDT")
	executor := NewTradeExecutor()
	matcher := NewMatcher(book, executor)
	return book, matcher, executor, NewIDGenerator()
}

func dd(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMatchPureAddNoCross(t *testing.T) {
	book, matcher, _, ids := newEngine(t)

	buy := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideBuy, dd("100.0"), dd("10.0"), 1)
	matcher.Match(buy)
	sell := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideSell, dd("110.0"), dd("5.0"), 2)
	matcher.Match(sell)

	bids, asks := book.Snapshot()
	if len(bids) != 1 || !bids[0].Price.Equal(dd("100.0")) || !bids[0].Quantity.Equal(dd("10.0")) {
		t.Errorf("unexpected bids: %+v", bids)
	}
	if len(asks) != 1 || !asks[0].Price.Equal(dd("110.0")) || !asks[0].Quantity.Equal(dd("5.0")) {
		t.Errorf("unexpected asks: %+v", asks)
	}
}

func TestMatchLimitVsLimitCrossAtRestingPrice(t *testing.T) {
	book, matcher, executor, ids := newEngine(t)

	buy := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideBuy, dd("100.0"), dd("10.0"), 1)
	matcher.Match(buy)
	sell := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideSell, dd("100.0"), dd("5.0"), 2)
	matcher.Match(sell)

	bids, asks := book.Snapshot()
	if len(bids) != 1 || !bids[0].Quantity.Equal(dd("5.0")) {
		t.Errorf("expected remaining bid of 5.0, got %+v", bids)
	}
	if len(asks) != 0 {
		t.Errorf("expected no resting asks, got %+v", asks)
	}

	trades := executor.DrainTrades("", 0)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	trade := trades[0]
	if !trade.Price.Equal(dd("100.0")) || !trade.Quantity.Equal(dd("5.0")) {
		t.Errorf("unexpected trade: %+v", trade)
	}
	if trade.BuyOrderID != buy.ID || trade.SellOrderID != sell.ID {
		t.Errorf("unexpected trade counterparties: %+v", trade)
	}
}

func TestMatchMarketAgainstLimit(t *testing.T) {
	book, matcher, executor, ids := newEngine(t)

	sell := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideSell, dd("100.0"), dd("10.0"), 1)
	matcher.Match(sell)
	buy := domain.NewMarketOrder(ids.Next(), "BTCUSDT", domain.SideBuy, dd("5.0"), 2)
	matcher.Match(buy)

	bids, asks := book.Snapshot()
	if len(bids) != 0 {
		t.Errorf("expected no resting bids, got %+v", bids)
	}
	if len(asks) != 1 || !asks[0].Quantity.Equal(dd("5.0")) {
		t.Errorf("expected remaining ask of 5.0, got %+v", asks)
	}

	trades := executor.DrainTrades("", 0)
	if len(trades) != 1 || !trades[0].Price.Equal(dd("100.0")) || !trades[0].Quantity.Equal(dd("5.0")) {
		t.Errorf("unexpected trades: %+v", trades)
	}
}

func TestMatchMarketOrderEmptyBookProducesNoTrades(t *testing.T) {
	_, matcher, executor, ids := newEngine(t)

	buy := domain.NewMarketOrder(ids.Next(), "BTCUSDT", domain.SideBuy, dd("5.0"), 1)
	matcher.Match(buy)

	if buy.Status != domain.OrderStatusNew {
		t.Errorf("expected market order against empty book to remain New, got %v", buy.Status)
	}
	if !buy.RemainingQuantity().Equal(dd("5.0")) {
		t.Errorf("expected market order to retain full remaining quantity, got %s", buy.RemainingQuantity())
	}
	if executor.Len() != 0 {
		t.Errorf("expected no trades, got %d", executor.Len())
	}
}

func TestMatchDepthOrdering(t *testing.T) {
	book, matcher, _, ids := newEngine(t)

	buys := []struct {
		price, qty string
	}{{"100", "10"}, {"99", "20"}, {"98", "30"}}
	for _, b := range buys {
		matcher.Match(domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideBuy, dd(b.price), dd(b.qty), 1))
	}
	sells := []struct {
		price, qty string
	}{{"101", "15"}, {"102", "25"}, {"103", "35"}}
	for _, s := range sells {
		matcher.Match(domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideSell, dd(s.price), dd(s.qty), 1))
	}

	bids, asks := book.Snapshot()
	wantBids := []string{"100", "99", "98"}
	for i, w := range wantBids {
		if !bids[i].Price.Equal(dd(w)) {
			t.Errorf("bid %d: expected price %s, got %s", i, w, bids[i].Price)
		}
	}
	wantAsks := []string{"101", "102", "103"}
	for i, w := range wantAsks {
		if !asks[i].Price.Equal(dd(w)) {
			t.Errorf("ask %d: expected price %s, got %s", i, w, asks[i].Price)
		}
	}
}

func TestMatchArrivalOrderPrecedenceAtSamePrice(t *testing.T) {
	book, matcher, executor, ids := newEngine(t)

	first := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideBuy, dd("100"), dd("5"), 1)
	firstID := first.ID // first is recycled once fully filled, so keep its id
	matcher.Match(first)
	second := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideBuy, dd("100"), dd("5"), 2)
	matcher.Match(second)

	taker := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideSell, dd("100"), dd("5"), 3)
	matcher.Match(taker)

	trades := executor.DrainTrades("", 0)
	if len(trades) != 1 || trades[0].BuyOrderID != firstID {
		t.Errorf("expected the earlier-arriving order to trade first, got %+v", trades)
	}

	bids, _ := book.Snapshot()
	if len(bids) != 1 || !bids[0].Quantity.Equal(dd("5")) {
		t.Errorf("expected the later order still resting at full size, got %+v", bids)
	}
}

func TestMatchSelfCrossAllowed(t *testing.T) {
	_, matcher, executor, ids := newEngine(t)

	id := ids.Next()
	buy := domain.NewLimitOrder(id, "BTCUSDT", domain.SideBuy, dd("100"), dd("5"), 1)
	matcher.Match(buy)
	sell := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideSell, dd("100"), dd("5"), 2)
	matcher.Match(sell)

	if executor.Len() != 1 {
		t.Errorf("expected the cross to produce a trade even with the same counterparty, got %d", executor.Len())
	}
}

func TestMatchLimitRestsWhenNoCross(t *testing.T) {
	book, matcher, _, ids := newEngine(t)

	buy := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideBuy, dd("90"), dd("5"), 1)
	sell := domain.NewLimitOrder(ids.Next(), "BTCUSDT", domain.SideSell, dd("110"), dd("5"), 2)
	matcher.Match(buy)
	matcher.Match(sell)

	if book.Lookup(buy.ID) == nil || book.Lookup(sell.ID) == nil {
		t.Error("expected both non-crossing limit orders to rest")
	}
}
