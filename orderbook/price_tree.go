package orderbook

import (
	"github.com/shopspring/decimal"
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
)

// PriceTree is an ordered map of price -> *PriceLevel, iterated in
// matching-priority order for its side (ascending for asks, descending for
// bids). One implementation is provided: a red-black tree keyed on price
// with a side-specific comparator.
//
// The teacher's sharded/bucketed variant (price_tree_sharded.go) traded
// this O(log P) tree for an O(log m) tree-of-fixed-arrays keyed on
// int64 price buckets, indexed with a bitmask. That trick doesn't carry
// over to decimal.Decimal prices (no bit pattern to mask) and the spec
// only calls for O(log P) lookup, so it's dropped here — see DESIGN.md.
type PriceTree struct {
	tree       *rbt.Tree[decimal.Decimal, *PriceLevel]
	descending bool
}

// NewPriceTree creates a price tree for one side of the book. descending
// is true for bids (best = highest price), false for asks (best = lowest).
func NewPriceTree(descending bool) *PriceTree {
	cmp := func(a, b decimal.Decimal) int { return a.Cmp(b) }
	if descending {
		cmp = func(a, b decimal.Decimal) int { return b.Cmp(a) }
	}
	return &PriceTree{
		tree:       rbt.NewWith[decimal.Decimal, *PriceLevel](cmp),
		descending: descending,
	}
}

// GetOrCreate returns the level at price, creating and inserting an empty
// one if none exists yet.
func (pt *PriceTree) GetOrCreate(price decimal.Decimal) *PriceLevel {
	level, ok := pt.tree.Get(price)
	if ok {
		return level
	}
	level = NewPriceLevel(price)
	pt.tree.Put(price, level)
	return level
}

// Get returns the level at price, or nil if none exists.
func (pt *PriceTree) Get(price decimal.Decimal) *PriceLevel {
	level, ok := pt.tree.Get(price)
	if !ok {
		return nil
	}
	return level
}

// Delete removes the level at price. No-op if absent.
func (pt *PriceTree) Delete(price decimal.Decimal) {
	pt.tree.Remove(price)
}

// Best returns the best (highest-priority) level, or nil if the tree is
// empty.
func (pt *PriceTree) Best() *PriceLevel {
	node := pt.tree.Left()
	if node == nil {
		return nil
	}
	return node.Value
}

// Empty reports whether the tree has no price levels.
func (pt *PriceTree) Empty() bool {
	return pt.tree.Empty()
}

// Size returns the number of distinct price levels.
func (pt *PriceTree) Size() int {
	return pt.tree.Size()
}

// Depth returns up to maxLevels (price, aggregate quantity) pairs in
// matching-priority order.
func (pt *PriceTree) Depth(maxLevels int) []LevelSnapshot {
	if maxLevels <= 0 || pt.tree.Empty() {
		return nil
	}
	out := make([]LevelSnapshot, 0, maxLevels)
	it := pt.tree.Iterator()
	for it.Next() && len(out) < maxLevels {
		level := it.Value()
		out = append(out, LevelSnapshot{Price: level.Price, Quantity: level.Aggregate()})
	}
	return out
}

// LevelSnapshot is a (price, aggregate quantity) pair returned by
// OrderBook.Snapshot.
type LevelSnapshot struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}
