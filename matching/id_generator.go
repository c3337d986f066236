package matching

import "sync/atomic"

// IDGenerator hands out monotonically increasing uint64 ids via a single
// atomic counter. Adapted from the teacher's matching/id_generator.go,
// which wrapped the same atomic counter in a sync.Pool of strings.Builder
// to format string ids ("T1", "T2", ...) without fmt.Sprintf allocation.
// Since spec.md §3 requires uint64 ids rather than strings, there's
// nothing left to format — the counter is returned directly.
type IDGenerator struct {
	counter uint64
}

// NewIDGenerator creates an IDGenerator starting at 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next id in the sequence.
func (g *IDGenerator) Next() uint64 {
	return atomic.AddUint64(&g.counter, 1)
}
