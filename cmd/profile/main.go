package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/shopspring/decimal"

	"matchforge/domain"
	"matchforge/matching"
)

// profile drives the synchronous MatchingEngine.SubmitLimit path directly
// under a CPU profile. The teacher's equivalent spun up a worker pool
// feeding the async ring-buffer engine; with matching now synchronous on
// the calling goroutine, a single tight loop exercises the same hot path.
func main() {
	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	defer cpuFile.Close()

	pprof.StartCPUProfile(cpuFile)
	defer pprof.StopCPUProfile()

	fmt.Println("profiling SubmitLimit: writing cpu.prof")

	engine := matching.NewMatchingEngine("BTCUSDT", nil)

	const duration = 10 * time.Second
	start := time.Now()
	var orders int64

	base := decimal.RequireFromString("50000")
	qty := decimal.RequireFromString("1")
	spread := decimal.RequireFromString("200")

	for i := int64(0); time.Since(start) < duration; i++ {
		side := domain.SideBuy
		if i%2 != 0 {
			side = domain.SideSell
		}
		offset := decimal.NewFromInt(i % 200)
		price := base.Add(offset.Mod(spread))

		if _, err := engine.SubmitLimit(side, price, qty, i); err == nil {
			orders++
		}
	}

	elapsed := time.Since(start)
	trades := len(engine.DrainTrades(0))
	fmt.Printf("orders: %d (%.0f/sec)\n", orders, float64(orders)/elapsed.Seconds())
	fmt.Printf("trades observed: %d (%.0f/sec)\n", trades, float64(trades)/elapsed.Seconds())
	fmt.Println("analyze with: go tool pprof -http=:8080 cpu.prof")
}
