package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var perfMeter = otel.Meter("postpulse.perf")

var (
	perfCpu, _        = perfMeter.Float64Gauge("cpu_usage")
	perfHeapMb, _     = perfMeter.Int64Gauge("heap_allocated_mb")
	perfLiveObjs, _   = perfMeter.Int64Gauge("live_objects")
	perfGoroutines, _ = perfMeter.Int64Gauge("goroutine_count")
)

// InstrumentPerfStats samples process-level gauges every 30s until ctx
// is cancelled. Long harvest runs hold a Chrome subprocess and a lot of
// parsed DOM, so memory drift is worth watching.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second * 30)
		defer ticker.Stop()

		var mem runtime.MemStats
		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&mem)
				perfHeapMb.Record(ctx, int64(mem.Alloc/1_000_000))
				perfLiveObjs.Record(ctx, int64(mem.Mallocs)-int64(mem.Frees))
				perfGoroutines.Record(ctx, int64(runtime.NumGoroutine()))

				usage, err := cpu.Percent(time.Minute, false)
				if err != nil {
					slog.Warn("failed to read cpu usage", "err", err)
					continue
				}
				perfCpu.Record(ctx, usage[0])
			case <-ctx.Done():
				return
			}
		}
	}()
}
