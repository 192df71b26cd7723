package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type perfGauges struct {
	cpu        metric.Float64Gauge
	memory     metric.Int64Gauge
	heapObjs   metric.Int64Gauge
	goroutines metric.Int64Gauge
}

func newPerfGauges(meter metric.Meter) perfGauges {
	g := perfGauges{}
	g.cpu, _ = meter.Float64Gauge("process.cpu_usage", metric.WithUnit("%"))
	g.memory, _ = meter.Int64Gauge("process.allocated", metric.WithUnit("MB"))
	g.heapObjs, _ = meter.Int64Gauge("process.heap_objects")
	g.goroutines, _ = meter.Int64Gauge("process.goroutines")
	return g
}

func (g perfGauges) record(ctx context.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	usage, err := cpu.PercentWithContext(ctx, 0, false)
	switch {
	case err != nil:
		slog.Debug("failed to read cpu usage", "err", err)
	case len(usage) > 0:
		g.cpu.Record(ctx, usage[0])
	}

	g.memory.Record(ctx, int64(memStats.Alloc/1_000_000))
	g.heapObjs.Record(ctx, int64(memStats.HeapObjects))
	g.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
}

// InstrumentPerfStats samples process statistics every interval until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	gauges := newPerfGauges(otel.Meter("ao3scraper/perf_stats"))
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			gauges.record(ctx)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
}
