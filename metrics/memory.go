package metrics

import (
	"context"
	"runtime"
	"time"
)

const DefaultMemoryInterval = 30 * time.Second

// SampleMemory records the current heap usage in megabytes.
func (c *Collector) SampleMemory() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	c.RecordMemorySample("HeapAllocMB", float64(ms.HeapAlloc)/(1<<20))
	c.RecordMemorySample("HeapSysMB", float64(ms.HeapSys)/(1<<20))
}

// RunMemorySampler samples memory every interval until ctx is done.
func (c *Collector) RunMemorySampler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultMemoryInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.SampleMemory()
		}
	}
}
