package metrics

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultHistorySize = 100

// Collector keeps the most recent samples and forwards every sample to its Sink.
// Sink failures are logged and never reach the caller.
type Collector struct {
	mu      sync.Mutex
	history *ring[Metric]

	sink Sink
	log  zerolog.Logger
	now  func() time.Time
}

type Option func(*Collector)

func WithHistorySize(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.history = newRing[Metric](n)
		}
	}
}

func WithSink(s Sink) Option {
	return func(c *Collector) { c.sink = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Collector) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		history: newRing[Metric](DefaultHistorySize),
		sink:    NopSink{},
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RecordTiming records a duration in milliseconds.
func (c *Collector) RecordTiming(name string, ms float64) { c.record(name, ms, KindTiming) }

func (c *Collector) RecordCount(name string, value float64) { c.record(name, value, KindCount) }

// RecordMemorySample records a memory reading in megabytes.
func (c *Collector) RecordMemorySample(name string, mb float64) { c.record(name, mb, KindMemory) }

// RecordAPICall records the time since start as API_{endpoint}_{Success|Failure}.
func (c *Collector) RecordAPICall(endpoint string, start time.Time, success bool) {
	outcome := "Failure"
	if success {
		outcome = "Success"
	}
	c.RecordTiming("API_"+endpoint+"_"+outcome, Millis(c.now().Sub(start)))
}

func (c *Collector) record(name string, value float64, kind Kind) {
	m := Metric{Name: name, Value: value, Kind: kind, Timestamp: c.now()}

	c.mu.Lock()
	c.history.push(m)
	c.mu.Unlock()

	if err := c.forward(m); err != nil {
		c.log.Warn().Err(err).Str("metric", name).Msg("forward metric to sink failed")
	}
	c.log.Debug().Str("metric", name).Float64("value", value).Stringer("type", kind).Msg("metric recorded")
}

func (c *Collector) forward(m Metric) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return c.sink.TrackMetric(m.Name, m.Value, m.Attributes())
}

// History returns a copy of the recorded samples, oldest first.
func (c *Collector) History() []Metric {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.snapshot()
}

// HistoryFor returns the recorded samples with the given name, oldest first.
func (c *Collector) HistoryFor(name string) []Metric {
	var out []Metric
	for _, m := range c.History() {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Summary aggregates the timing samples whose name starts with prefix.
func (c *Collector) Summary(prefix string) Summary {
	var ms []Metric
	for _, m := range c.History() {
		if m.Kind == KindTiming && strings.HasPrefix(m.Name, prefix) {
			ms = append(ms, m)
		}
	}
	return Summarize(ms)
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.len()
}
