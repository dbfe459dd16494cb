package metrics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Sink is a telemetry backend accepting named numeric samples.
type Sink interface {
	TrackMetric(name string, value float64, attrs map[string]string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(name string, value float64, attrs map[string]string) error

func (f SinkFunc) TrackMetric(name string, value float64, attrs map[string]string) error {
	return f(name, value, attrs)
}

// NopSink drops every sample.
type NopSink struct{}

func (NopSink) TrackMetric(string, float64, map[string]string) error { return nil }

// MultiSink forwards to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) TrackMetric(name string, value float64, attrs map[string]string) error {
	var errs []error
	for _, s := range m {
		if err := s.TrackMetric(name, value, attrs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes each sample as a structured log event.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) TrackMetric(name string, value float64, attrs map[string]string) error {
	ev := s.Logger.Info().Str("metric", name).Float64("value", value)
	for k, v := range attrs {
		ev = ev.Str(k, v)
	}
	ev.Msg("telemetry")
	return nil
}

// SinkDeps are the shared dependencies handed to sink factories.
type SinkDeps struct {
	Logger     zerolog.Logger
	Registerer prometheus.Registerer
}

type SinkFactory func(SinkDeps) (Sink, error)

// Registry maps sink names to factories.
type Registry struct {
	factories map[string]SinkFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]SinkFactory)}
}

// DefaultRegistry knows the "log", "prometheus" and "nop" sinks.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("nop", func(SinkDeps) (Sink, error) { return NopSink{}, nil })
	r.Register("log", func(d SinkDeps) (Sink, error) { return LogSink{Logger: d.Logger}, nil })
	r.Register("prometheus", func(d SinkDeps) (Sink, error) {
		reg := d.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		return NewPrometheusSink(reg)
	})
	return r
}

// Register adds a factory; a later registration under the same name wins.
func (r *Registry) Register(name string, f SinkFactory) {
	r.factories[name] = f
}

func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered sink names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the named sinks. Several names fan out through a MultiSink;
// no names yields a NopSink.
func (r *Registry) Build(names []string, deps SinkDeps) (Sink, error) {
	var sinks MultiSink
	for _, name := range names {
		f, ok := r.factories[name]
		if !ok {
			return nil, fmt.Errorf("unknown telemetry sink %q (available: %v)", name, r.Names())
		}
		s, err := f(deps)
		if err != nil {
			return nil, fmt.Errorf("create %s sink: %w", name, err)
		}
		sinks = append(sinks, s)
	}
	switch len(sinks) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}
