package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blogfront"

// PrometheusSink exposes samples as Prometheus series: the last value per
// name and kind, a sample counter, and a histogram for timings.
type PrometheusSink struct {
	values  *prometheus.GaugeVec
	samples *prometheus.CounterVec
	timings *prometheus.HistogramVec
}

func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	s := &PrometheusSink{
		values: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "metric_value",
				Help:      "Last recorded value of a client performance metric.",
			},
			[]string{"name", "type"},
		),
		samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metric_samples_total",
				Help:      "Number of recorded client performance samples.",
			},
			[]string{"name", "type"},
		),
		timings: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "timing_milliseconds",
				Help:      "Distribution of client timing metrics in milliseconds.",
				Buckets:   prometheus.ExponentialBuckets(1, 2.5, 10), // 1ms to ~3.8s
			},
			[]string{"name"},
		),
	}
	for _, c := range []prometheus.Collector{s.values, s.samples, s.timings} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PrometheusSink) TrackMetric(name string, value float64, attrs map[string]string) error {
	kind := attrs["type"]
	s.values.WithLabelValues(name, kind).Set(value)
	s.samples.WithLabelValues(name, kind).Inc()
	if kind == KindTiming.String() {
		s.timings.WithLabelValues(name).Observe(value)
	}
	return nil
}
