// Package metrics records client-side performance samples into a bounded
// history and forwards each one to a telemetry sink.
package metrics

import (
	"fmt"
	"time"
)

// Kind is the closed set of sample kinds.
type Kind int

const (
	KindTiming Kind = iota // milliseconds
	KindCount
	KindMemory // megabytes
)

func (k Kind) String() string {
	switch k {
	case KindTiming:
		return "timing"
	case KindCount:
		return "count"
	case KindMemory:
		return "memory"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "timing":
		*k = KindTiming
	case "count":
		*k = KindCount
	case "memory":
		*k = KindMemory
	default:
		return fmt.Errorf("unknown metric type %q", b)
	}
	return nil
}

// Metric is one recorded sample. It is never modified after recording.
type Metric struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Kind      Kind      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Attributes are the properties forwarded to a Sink alongside name and value.
func (m Metric) Attributes() map[string]string {
	return map[string]string{
		"type":      m.Kind.String(),
		"timestamp": m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
