package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	c := NewCollector(WithSink(s))
	c.RecordTiming("ResponseTime_ListEntries", 20)
	c.RecordTiming("ResponseTime_ListEntries", 40)
	c.RecordCount("ResultCount_ListEntries", 3)

	assert.Equal(t, 40.0, testutil.ToFloat64(s.values.WithLabelValues("ResponseTime_ListEntries", "timing")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.samples.WithLabelValues("ResponseTime_ListEntries", "timing")))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.values.WithLabelValues("ResultCount_ListEntries", "count")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.timings))

	_, err = NewPrometheusSink(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := LogSink{Logger: zerolog.New(&buf)}

	require.NoError(t, s.TrackMetric("CacheHit_GetEntry", 0.5, map[string]string{"type": "timing"}))

	var ev map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "CacheHit_GetEntry", ev["metric"])
	assert.Equal(t, 0.5, ev["value"])
	assert.Equal(t, "timing", ev["type"])
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("b failed")}
	err := MultiSink{a, b}.TrackMetric("x", 1, nil)

	assert.ErrorContains(t, err, "b failed")
	assert.Len(t, a.calls, 1)
	assert.Len(t, b.calls, 1)
}

func TestRegistryBuild(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"log", "nop", "prometheus"}, r.Names())

	s, err := r.Build(nil, SinkDeps{})
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	s, err = r.Build([]string{"log"}, SinkDeps{Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.IsType(t, LogSink{}, s)

	s, err = r.Build([]string{"log", "prometheus"}, SinkDeps{Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	assert.Len(t, s.(MultiSink), 2)

	_, err = r.Build([]string{"appinsights"}, SinkDeps{})
	assert.ErrorContains(t, err, `unknown telemetry sink "appinsights"`)
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register("x", func(SinkDeps) (Sink, error) { return nil, errors.New("old") })
	r.Register("x", func(SinkDeps) (Sink, error) { return NopSink{}, nil })

	assert.True(t, r.Has("x"))
	assert.Len(t, r.Names(), 1)
	_, err := r.Build([]string{"x"}, SinkDeps{})
	assert.NoError(t, err)
}
