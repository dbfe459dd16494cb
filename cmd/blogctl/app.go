package main

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/briangreenhill/blogfront/blog"
	"github.com/briangreenhill/blogfront/cache"
	"github.com/briangreenhill/blogfront/entries"
	"github.com/briangreenhill/blogfront/internal/config"
	"github.com/briangreenhill/blogfront/metrics"
)

type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	prom      *prometheus.Registry
	collector *metrics.Collector
	svc       *entries.Service
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	prom := prometheus.NewRegistry()
	prom.MustRegister(collectors.NewGoCollector())

	sink, err := metrics.DefaultRegistry().Build(cfg.Telemetry.Sinks, metrics.SinkDeps{
		Logger:     logger.With().Str("component", "telemetry").Logger(),
		Registerer: prom,
	})
	if err != nil {
		return nil, err
	}
	collector := metrics.NewCollector(
		metrics.WithHistorySize(cfg.Telemetry.History),
		metrics.WithSink(sink),
		metrics.WithLogger(logger),
	)

	// revalidating HTTP cache under the instrumentation so cached responses are still measured
	var base http.RoundTripper = http.DefaultTransport
	if cfg.API.HTTPCache {
		base = httpcache.NewMemoryCacheTransport()
	}
	httpClient := &http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: metrics.InstrumentTransport(base, collector, cfg.Telemetry.SlowRequest),
	}

	opts := []blog.Option{
		blog.WithHTTPClient(httpClient),
		blog.WithBaseURL(cfg.API.BaseURL),
		blog.WithLogger(logger),
	}
	if cfg.HasToken() {
		opts = append(opts, blog.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.API.AccessToken})))
	}
	client, err := blog.New(opts...)
	if err != nil {
		return nil, err
	}

	svc := entries.New(client, collector,
		entries.WithCache(cache.NewMemory(
			cache.WithTTL(cfg.Cache.TTL),
			cache.WithMaxEntries(cfg.Cache.Size),
		)),
		entries.WithMaxConcurrent(cfg.API.MaxConcurrent),
		entries.WithDefaultPageSize(cfg.Cache.PageSize),
		entries.WithPreloadDelay(cfg.Cache.PreloadDelay),
		entries.WithCollapseByParams(cfg.Cache.CollapseByParams),
		entries.WithLogger(logger.With().Str("component", "entries").Logger()),
		entries.WithLoadingHook(func(loading bool) {
			logger.Debug().Bool("loading", loading).Msg("loading state changed")
		}),
	)

	return &app{cfg: cfg, log: logger, prom: prom, collector: collector, svc: svc}, nil
}

type metricsReport struct {
	Metrics []metrics.Metric           `json:"metrics"`
	Summary map[string]metrics.Summary `json:"summary"`
	Stats   entries.Stats              `json:"stats"`
}

// report summarises the recorded samples; name narrows the listed metrics.
func (a *app) report(name string) metricsReport {
	ms := a.collector.History()
	if name != "" {
		ms = a.collector.HistoryFor(name)
	}
	if ms == nil {
		ms = []metrics.Metric{}
	}
	summary := map[string]metrics.Summary{}
	for _, prefix := range []string{"API_", "ResponseTime_", "CacheHit_", "Error_"} {
		summary[prefix] = a.collector.Summary(prefix)
	}
	return metricsReport{Metrics: ms, Summary: summary, Stats: a.svc.Stats()}
}
