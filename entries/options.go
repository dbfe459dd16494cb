package entries

import (
	"time"

	"github.com/briangreenhill/blogfront/cache"
	"github.com/rs/zerolog"
)

const (
	DefaultPageSize     = 10
	DefaultPreloadDelay = 100 * time.Millisecond
)

// Option configures a Service.
type Option func(*Service)

// WithCache replaces the default 50 entry, 5 minute cache.Memory.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMaxConcurrent bounds the number of API calls in flight (default 3).
func WithMaxConcurrent(n int) Option {
	return func(s *Service) { s.maxConcurrent = n }
}

// WithDefaultPageSize sets the page size used when a caller passes none.
func WithDefaultPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultPageSize = n
		}
	}
}

// WithPreloadDelay sets how long Preload waits before fetching (default 100ms).
func WithPreloadDelay(d time.Duration) Option {
	return func(s *Service) { s.preloadDelay = d }
}

// WithCollapseByParams makes concurrent list fetches share a request only
// when page and page size match. By default any list fetch in progress is
// shared with every concurrent list caller, whatever page it asked for.
func WithCollapseByParams(on bool) Option {
	return func(s *Service) { s.collapseByParams = on }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithLoadingHook registers fn to be called on every change of Loading().
// fn must not call back into the Service.
func WithLoadingHook(fn func(loading bool)) Option {
	return func(s *Service) { s.onLoading = fn }
}

// WithClock replaces time.Now for response time measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}
