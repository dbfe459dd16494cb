// Package entries is the caching data access layer in front of the blog
// entries API. It serves reads from a short-lived in-memory cache, shares
// list fetches that are already in flight, bounds concurrent outbound calls,
// and degrades to stale or empty data when the API fails.
package entries

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/briangreenhill/blogfront/blog"
	"github.com/briangreenhill/blogfront/cache"
	"github.com/briangreenhill/blogfront/internal/admission"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidID is returned for entry ids below 1.
	ErrInvalidID = errors.New("entry id must be positive")
	// ErrInvalidPage is returned for negative page indexes.
	ErrInvalidPage = errors.New("page index must not be negative")
)

// Transport is the entries API. *blog.Client implements it.
type Transport interface {
	ListEntries(ctx context.Context, page, size int) ([]byte, error)
	GetEntry(ctx context.Context, id int64) ([]byte, error)
	CreateEntry(ctx context.Context, e blog.NewEntry) error
	LikeEntry(ctx context.Context, id int64) error
	DeleteEntry(ctx context.Context, id int64) error
}

// Recorder receives performance samples. *metrics.Collector implements it.
type Recorder interface {
	RecordTiming(name string, ms float64)
	RecordCount(name string, value float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordTiming(string, float64) {}
func (nopRecorder) RecordCount(string, float64)  {}

// Stats is a point-in-time view of the service internals.
type Stats struct {
	Active       int `json:"active"`
	Queued       int `json:"queued"`
	CacheEntries int `json:"cacheEntries"`
}

// Service is the caching front for the entries API. It is safe for
// concurrent use.
type Service struct {
	api     Transport
	metrics Recorder
	log     zerolog.Logger
	now     func() time.Time

	cache         cache.Cache
	queue         *admission.Queue
	maxConcurrent int
	flights       singleflight.Group

	defaultPageSize  int
	preloadDelay     time.Duration
	collapseByParams bool

	latestMu sync.RWMutex
	latest   *blog.PagedEntries

	loadingMu sync.Mutex
	inFlight  int
	onLoading func(bool)
}

// New builds a Service. A nil rec discards metrics.
func New(api Transport, rec Recorder, opts ...Option) *Service {
	s := &Service{
		api:             api,
		metrics:         rec,
		log:             zerolog.Nop(),
		now:             time.Now,
		maxConcurrent:   admission.DefaultMaxConcurrent,
		defaultPageSize: DefaultPageSize,
		preloadDelay:    DefaultPreloadDelay,
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	for _, o := range opts {
		o(s)
	}
	if s.cache == nil {
		s.cache = cache.NewMemory()
	}
	s.queue = admission.New(s.maxConcurrent)
	return s
}

func (s *Service) DefaultPageSize() int { return s.defaultPageSize }

func (s *Service) Stats() Stats {
	return Stats{
		Active:       s.queue.Active(),
		Queued:       s.queue.Waiting(),
		CacheEntries: s.cache.Len(),
	}
}

// LatestPage returns the most recently fetched list page. It is cleared
// whenever a mutation invalidates the list.
func (s *Service) LatestPage() (blog.PagedEntries, bool) {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	if s.latest == nil {
		return blog.PagedEntries{}, false
	}
	return *s.latest, true
}

func (s *Service) setLatest(p *blog.PagedEntries) {
	s.latestMu.Lock()
	s.latest = p
	s.latestMu.Unlock()
}

// Loading reports whether any fetch or mutation is in flight.
func (s *Service) Loading() bool {
	s.loadingMu.Lock()
	defer s.loadingMu.Unlock()
	return s.inFlight > 0
}

// track marks one operation as started; the returned func marks it done.
func (s *Service) track() func() {
	s.loadingMu.Lock()
	s.inFlight++
	if s.inFlight == 1 && s.onLoading != nil {
		s.onLoading(true)
	}
	s.loadingMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.loadingMu.Lock()
			s.inFlight--
			if s.inFlight == 0 && s.onLoading != nil {
				s.onLoading(false)
			}
			s.loadingMu.Unlock()
		})
	}
}

func (s *Service) since(start time.Time) float64 {
	return float64(s.now().Sub(start)) / float64(time.Millisecond)
}

// isCanceled reports whether err comes from a cancelled or expired context.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func wrapOp(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
