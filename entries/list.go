package entries

import (
	"context"
	"time"

	"github.com/briangreenhill/blogfront/blog"
	"github.com/briangreenhill/blogfront/internal/admission"
)

// listFlight is the shared in-flight key when collapsing ignores paging.
const listFlight = "blogs"

// FetchPage returns one page of entry overviews. A pageSize <= 0 uses the
// default page size; a negative page returns ErrInvalidPage.
//
// A valid cached page is returned without a request unless forceRefresh is
// set. If the API call fails the last cached page for the same parameters is
// returned even when expired, or an empty page if there is none. Only
// response validation errors and ctx errors are returned to the caller.
func (s *Service) FetchPage(ctx context.Context, page, pageSize int, forceRefresh bool) (blog.PagedEntries, error) {
	return s.fetchPage(ctx, page, pageSize, forceRefresh, true)
}

func (s *Service) fetchPage(ctx context.Context, page, pageSize int, forceRefresh, track bool) (blog.PagedEntries, error) {
	if page < 0 {
		return blog.PagedEntries{}, ErrInvalidPage
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	key := ListKey(page, pageSize)
	start := s.now()

	if !forceRefresh {
		if e, ok := s.cache.Read(key); ok {
			s.metrics.RecordTiming("CacheHit_ListEntries", s.since(start))
			return e.Value.(blog.PagedEntries), nil
		}
	}

	flight := listFlight
	if s.collapseByParams {
		flight = key
	}

	for {
		var led bool
		ch := s.flights.DoChan(flight, func() (any, error) {
			led = true
			return s.loadPage(ctx, page, pageSize, key, track)
		})

		select {
		case <-ctx.Done():
			return blog.PagedEntries{}, ctx.Err()
		case res := <-ch:
			if !led {
				// the request we joined was cancelled by its own caller
				if isCanceled(res.Err) && ctx.Err() == nil {
					continue
				}
				s.metrics.RecordTiming("WaitingRequest_ListEntries", s.since(start))
			}
			if res.Err != nil {
				return blog.PagedEntries{}, res.Err
			}
			return res.Val.(blog.PagedEntries), nil
		}
	}
}

func (s *Service) loadPage(ctx context.Context, page, pageSize int, key string, track bool) (blog.PagedEntries, error) {
	if track {
		defer s.track()()
	}
	start := s.now()
	log := s.log.With().Str("key", key).Int("page", page).Int("size", pageSize).Logger()

	raw, err := admission.Run(ctx, s.queue, func(ctx context.Context) ([]byte, error) {
		return s.api.ListEntries(ctx, page, pageSize)
	})
	if err != nil {
		if ctx.Err() != nil {
			return blog.PagedEntries{}, ctx.Err()
		}
		s.metrics.RecordTiming("Error_ListEntries", s.since(start))
		if e, ok := s.cache.Read(key); e != nil {
			log.Warn().Err(err).Bool("expired", !ok).Msg("list entries failed, serving cached page")
			return e.Value.(blog.PagedEntries), nil
		}
		log.Warn().Err(err).Msg("list entries failed, serving empty page")
		return blog.EmptyPage(), nil
	}

	data, err := blog.DecodePagedEntries(raw)
	if err != nil {
		s.metrics.RecordTiming("Error_ListEntries", s.since(start))
		log.Error().Err(err).Msg("invalid list response")
		return blog.PagedEntries{}, wrapOp("list entries", err)
	}

	s.cache.Write(key, data)
	s.setLatest(&data)
	s.metrics.RecordTiming("ResponseTime_ListEntries", s.since(start))
	s.metrics.RecordCount("ResultCount_ListEntries", float64(len(data.Data)))
	log.Debug().Int("count", len(data.Data)).Msg("list entries fetched")
	return data, nil
}

// Preload warms the cache with the first page after the preload delay. It
// returns at once; the returned channel is closed when the warm-up is over.
// Preloading does not change Loading() and its errors are only logged.
func (s *Service) Preload(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTimer(s.preloadDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if _, err := s.fetchPage(ctx, 0, s.defaultPageSize, false, false); err != nil {
			s.log.Debug().Err(err).Msg("preload failed")
		}
	}()
	return done
}
