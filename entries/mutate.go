package entries

import (
	"context"
	"fmt"

	"github.com/briangreenhill/blogfront/blog"
)

// AddEntry validates and creates a new entry, then drops every cached list page.
func (s *Service) AddEntry(ctx context.Context, e blog.NewEntry) error {
	if err := blog.ValidateNewEntry(e); err != nil {
		return err
	}
	return s.mutate(ctx, "AddEntry", func(ctx context.Context) error {
		return s.api.CreateEntry(ctx, e)
	}, "")
}

// LikeEntry likes an entry and drops its cached copy along with the list pages.
func (s *Service) LikeEntry(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.mutate(ctx, "LikeEntry", func(ctx context.Context) error {
		return s.api.LikeEntry(ctx, id)
	}, EntryKey(id))
}

// DeleteEntry deletes an entry and drops its cached copy along with the list pages.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.mutate(ctx, "DeleteEntry", func(ctx context.Context) error {
		return s.api.DeleteEntry(ctx, id)
	}, EntryKey(id))
}

// mutate runs call through the admission queue. On success the list pages
// and, if set, entryKey are invalidated.
func (s *Service) mutate(ctx context.Context, op string, call func(context.Context) error, entryKey string) error {
	defer s.track()()
	start := s.now()

	if err := s.queue.Do(ctx, call); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.metrics.RecordTiming("Error_"+op, s.since(start))
		s.log.Warn().Err(err).Str("op", op).Msg("mutation failed")
		return fmt.Errorf("%s: %w", op, err)
	}

	if entryKey != "" {
		s.cache.Delete(entryKey)
	}
	s.InvalidateLists()
	s.metrics.RecordTiming("ResponseTime_"+op, s.since(start))
	return nil
}

// InvalidateLists drops every cached list page and clears LatestPage.
func (s *Service) InvalidateLists() {
	n := s.cache.DeletePrefix(listPrefix)
	s.setLatest(nil)
	s.log.Debug().Int("pages", n).Msg("list cache invalidated")
}
