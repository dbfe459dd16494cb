package entries

import (
	"context"
	"fmt"

	"github.com/briangreenhill/blogfront/blog"
	"github.com/briangreenhill/blogfront/internal/admission"
)

// FetchOne returns a single entry with its content and comments. If the API
// call fails a cached copy is returned even when expired; without one the
// error is returned.
func (s *Service) FetchOne(ctx context.Context, id int64) (blog.Entry, error) {
	if id <= 0 {
		return blog.Entry{}, ErrInvalidID
	}
	key := EntryKey(id)
	start := s.now()

	if e, ok := s.cache.Read(key); ok {
		s.metrics.RecordTiming("CacheHit_GetEntry", s.since(start))
		return e.Value.(blog.Entry), nil
	}

	defer s.track()()
	raw, err := admission.Run(ctx, s.queue, func(ctx context.Context) ([]byte, error) {
		return s.api.GetEntry(ctx, id)
	})
	if err != nil {
		if ctx.Err() != nil {
			return blog.Entry{}, ctx.Err()
		}
		s.metrics.RecordTiming("Error_GetEntry", s.since(start))
		if e, _ := s.cache.Read(key); e != nil {
			s.log.Warn().Err(err).Int64("id", id).Msg("get entry failed, serving cached entry")
			return e.Value.(blog.Entry), nil
		}
		return blog.Entry{}, fmt.Errorf("get entry %d: %w", id, err)
	}

	entry, err := blog.DecodeEntry(raw)
	if err != nil {
		s.metrics.RecordTiming("Error_GetEntry", s.since(start))
		return blog.Entry{}, fmt.Errorf("get entry %d: %w", id, err)
	}

	s.cache.Write(key, entry)
	s.metrics.RecordTiming("ResponseTime_GetEntry", s.since(start))
	return entry, nil
}
