package search

import (
	"context"
	"time"

	"syllabus-gap/internal/pkg/logger"
)

type JSONCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedSearcher serves repeated queries from cache. Empty result sets are
// not cached so a later run can still find something.
type CachedSearcher struct {
	next  WebSearcher
	cache JSONCache
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedSearcher(next WebSearcher, cache JSONCache, ttl time.Duration, log *logger.Logger) *CachedSearcher {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedSearcher{next: next, cache: cache, ttl: ttl, log: log}
}

func (s *CachedSearcher) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if s.cache == nil {
		return s.next.Search(ctx, query, maxResults)
	}

	key := CacheKey(query, maxResults)
	var cached []Result
	ok, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.log.Warn("search cache read failed", "key", key, "err", err)
	}
	if ok && len(cached) > 0 {
		s.log.Debug("search cache hit", "key", key, "results", len(cached))
		return cached, nil
	}

	results, err := s.next.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if err := s.cache.SetJSON(ctx, key, results, s.ttl); err != nil {
			s.log.Warn("search cache write failed", "key", key, "err", err)
		}
	}
	return results, nil
}
