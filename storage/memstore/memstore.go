// Package memstore keeps the session in memory. It is useful for tests, and
// for hosts where the client and background run in the same process and
// nothing needs to survive a restart.
package memstore

import (
	"context"
	"sync"

	"github.com/patrickmn/go-cache"
)

// Storage is an indieauth.Storage held in memory.
type Storage struct {
	mu    sync.RWMutex
	cache *cache.Cache
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (s *Storage) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	values := map[string][]byte{}
	for _, key := range keys {
		if v, ok := s.cache.Get(key); ok {
			values[key] = append([]byte(nil), v.([]byte)...)
		}
	}

	return values, nil
}

func (s *Storage) Set(ctx context.Context, values map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range values {
		s.cache.Set(key, append([]byte(nil), v...), cache.NoExpiration)
	}

	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Flush()
	return nil
}
