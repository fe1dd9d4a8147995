package cache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemorySlot keeps the blob in process memory. go-cache expires the item on
// its own as well, so a forgotten blob never outlives the TTL.
type MemorySlot struct {
	key   string
	cache *cache.Cache
}

func NewMemorySlot(key string, ttl time.Duration) *MemorySlot {
	cleanup := ttl
	if cleanup <= 0 || cleanup > 10*time.Minute {
		cleanup = 10 * time.Minute
	}
	return &MemorySlot{
		key:   key,
		cache: cache.New(ttl, cleanup),
	}
}

func (s *MemorySlot) Get(_ context.Context) ([]byte, bool, error) {
	if x, found := s.cache.Get(s.key); found {
		blob := x.([]byte)
		return append([]byte(nil), blob...), true, nil
	}
	return nil, false, nil
}

func (s *MemorySlot) Set(_ context.Context, blob []byte, ttl time.Duration) error {
	expiry := cache.DefaultExpiration
	if ttl > 0 {
		expiry = ttl
	}
	s.cache.Set(s.key, append([]byte(nil), blob...), expiry)
	return nil
}

func (s *MemorySlot) Delete(_ context.Context) error {
	s.cache.Delete(s.key)
	return nil
}
