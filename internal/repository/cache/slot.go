// Package cache persists the store snapshot in a single keyed slot and
// refuses to hand back snapshots older than the configured time-to-live.
package cache

import (
	"context"
	"fmt"
	"time"

	"ai-docchat-client/internal/config"
)

// Slot is one mutable blob. Writes are last-writer-wins.
type Slot interface {
	// Get returns the blob and whether it exists.
	Get(ctx context.Context) ([]byte, bool, error)
	// Set stores the blob; ttl is a hint the backend may use to expire it.
	Set(ctx context.Context, blob []byte, ttl time.Duration) error
	Delete(ctx context.Context) error
}

// NewSlot picks the backend named in the config.
func NewSlot(cfg config.CacheConfig) (Slot, error) {
	switch cfg.Backend {
	case config.CacheBackendMemory:
		return NewMemorySlot(cfg.Key, cfg.TTL), nil
	case config.CacheBackendRedis:
		return NewRedisSlotFromURL(cfg.RedisURL, cfg.Key)
	case config.CacheBackendFile, "":
		return NewFileSlot(cfg.FilePath), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
