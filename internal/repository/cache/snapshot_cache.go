package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ai-docchat-client/internal/constant"
	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/mapper"
	"ai-docchat-client/internal/pkg/logger"
)

const module = "cache"

// SnapshotCache is the expiring cache layer. It satisfies store.Persister.
type SnapshotCache struct {
	slot   Slot
	ttl    time.Duration
	mapper *mapper.CacheMapper
	log    logger.ILogger
	now    func() time.Time
}

func NewSnapshotCache(slot Slot, ttl time.Duration, log logger.ILogger) *SnapshotCache {
	if ttl <= 0 {
		ttl = constant.DefaultCacheTTL
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SnapshotCache{
		slot:   slot,
		ttl:    ttl,
		mapper: mapper.NewCacheMapper(),
		log:    log,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (c *SnapshotCache) SetClock(now func() time.Time) {
	c.now = now
}

func (c *SnapshotCache) TTL() time.Duration {
	return c.ttl
}

// Load returns the persisted snapshot and true, or the default seed and false
// when the blob is absent, unreadable, malformed or older than the TTL.
// Malformed and expired blobs are deleted.
func (c *SnapshotCache) Load(ctx context.Context) (entity.Snapshot, bool) {
	blob, ok, err := c.slot.Get(ctx)
	if err != nil {
		c.log.Warn(module, "Cache read failed, using default seed", map[string]interface{}{"error": err.Error()})
		return c.DefaultSeed(), false
	}
	if !ok {
		c.log.Debug(module, "No cached snapshot, using default seed", nil)
		return c.DefaultSeed(), false
	}

	snap, err := c.decode(blob)
	if err != nil {
		c.log.Warn(module, "Discarding corrupted cache snapshot", map[string]interface{}{"error": err.Error()})
		c.discard(ctx)
		return c.DefaultSeed(), false
	}

	age := c.now().Sub(snap.Timestamp)
	if age > c.ttl {
		c.log.Info(module, "Discarding expired cache snapshot", map[string]interface{}{
			"age": age.String(),
			"ttl": c.ttl.String(),
		})
		c.discard(ctx)
		return c.DefaultSeed(), false
	}

	return snap, true
}

// Save writes the full snapshot stamped with the current time, ignoring the
// timestamp it carries.
func (c *SnapshotCache) Save(ctx context.Context, snap entity.Snapshot) error {
	snap.Timestamp = c.now()
	blob, err := json.Marshal(c.mapper.SnapshotToBlob(snap))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.slot.Set(ctx, blob, c.ttl); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Clear removes the persisted blob.
func (c *SnapshotCache) Clear(ctx context.Context) error {
	return c.slot.Delete(ctx)
}

// DefaultSeed is the six fixed groups with no files, links or chats.
func (c *SnapshotCache) DefaultSeed() entity.Snapshot {
	return DefaultSeed(c.now())
}

func DefaultSeed(now time.Time) entity.Snapshot {
	groups := make([]entity.Group, 0, len(constant.DefaultGroupNames))
	for _, name := range constant.DefaultGroupNames {
		groups = append(groups, entity.Group{
			Id:    Slug(name),
			Name:  name,
			Files: []entity.File{},
			Links: []entity.Link{},
		})
	}
	return entity.Snapshot{
		Groups:    groups,
		Chats:     map[string][]entity.ChatMessage{},
		Timestamp: now,
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// Slug lower-cases name and joins words with dashes: "Hardware Management"
// becomes "hardware-management".
func Slug(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

func (c *SnapshotCache) decode(blob []byte) (entity.Snapshot, error) {
	var b dto.CacheBlob
	if err := json.Unmarshal(blob, &b); err != nil {
		return entity.Snapshot{}, fmt.Errorf("%w: %v", mapper.ErrMalformedSnapshot, err)
	}
	return c.mapper.BlobToSnapshot(b)
}

func (c *SnapshotCache) discard(ctx context.Context) {
	if err := c.slot.Delete(ctx); err != nil {
		c.log.Warn(module, "Failed to delete stale cache blob", map[string]interface{}{"error": err.Error()})
	}
}
