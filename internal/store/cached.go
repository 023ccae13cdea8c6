package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jjutv/vidgate/internal/cache"
	"github.com/jjutv/vidgate/internal/models"
)

// Cache TTLs for different entity types.
const (
	ttlChannels  = 2 * time.Minute
	ttlGroups    = 1 * time.Minute
	ttlGroup     = 1 * time.Minute
	ttlSchedules = 5 * time.Minute
	ttlBlocked   = 1 * time.Minute
)

// CachedStore wraps a Store with a Redis caching layer.
// Read-heavy operations are served from cache when possible;
// write operations invalidate the relevant cache keys.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

// --- cached read operations ---

func (c *CachedStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	const key = "channels:all"
	if v, err := cache.Get[[]models.Channel](ctx, c.cache, key); err == nil {
		return v, nil
	}
	channels, err := c.inner.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, channels, ttlChannels); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return channels, nil
}

func (c *CachedStore) ListGroups(ctx context.Context) ([]models.GroupSummary, error) {
	const key = "groups:summaries"
	if v, err := cache.Get[[]models.GroupSummary](ctx, c.cache, key); err == nil {
		return v, nil
	}
	groups, err := c.inner.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, groups, ttlGroups); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return groups, nil
}

func (c *CachedStore) ListGroupsWithVideos(ctx context.Context) ([]models.Group, error) {
	const key = "groups:full"
	if v, err := cache.Get[[]models.Group](ctx, c.cache, key); err == nil {
		return v, nil
	}
	groups, err := c.inner.ListGroupsWithVideos(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, groups, ttlGroups); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return groups, nil
}

func (c *CachedStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	key := fmt.Sprintf("group:%s", id)
	if v, err := cache.Get[models.Group](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	g, err := c.inner.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, g, ttlGroup); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return g, nil
}

func (c *CachedStore) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	const key = "schedules:all"
	if v, err := cache.Get[[]models.Schedule](ctx, c.cache, key); err == nil {
		return v, nil
	}
	schedules, err := c.inner.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, schedules, ttlSchedules); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return schedules, nil
}

func (c *CachedStore) ListBlocked(ctx context.Context) (*models.BlockedList, error) {
	const key = "blocked:all"
	if v, err := cache.Get[models.BlockedList](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	blocked, err := c.inner.ListBlocked(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, blocked, ttlBlocked); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return blocked, nil
}

// --- write operations with cache invalidation ---

func (c *CachedStore) CreateGroup(ctx context.Context, name, description string) (*models.Group, error) {
	g, err := c.inner.CreateGroup(ctx, name, description)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, "groups:summaries", "groups:full")
	return g, nil
}

func (c *CachedStore) DeleteGroup(ctx context.Context, id string) error {
	if err := c.inner.DeleteGroup(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf("group:%s", id), "groups:summaries", "groups:full")
	return nil
}

func (c *CachedStore) AddGroupVideos(ctx context.Context, groupID string, videos []models.GroupVideo) (int, []models.GroupVideo, error) {
	added, rows, err := c.inner.AddGroupVideos(ctx, groupID, videos)
	if err != nil {
		return 0, nil, err
	}
	if added > 0 {
		c.invalidate(ctx, fmt.Sprintf("group:%s", groupID), "groups:summaries", "groups:full")
	}
	return added, rows, nil
}

func (c *CachedStore) RemoveGroupVideo(ctx context.Context, groupID, videoID string) error {
	if err := c.inner.RemoveGroupVideo(ctx, groupID, videoID); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf("group:%s", groupID), "groups:summaries", "groups:full")
	return nil
}

func (c *CachedStore) AddChannel(ctx context.Context, ch *models.Channel) (*models.Channel, error) {
	out, err := c.inner.AddChannel(ctx, ch)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, "channels:all")
	return out, nil
}

func (c *CachedStore) DeleteChannel(ctx context.Context, channelID string) error {
	if err := c.inner.DeleteChannel(ctx, channelID); err != nil {
		return err
	}
	c.invalidate(ctx, "channels:all")
	return nil
}

func (c *CachedStore) AddSchedule(ctx context.Context, s *models.Schedule) (*models.Schedule, error) {
	out, err := c.inner.AddSchedule(ctx, s)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, "schedules:all")
	return out, nil
}

func (c *CachedStore) DeleteSchedule(ctx context.Context, id string) error {
	if err := c.inner.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, "schedules:all")
	return nil
}

func (c *CachedStore) BlockVideo(ctx context.Context, videoID, reason string) error {
	if err := c.inner.BlockVideo(ctx, videoID, reason); err != nil {
		return err
	}
	c.invalidate(ctx, "blocked:all")
	return nil
}

func (c *CachedStore) UnblockVideo(ctx context.Context, videoID string) error {
	if err := c.inner.UnblockVideo(ctx, videoID); err != nil {
		return err
	}
	c.invalidate(ctx, "blocked:all")
	return nil
}

func (c *CachedStore) BlockChannel(ctx context.Context, channelID, reason string) error {
	if err := c.inner.BlockChannel(ctx, channelID, reason); err != nil {
		return err
	}
	c.invalidate(ctx, "blocked:all")
	return nil
}

func (c *CachedStore) UnblockChannel(ctx context.Context, channelID string) error {
	if err := c.inner.UnblockChannel(ctx, channelID); err != nil {
		return err
	}
	c.invalidate(ctx, "blocked:all")
	return nil
}

// --- passthrough (no caching) ---

// GroupVideoIDs always reads through: it feeds batch dedupe, where a stale
// membership set would reintroduce the read-your-own-write race.
func (c *CachedStore) GroupVideoIDs(ctx context.Context, groupID string) (map[string]struct{}, error) {
	return c.inner.GroupVideoIDs(ctx, groupID)
}

// --- helpers ---

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil {
		log.Printf("cache: del %v: %v", keys, err)
	}
}
