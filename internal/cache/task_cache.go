package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	dom "todoweb/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyListPrefix = "task:list:"

// listKeys covers every filter the list view can ask for.
var listKeys = func() []string {
	yes, no := true, false
	filters := []dom.Filter{{}, {Completed: &yes}, {Completed: &no}}
	keys := make([]string, len(filters))
	for i, f := range filters {
		keys[i] = keyListPrefix + f.Key()
	}
	return keys
}()

// TaskCache caches task listings in Redis.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// GetList returns the cached listing for f, or nil on a miss.
func (c *TaskCache) GetList(ctx context.Context, f dom.Filter) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, keyListPrefix+f.Key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []dom.Task{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores the listing for f.
func (c *TaskCache) SetList(ctx context.Context, f dom.Filter, list []dom.Task) error {
	if list == nil {
		list = []dom.Task{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyListPrefix+f.Key(), b, c.ttl).Err()
}

// InvalidateAll drops every cached listing (called on each write).
func (c *TaskCache) InvalidateAll(ctx context.Context) error {
	return c.rdb.Del(ctx, listKeys...).Err()
}
