package resilience

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"context"
)

// DedupConfig configures a deduplication cache. Defaults mirror the
// original's DeduplicationConfig::default (1000 entries, 5 minute TTL).
type DedupConfig struct {
	MaxSize int
	TTL     time.Duration
}

// DefaultDedupConfig matches the original's defaults.
func DefaultDedupConfig() DedupConfig {
	return DedupConfig{MaxSize: 1000, TTL: 5 * time.Minute}
}

// HighThroughputDedupConfig matches the original's high_throughput preset.
func HighThroughputDedupConfig() DedupConfig {
	return DedupConfig{MaxSize: 10000, TTL: time.Minute}
}

type dedupEntry struct {
	id   string
	seen time.Time
}

// DedupCache is an in-process, TTL+LRU message id cache that prevents
// reprocessing a request/response the peer retransmitted after a dropped
// acknowledgement.
type DedupCache struct {
	cfg DedupConfig

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently seen
}

// NewDedupCache creates a DedupCache.
func NewDedupCache(cfg DedupConfig) *DedupCache {
	return &DedupCache{
		cfg:     cfg,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// IsDuplicate reports whether id has been seen within TTL, marking it
// seen if not (the same check-and-set semantics as the original's
// is_duplicate).
func (c *DedupCache) IsDuplicate(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpiredLocked()
	if el, ok := c.entries[id]; ok {
		c.order.MoveToFront(el)
		return true
	}
	c.insertLocked(id)
	return false
}

// MarkSeen records id as seen without reporting duplicate status.
func (c *DedupCache) MarkSeen(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[id]; ok {
		el.Value.(*dedupEntry).seen = time.Now()
		c.order.MoveToFront(el)
		return
	}
	c.insertLocked(id)
}

// Contains reports whether id is present and not expired, without
// mutating recency.
func (c *DedupCache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[id]
	if !ok {
		return false
	}
	return time.Since(el.Value.(*dedupEntry).seen) < c.cfg.TTL
}

// Size returns the number of entries currently tracked (including any not
// yet lazily expired).
func (c *DedupCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *DedupCache) insertLocked(id string) {
	el := c.order.PushFront(&dedupEntry{id: id, seen: time.Now()})
	c.entries[id] = el
	c.maintainSizeLocked()
}

func (c *DedupCache) maintainSizeLocked() {
	for c.order.Len() > c.cfg.MaxSize {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*dedupEntry).id)
	}
}

func (c *DedupCache) evictExpiredLocked() {
	for {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		entry := oldest.Value.(*dedupEntry)
		if time.Since(entry.seen) < c.cfg.TTL {
			return
		}
		c.order.Remove(oldest)
		delete(c.entries, entry.id)
	}
}

// RedisDedup backs deduplication with Redis SETNX/EX, so multiple
// TurboMCP server processes behind a load balancer share one dedup
// window instead of each tracking its own in-memory cache.
type RedisDedup struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDedup creates a RedisDedup using client, namespacing keys under
// prefix.
func NewRedisDedup(client *redis.Client, prefix string, ttl time.Duration) *RedisDedup {
	return &RedisDedup{client: client, prefix: prefix, ttl: ttl}
}

// IsDuplicate reports whether id was already seen within ttl, atomically
// marking it seen if not.
func (r *RedisDedup) IsDuplicate(ctx context.Context, id string) (bool, error) {
	key := fmt.Sprintf("%s:%s", r.prefix, id)
	ok, err := r.client.SetNX(ctx, key, "1", r.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
