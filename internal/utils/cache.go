package utils

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// TTLCache 带过期时间的本地 LRU 缓存，按固定窗口计数
type TTLCache[V any] struct {
	mu       sync.Mutex
	lruCache *lru.Cache[string, CacheItem[V]]
	now      func() time.Time
}

// NewTTLCache 创建容量为 size 的缓存
func NewTTLCache[V any](size int) (*TTLCache[V], error) {
	l, err := lru.New[string, CacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTLCache[V]{lruCache: l, now: time.Now}, nil
}

// Hit 在固定窗口内为 key 计数，返回本次计数及窗口重置时间
func (c *TTLCache[V]) Hit(key string, window time.Duration, incr func(V) V) (V, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	val, ok := c.lruCache.Get(key)
	if !ok || c.now().After(val.ExpiresAt) {
		var zero V
		val = CacheItem[V]{Data: zero, ExpiresAt: c.now().Add(window)}
	}
	val.Data = incr(val.Data)
	c.lruCache.Add(key, val)
	return val.Data, val.ExpiresAt
}
