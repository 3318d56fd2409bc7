package cache

import (
	"sync"
	"time"
)

// LocalCache 本地内存键值缓存
//
// 特点：
// - 每个条目独立的 TTL
// - 支持 SetNX 原子占用
// - 后台定期清理过期条目，Close 后停止
type LocalCache struct {
	mu      sync.Mutex
	data    map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

type cacheEntry struct {
	value     string
	expiresAt time.Time // 零值表示永不过期
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewLocalCache 创建本地缓存
//
// 参数:
//   - ttl: 默认过期时间，0 表示不过期
//   - cleanupInterval: 清理周期，0 表示不启动后台清理
func NewLocalCache(ttl, cleanupInterval time.Duration) *LocalCache {
	cache := &LocalCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go cache.cleanupLoop(cleanupInterval)
	}

	return cache
}

// Get 获取缓存值
func (c *LocalCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return "", false
	}
	if entry.expired(c.now()) {
		delete(c.data, key)
		return "", false
	}
	return entry.value, true
}

// Set 设置缓存值，ttl 为 0 时使用默认过期时间
func (c *LocalCache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = c.newEntry(value, ttl)
}

// SetNX 仅在键不存在（或已过期）时写入，返回是否写入成功
func (c *LocalCache) SetNX(key, value string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.data[key]; ok && !entry.expired(c.now()) {
		return false
	}
	c.data[key] = c.newEntry(value, ttl)
	return true
}

// Delete 删除缓存值
func (c *LocalCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// DeleteIfValue 仅当键存在且值等于 value 时删除，返回是否删除
func (c *LocalCache) DeleteIfValue(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok || entry.expired(c.now()) || entry.value != value {
		return false
	}
	delete(c.data, key)
	return true
}

// Len 返回当前条目数（包含尚未清理的过期条目）
func (c *LocalCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.data)
}

// Close 停止后台清理
func (c *LocalCache) Close() {
	c.stopped.Do(func() { close(c.stop) })
}

func (c *LocalCache) newEntry(value string, ttl time.Duration) cacheEntry {
	if ttl == 0 {
		ttl = c.ttl
	}
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	return entry
}

// purgeExpired 清理过期条目，返回清理数量
func (c *LocalCache) purgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.data {
		if entry.expired(now) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// cleanupLoop 定期清理过期条目
func (c *LocalCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stop:
			return
		}
	}
}
