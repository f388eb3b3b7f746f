package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
	lastUsed time.Time
}

func (m *memoryItem) expired(now time.Time) bool {
	return now.After(m.expireAt)
}

// MemoryCache implements Service in process with LRU eviction. Values are
// stored JSON encoded so Get behaves like the Redis implementation.
type MemoryCache struct {
	mu      sync.Mutex
	data    map[string]*memoryItem
	locks   map[string]time.Time
	maxSize int
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:    make(map[string]*memoryItem),
		locks:   make(map[string]time.Time),
		maxSize: cfg.MaxSize,
		stop:    make(chan struct{}),
		now:     time.Now,
	}

	go mc.cleanupLoop(cfg.CleanupInterval)
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	if _, exists := mc.data[key]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	if expiration <= 0 {
		expiration = 7 * 24 * time.Hour
	}
	mc.data[key] = &memoryItem{data: data, expireAt: now.Add(expiration), lastUsed: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	now := mc.now()
	item, exists := mc.data[key]
	if !exists || item.expired(now) {
		delete(mc.data, key)
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	item.lastUsed = now
	data := item.data
	mc.mu.Unlock()

	return json.Unmarshal(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.data[key]
	return ok && !item.expired(mc.now()), nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	if until, ok := mc.locks[key]; ok && now.Before(until) {
		return false, nil
	}
	mc.locks[key] = now.Add(ttl)
	return true, nil
}

func (mc *MemoryCache) Unlock(_ context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.locks, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.data)
}

func (mc *MemoryCache) evictLRU() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, item := range mc.data {
		if oldestKey == "" || item.lastUsed.Before(oldest) {
			oldestKey, oldest = key, item.lastUsed
		}
	}
	if oldestKey != "" {
		delete(mc.data, oldestKey)
	}
}

func (mc *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.purgeExpired()
		case <-mc.stop:
			return
		}
	}
}

func (mc *MemoryCache) purgeExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for key, item := range mc.data {
		if item.expired(now) {
			delete(mc.data, key)
		}
	}
	for key, until := range mc.locks {
		if !now.Before(until) {
			delete(mc.locks, key)
		}
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}
