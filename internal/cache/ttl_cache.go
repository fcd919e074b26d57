package cache

import (
	"sync"
	"time"
)

// Cache is a keyed store whose entries expire after a TTL.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
	Len() int
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is an in-memory Cache. Get does not extend an entry; use Touch
// for idle expiry.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[K]entry[V]
	onEvict func(K, V)
}

type Option[K comparable, V any] func(*TTLCache[K, V])

// WithEvictHook is called, outside the lock, for every entry removed by
// expiry or Delete.
func WithEvictHook[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *TTLCache[K, V]) { c.onEvict = fn }
}

// WithNow replaces the time source.
func WithNow[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *TTLCache[K, V]) { c.now = now }
}

func NewTTLCache[K comparable, V any](opts ...Option[K, V]) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		now:     time.Now,
		entries: map[K]entry[V]{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.mu.Unlock()
		c.evicted(key, e.value)
		var zero V
		return zero, false
	}
	c.mu.Unlock()
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

// Touch extends the expiry of a live entry.
func (c *TTLCache[K, V]) Touch(key K, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return false
	}
	e.expiresAt = c.now().Add(ttl)
	c.entries[key] = e
	return true
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	e, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()
	if ok {
		c.evicted(key, e.value)
	}
}

func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep drops every expired entry and returns how many were removed.
func (c *TTLCache[K, V]) Sweep() int {
	now := c.now()
	type victim struct {
		key   K
		value V
	}
	var victims []victim

	c.mu.Lock()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			victims = append(victims, victim{key: key, value: e.value})
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	for _, v := range victims {
		c.evicted(v.key, v.value)
	}
	return len(victims)
}

func (c *TTLCache[K, V]) evicted(key K, value V) {
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

var _ Cache[string, struct{}] = (*TTLCache[string, struct{}])(nil)
