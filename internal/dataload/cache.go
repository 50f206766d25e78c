package dataload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/rotation/internal/panel"
	"github.com/newthinker/rotation/internal/storage/source"
)

// Cache memoizes decoded panels by storage, path, size and modification
// time, so a changed file is re-read while repeated runs reuse the decode.
// Panels are immutable, which makes sharing them across runs safe.
type Cache struct {
	mu      sync.RWMutex
	store   map[string]*panel.Panel
	order   []string // insertion order for eviction
	maxSize int
}

// NewCache creates a cache holding at most maxSize panels.
func NewCache(maxSize int) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		store:   make(map[string]*panel.Panel),
		maxSize: maxSize,
	}
}

// Get retrieves a cached panel.
func (c *Cache) Get(key string) (*panel.Panel, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.store[key]
	return p, ok
}

// Set stores a panel, evicting the oldest entry when full.
func (c *Cache) Set(key string, p *panel.Panel) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.store[key]; ok {
		c.store[key] = p
		return
	}
	if len(c.store) >= c.maxSize && len(c.order) > 0 {
		delete(c.store, c.order[0])
		c.order = c.order[1:]
	}
	c.store[key] = p
	c.order = append(c.order, key)
}

// Len returns the number of cached panels.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// CacheKey creates a cache key from the identity of a stored file.
func CacheKey(storage string, info source.Info) string {
	keyStr := fmt.Sprintf("%s|%s|%d|%s",
		storage,
		info.Path,
		info.Size,
		info.ModTime.UTC().Format(time.RFC3339Nano),
	)

	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
