package gqlselect

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// EvictionStrategy selects which entry is removed when the cache exceeds its
// size bound.
type EvictionStrategy string

const (
	// EvictLRU removes the entry with the oldest last access.
	EvictLRU EvictionStrategy = "lru"
	// EvictLFU removes the entry with the lowest access count.
	EvictLFU EvictionStrategy = "lfu"
	// EvictTTL sweeps all currently expired entries. When nothing is
	// expired the size bound may transiently be exceeded by one; the next
	// Get lazily cleans up stale entries.
	EvictTTL EvictionStrategy = "ttl"
)

// CacheConfig is the configuration for a FragmentCache.
type CacheConfig struct {
	Enabled  bool             `json:"enabled"`
	TTL      time.Duration    `json:"ttl"`      // staleness bound measured from last access; 0 disables expiry
	MaxSize  int              `json:"max_size"` // entry count bound; 0 disables the bound
	Strategy EvictionStrategy `json:"strategy"`
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:  true,
		TTL:      5 * time.Minute,
		MaxSize:  100,
		Strategy: EvictLRU,
	}
}

type cacheEntry struct {
	def         *FragmentDefinition
	lastAccess  time.Time
	accessCount int
	size        int
}

// FragmentCache is a bounded fragment store keyed by a structural content
// hash. Safe for concurrent use.
type FragmentCache struct {
	mu        sync.Mutex
	config    CacheConfig
	entries   map[string]*cacheEntry
	hits      int
	misses    int
	evictions int
	now       func() time.Time
}

// NewFragmentCache returns a cache with the given configuration.
func NewFragmentCache(config CacheConfig) *FragmentCache {
	return &FragmentCache{
		config:  config,
		entries: map[string]*cacheEntry{},
		now:     time.Now,
	}
}

// GenerateKey hashes name, type and the canonical selection serialization.
// Metadata (usage counters, timestamps) never affects cache identity, and
// serialization sorts keys, so field declaration order does not either.
func (c *FragmentCache) GenerateKey(def *FragmentDefinition) string {
	h := xxhash.New()
	h.WriteString(def.Name)
	h.Write([]byte{0})
	h.WriteString(def.Type)
	h.Write([]byte{0})
	h.WriteString(def.Selections.serialize())
	return fmt.Sprintf("%016x", h.Sum64())
}

// Get returns the live entry for key. A disabled cache always misses. Stale
// entries are evicted on access and reported as a miss. A hit refreshes the
// access time and counter.
func (c *FragmentCache) Get(key string) (*FragmentDefinition, bool) {
	if !c.config.Enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		promFragmentCacheMisses.Inc()
		return nil, false
	}
	if c.expired(entry) {
		delete(c.entries, key)
		c.misses++
		c.evictions++
		promFragmentCacheMisses.Inc()
		promFragmentCacheEvictions.Inc()
		return nil, false
	}
	entry.lastAccess = c.now()
	entry.accessCount++
	c.hits++
	promFragmentCacheHits.Inc()
	return entry.def, true
}

// Set stores def under key. A disabled cache is a no-op. When inserting a
// new key would exceed MaxSize, one entry is evicted first per the
// configured strategy.
func (c *FragmentCache) Set(key string, def *FragmentDefinition) {
	if !c.config.Enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.config.MaxSize > 0 && len(c.entries) >= c.config.MaxSize {
		c.evictOne()
	}
	c.entries[key] = &cacheEntry{
		def:        def,
		lastAccess: c.now(),
		size:       def.Metadata.Size,
	}
}

func (c *FragmentCache) expired(e *cacheEntry) bool {
	return c.config.TTL > 0 && c.now().Sub(e.lastAccess) > c.config.TTL
}

func (c *FragmentCache) evictOne() {
	switch c.config.Strategy {
	case EvictLFU:
		victim, min := "", -1
		for k, e := range c.entries {
			if min < 0 || e.accessCount < min {
				min = e.accessCount
				victim = k
			}
		}
		c.evict(victim)
	case EvictTTL:
		for k, e := range c.entries {
			if c.expired(e) {
				c.evict(k)
			}
		}
	default:
		victim := ""
		var oldest time.Time
		for k, e := range c.entries {
			if victim == "" || e.lastAccess.Before(oldest) {
				oldest = e.lastAccess
				victim = k
			}
		}
		c.evict(victim)
	}
}

func (c *FragmentCache) evict(key string) {
	if key == "" {
		return
	}
	delete(c.entries, key)
	c.evictions++
	promFragmentCacheEvictions.Inc()
}

// Invalidate removes every entry whose fragment name or type contains the
// given substring and returns how many were removed.
func (c *FragmentCache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if strings.Contains(e.def.Name, pattern) || strings.Contains(e.def.Type, pattern) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// GetByType returns the live entries declared on the given type.
func (c *FragmentCache) GetByType(typeName string) []*FragmentDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*FragmentDefinition
	for _, e := range c.entries {
		if !c.expired(e) && e.def.Type == typeName {
			out = append(out, e.def)
		}
	}
	return out
}

// GetByComplexity returns the live entries whose complexity score falls in
// [min, max].
func (c *FragmentCache) GetByComplexity(min, max int) []*FragmentDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*FragmentDefinition
	for _, e := range c.entries {
		if c.expired(e) {
			continue
		}
		if complexity := e.def.Metadata.Complexity; complexity >= min && complexity <= max {
			out = append(out, e.def)
		}
	}
	return out
}

// GetMostUsed returns up to limit live entries ordered by access count,
// most accessed first.
func (c *FragmentCache) GetMostUsed(limit int) []*FragmentDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := make([]*cacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if !c.expired(e) {
			live = append(live, e)
		}
	}
	sort.SliceStable(live, func(i, j int) bool { return live[i].accessCount > live[j].accessCount })
	if limit > 0 && len(live) > limit {
		live = live[:limit]
	}
	out := make([]*FragmentDefinition, len(live))
	for i, e := range live {
		out[i] = e.def
	}
	return out
}

// CacheStats is a point-in-time view of the cache. Expired entries may
// still be counted until the next access removes them (lazy expiry).
type CacheStats struct {
	Entries   int
	TotalSize int
	Hits      int
	Misses    int
	Evictions int
	HitRate   float64
}

// Stats returns the current cache statistics.
func (c *FragmentCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := CacheStats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	for _, e := range c.entries {
		stats.TotalSize += e.size
	}
	if lookups := c.hits + c.misses; lookups > 0 {
		stats.HitRate = float64(c.hits) / float64(lookups)
	}
	return stats
}
