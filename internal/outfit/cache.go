package outfit

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/raine/virtual-closet/internal/wardrobe"
	"golang.org/x/crypto/blake2b"
)

const DefaultCacheTTL = time.Hour

// Timer is a scheduled eviction. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for the result cache.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type cacheEntry struct {
	result    Result
	expiresAt time.Time
	timer     Timer
}

// ResultCache memoizes outfit results for a fixed TTL. Entries are
// replaced, never mutated. Expired entries are removed by a timer and also
// on read, whichever happens first.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	clock   Clock
}

// NewResultCache creates a cache. A non-positive ttl uses DefaultCacheTTL
// and a nil clock uses wall time.
func NewResultCache(ttl time.Duration, clock Clock) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = realClock{}
	}
	return &ResultCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the stored result for key if it has not expired.
func (c *ResultCache) Get(key string) (Result, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Result{}, false
	}
	if c.clock.Now().Before(e.expiresAt) {
		return e.result, true
	}
	c.evict(key, e)
	return Result{}, false
}

// Put stores r under key, replacing and unscheduling any previous entry.
func (c *ResultCache) Put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		old.timer.Stop()
	}
	e := &cacheEntry{result: r, expiresAt: c.clock.Now().Add(c.ttl)}
	e.timer = c.clock.AfterFunc(c.ttl, func() { c.evict(key, e) })
	c.entries[key] = e
}

// Invalidate drops a single entry.
func (c *ResultCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.timer.Stop()
		delete(c.entries, key)
	}
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		e.timer.Stop()
		delete(c.entries, key)
	}
}

// Len is the number of stored entries, expired ones included until they
// are evicted.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evict removes key only if it still maps to e, so a stale timer cannot
// drop a newer entry.
func (c *ResultCache) evict(key string, e *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[key]; ok && cur == e {
		cur.timer.Stop()
		delete(c.entries, key)
	}
}

// CacheKey digests the intent together with the sorted item IDs of the
// snapshot, so reordering the wardrobe does not change the key.
func CacheKey(intent string, items []wardrobe.Item) string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	sort.Strings(ids)

	h, _ := blake2b.New256(nil)
	writeField := func(s string) {
		binary.Write(h, binary.LittleEndian, uint32(len(s)))
		h.Write([]byte(s))
	}
	writeField(strings.TrimSpace(intent))
	for _, id := range ids {
		writeField(id)
	}
	return hex.EncodeToString(h.Sum(nil))
}
