// Package store provides in-process request bookkeeping: a recently-played
// history backed by a Bloom filter and LRU cache, and the append-only
// progress journal.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// History is a thread-safe set of recently played track keys. The Bloom
// filter short-circuits the common miss; the LRU bounds memory and provides
// eviction order.
type History struct {
	keys              map[string]struct{}
	bloom             *bloom.BloomFilter
	lru               *lru.Cache[string, struct{}]
	mutex             sync.RWMutex
	maxEntries        int
	falsePositiveRate float64
}

// NewHistory creates a history with the given capacity and Bloom filter
// false positive rate.
func NewHistory(maxEntries int, falsePositiveRate float64) *History {
	if maxEntries <= 0 {
		panic("maxEntries must be positive")
	}

	lruCache, _ := lru.New[string, struct{}](maxEntries)
	bloomFilter := bloom.NewWithEstimates(uint(maxEntries), falsePositiveRate)

	return &History{
		keys:              make(map[string]struct{}),
		bloom:             bloomFilter,
		lru:               lruCache,
		maxEntries:        maxEntries,
		falsePositiveRate: falsePositiveRate,
	}
}

// Has reports whether the key was played recently.
func (h *History) Has(key string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if !h.bloom.TestString(key) {
		return false
	}

	_, exists := h.keys[key]
	return exists
}

// Add records a played key, evicting the oldest entry when full.
func (h *History) Add(key string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, exists := h.keys[key]; exists {
		// Refresh recency so repeats are not evicted first.
		h.lru.Add(key, struct{}{})
		return
	}

	h.keys[key] = struct{}{}
	h.bloom.AddString(key)
	h.lru.Add(key, struct{}{})

	if len(h.keys) > h.maxEntries {
		h.evictOldest()
	}
}

// Size returns the number of keys currently tracked.
func (h *History) Size() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.keys)
}

// Clear resets the history.
func (h *History) Clear() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.keys = make(map[string]struct{})
	h.bloom = bloom.NewWithEstimates(uint(h.maxEntries), h.falsePositiveRate)
	h.lru.Purge()
}

func (h *History) evictOldest() {
	oldestKey, _, ok := h.lru.GetOldest()
	if !ok {
		return
	}

	delete(h.keys, oldestKey)
	h.lru.Remove(oldestKey)
	// The bloom filter does not support removal; stale positives fall
	// through to the exact map check.
}
