package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/simplelru"

	"pawsitive-haven/assistant-api/internal/domain/ratelimit"
)

type counterEntry struct {
	value     int64
	expiresAt time.Time
}

type counterShard struct {
	mu      sync.Mutex
	entries *simplelru.LRU
	// pinned keys are never evicted, only expired.
	pinned map[string]counterEntry
}

// MemoryCounterStore is a sharded, size-bounded, time-expiring counter map.
// Each key lives in one shard chosen by hash, so unrelated users never
// contend on the same lock. Keys with a pinned prefix (bans by default) are
// kept outside the LRU so capacity pressure cannot lift them early.
type MemoryCounterStore struct {
	shards         []*counterShard
	now            func() time.Time
	pinnedPrefixes []string
}

// MemoryOption customizes a MemoryCounterStore.
type MemoryOption func(*MemoryCounterStore)

// WithMemoryClock replaces the wall clock used for expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryCounterStore) {
		s.now = now
	}
}

// WithPinnedPrefixes replaces the key prefixes exempt from LRU eviction.
func WithPinnedPrefixes(prefixes ...string) MemoryOption {
	return func(s *MemoryCounterStore) {
		s.pinnedPrefixes = prefixes
	}
}

// NewMemoryCounterStore creates shardCount shards holding up to shardCapacity
// keys each; the least recently used key of a full shard is evicted.
func NewMemoryCounterStore(shardCount, shardCapacity int, opts ...MemoryOption) (*MemoryCounterStore, error) {
	if shardCount <= 0 || shardCapacity <= 0 {
		return nil, fmt.Errorf("shard count and capacity must be positive, got %d and %d", shardCount, shardCapacity)
	}

	store := &MemoryCounterStore{
		shards:         make([]*counterShard, shardCount),
		now:            time.Now,
		pinnedPrefixes: []string{ratelimit.BanKeyPrefix},
	}
	for i := range store.shards {
		entries, err := simplelru.NewLRU(shardCapacity, nil)
		if err != nil {
			return nil, err
		}
		store.shards[i] = &counterShard{entries: entries, pinned: make(map[string]counterEntry)}
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

func (s *MemoryCounterStore) shardFor(key string) *counterShard {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

func (s *MemoryCounterStore) isPinned(key string) bool {
	for _, prefix := range s.pinnedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// The shard methods below expect the caller to hold sh.mu.

func (sh *counterShard) get(key string, pinned bool) (counterEntry, bool) {
	if pinned {
		entry, ok := sh.pinned[key]
		return entry, ok
	}
	raw, ok := sh.entries.Get(key)
	if !ok {
		return counterEntry{}, false
	}
	return raw.(counterEntry), true
}

func (sh *counterShard) put(key string, entry counterEntry, pinned bool) {
	if pinned {
		sh.pinned[key] = entry
		return
	}
	sh.entries.Add(key, entry)
}

func (sh *counterShard) remove(key string, pinned bool) {
	if pinned {
		delete(sh.pinned, key)
		return
	}
	sh.entries.Remove(key)
}

// live returns the unexpired entry for key.
func (sh *counterShard) live(key string, pinned bool, now time.Time) (counterEntry, bool) {
	entry, ok := sh.get(key, pinned)
	if !ok {
		return counterEntry{}, false
	}
	if !now.Before(entry.expiresAt) {
		sh.remove(key, pinned)
		return counterEntry{}, false
	}
	return entry, true
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	pinned := s.isPinned(key)
	now := s.now()
	entry, ok := sh.live(key, pinned, now)
	if !ok {
		entry = counterEntry{expiresAt: now.Add(ttl)}
	}
	entry.value++
	sh.put(key, entry, pinned)
	return entry.value, nil
}

func (s *MemoryCounterStore) Get(_ context.Context, key string) (int64, time.Time, bool, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.live(key, s.isPinned(key), s.now())
	if !ok {
		return 0, time.Time{}, false, nil
	}
	return entry.value, entry.expiresAt, true, nil
}

func (s *MemoryCounterStore) SetNX(_ context.Context, key string, value int64, ttl time.Duration) (bool, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	pinned := s.isPinned(key)
	now := s.now()
	if _, ok := sh.live(key, pinned, now); ok {
		return false, nil
	}
	sh.put(key, counterEntry{value: value, expiresAt: now.Add(ttl)}, pinned)
	return true, nil
}

// Sweep drops expired keys from every shard and returns how many were removed.
// Expired keys are already invisible to readers; sweeping only frees memory.
func (s *MemoryCounterStore) Sweep() int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		now := s.now()
		for _, key := range sh.entries.Keys() {
			raw, ok := sh.entries.Peek(key)
			if !ok {
				continue
			}
			if !now.Before(raw.(counterEntry).expiresAt) {
				sh.entries.Remove(key)
				removed++
			}
		}
		for key, entry := range sh.pinned {
			if !now.Before(entry.expiresAt) {
				delete(sh.pinned, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of stored keys, expired or not.
func (s *MemoryCounterStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += sh.entries.Len() + len(sh.pinned)
		sh.mu.Unlock()
	}
	return total
}
