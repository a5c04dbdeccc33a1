// Package cache contains an expiring cache which fetches missing entries on
// demand.
package cache

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	Exists  bool
	Lock    sync.RWMutex
	Written time.Time
	Value   V
}

// ExpiringCache provides a cache with map-style access where each entry has a
// maximum lifetime.
// After an entry expired, it has to be re-fetched.
//
// Create an ExpiringCache by declaring a new struct and setting its Fetch and
// optionally its TTL fields.
// If TTL is 0, keys will be fetched on every Lookup().
// If TTL is negative, entries will have an infinite lifetime and will never be
// re-fetched.
//
// Errors returned by Fetch are passed to the caller and not cached, the next
// Lookup() of the key calls Fetch again. Concurrent lookups of the same key
// wait for a single Fetch.
type ExpiringCache[K comparable, V any] struct {
	cache sync.Map
	TTL   time.Duration
	Fetch func(key K) (V, error)
}

func (e *ExpiringCache[K, V]) Lookup(key K) (V, error) {
	return e.LookupFunc(key, e.Fetch)
}

// LookupFunc is like Lookup but calls fetch instead of Fetch if the key has
// to be fetched. Concurrent lookups of the key wait for the fetch of the
// first caller.
func (e *ExpiringCache[K, V]) LookupFunc(key K, fetch func(key K) (V, error)) (V, error) {
	now := time.Now()

	value, ok, entry := e.loadValueAndEntry(key, now)
	if ok {
		return value, nil
	}

	if entry == nil {
		value, ok, entry = e.allocateAndStoreLockedEntry(key, now)
		if ok {
			return value, nil
		}
	} else {
		entry.Lock.Lock()
	}

	if e.isEntryValid(entry, now) {
		value = entry.Value
		entry.Lock.Unlock()

		return value, nil
	}

	value, err := fetch(key)
	if err != nil {
		entry.Lock.Unlock()

		var zero V
		return zero, err
	}

	entry.Exists = true
	entry.Written = now
	entry.Value = value

	entry.Lock.Unlock()

	return value, nil
}

// Range calls f for every valid entry until f returns false.
func (e *ExpiringCache[K, V]) Range(f func(key K, value V) bool) {
	now := time.Now()

	e.cache.Range(func(key, value interface{}) bool {
		entry := value.(*cacheEntry[V])

		entry.Lock.RLock()
		valid := e.isEntryValid(entry, now)
		entryValue := entry.Value
		entry.Lock.RUnlock()

		if !valid {
			return true
		}
		return f(key.(K), entryValue)
	})
}

func (e *ExpiringCache[K, V]) loadValueAndEntry(key K, now time.Time) (V, bool, *cacheEntry[V]) {
	var entry *cacheEntry[V]
	var zero V

	entryIntf, ok := e.cache.Load(key)
	if ok {
		entry = entryIntf.(*cacheEntry[V])

		entry.Lock.RLock()

		if e.isEntryValid(entry, now) {
			value := entry.Value
			entry.Lock.RUnlock()

			return value, true, nil
		}

		entry.Lock.RUnlock()
	}

	return zero, false, entry
}

func (e *ExpiringCache[K, V]) allocateAndStoreLockedEntry(key K, now time.Time) (V, bool, *cacheEntry[V]) {
	var zero V
	entry := &cacheEntry[V]{}

	entry.Lock.Lock()

	loadedEntryIntf, loaded := e.cache.LoadOrStore(key, entry)
	if loaded {
		// Unlock entry to be discarded
		entry.Lock.Unlock()

		entry = loadedEntryIntf.(*cacheEntry[V])

		entry.Lock.RLock()

		if e.isEntryValid(entry, now) {
			value := entry.Value
			entry.Lock.RUnlock()

			return value, true, nil
		}

		entry.Lock.RUnlock()
		entry.Lock.Lock()
	}

	return zero, false, entry
}

func (e *ExpiringCache[K, V]) isEntryValid(entry *cacheEntry[V], now time.Time) bool {
	if !entry.Exists {
		return false
	}
	if e.TTL < 0 {
		return true
	}
	return entry.Written.Add(e.TTL).After(now)
}

// RemoveExpired deletes all expired entries from the cache and returns the
// number of entries removed.
func (e *ExpiringCache[K, V]) RemoveExpired() uint {
	var removed uint

	if e.TTL < 0 {
		return removed
	}

	now := time.Now()

	e.cache.Range(func(key interface{}, value interface{}) bool {
		entry := value.(*cacheEntry[V])

		entry.Lock.RLock()
		toBeDeleted := !e.isEntryValid(entry, now)
		entry.Lock.RUnlock()

		if toBeDeleted {
			entry.Lock.Lock()

			// Check again
			if e.isEntryValid(entry, now) {
				entry.Lock.Unlock()
				return true
			}

			entry.Exists = false
			e.cache.Delete(key)
			removed++

			entry.Lock.Unlock()
		}

		return true
	})

	return removed
}
