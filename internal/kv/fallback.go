package kv

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/voxpopai/personacore/internal/domain"
)

// DefaultFallbackCapacity bounds the in-process fallback map.
const DefaultFallbackCapacity = 1000

type fallbackEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Fallback is a bounded in-process key-value store used whenever the
// primary backend is unreachable. Insertion order is tracked so the
// oldest entry is evicted on overflow; TTLs are honored by storing an
// expiry timestamp and lazily deleting expired entries on read.
//
// Fallback is process-local by design; it makes no cross-process
// consistency claims.
type Fallback struct {
	mu       sync.Mutex
	entries  map[string]*fallbackEntry
	order    []string
	capacity int
	clock    domain.Clock
}

var _ domain.KeyValueStore = (*Fallback)(nil)

// NewFallback creates a fallback store. Capacity <= 0 uses the
// default; a nil clock uses the system clock.
func NewFallback(capacity int, clock domain.Clock) *Fallback {
	if capacity <= 0 {
		capacity = DefaultFallbackCapacity
	}
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &Fallback{
		entries:  make(map[string]*fallbackEntry),
		capacity: capacity,
		clock:    clock,
	}
}

func (f *Fallback) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if f.expired(e) {
		f.remove(key)
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (f *Fallback) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.set(key, value, f.clock.Now().Add(ttl))
	return nil
}

func (f *Fallback) SetPersistent(_ context.Context, key string, value []byte) error {
	f.set(key, value, time.Time{})
	return nil
}

func (f *Fallback) ListByPrefix(_ context.Context, prefix string) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string][]byte)
	for key, e := range f.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if f.expired(e) {
			f.remove(key)
			continue
		}
		val := make([]byte, len(e.value))
		copy(val, e.value)
		out[key] = val
	}
	return out, nil
}

func (f *Fallback) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		f.remove(key)
	}
	return nil
}

// Connected always reports true: the fallback is in-process.
func (f *Fallback) Connected(context.Context) bool { return true }

// Len returns the live entry count (expired entries included until
// their lazy deletion).
func (f *Fallback) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Sweep removes every expired entry and returns how many were
// deleted. The janitor calls this periodically so entries that are
// never read again do not linger until eviction.
func (f *Fallback) Sweep() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := 0
	for key, e := range f.entries {
		if f.expired(e) {
			f.remove(key)
			removed++
		}
	}
	return removed
}

func (f *Fallback) set(key string, value []byte, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)

	if _, exists := f.entries[key]; exists {
		f.entries[key] = &fallbackEntry{value: stored, expiresAt: expiresAt}
		return
	}

	for len(f.entries) >= f.capacity && len(f.order) > 0 {
		f.remove(f.order[0])
	}

	f.entries[key] = &fallbackEntry{value: stored, expiresAt: expiresAt}
	f.order = append(f.order, key)
}

// remove deletes a key and its order slot. Callers hold f.mu.
func (f *Fallback) remove(key string) {
	if _, ok := f.entries[key]; !ok {
		return
	}
	delete(f.entries, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

func (f *Fallback) expired(e *fallbackEntry) bool {
	return !e.expiresAt.IsZero() && !f.clock.Now().Before(e.expiresAt)
}
