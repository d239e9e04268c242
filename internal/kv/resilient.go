package kv

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voxpopai/personacore/internal/domain"
)

// defaultReprobeInterval is how long the resilient store stays on the
// fallback before retrying the primary.
const defaultReprobeInterval = 30 * time.Second

// Resilient routes every operation to the primary store while it is
// healthy and transparently to the in-process fallback when it is
// not. Backend failures are logged, never surfaced: the only caller-
// visible effect of an outage is reduced retention. Deletes always go
// to both stores so cleared personas cannot resurface from the
// fallback after the primary recovers.
type Resilient struct {
	primary  domain.KeyValueStore
	fallback *Fallback
	logger   *zap.Logger
	clock    domain.Clock
	reprobe  time.Duration

	mu          sync.Mutex
	down        bool
	lastFailure time.Time
}

var _ domain.KeyValueStore = (*Resilient)(nil)

// NewResilient wraps a primary store with fallback routing. A nil
// primary routes everything to the fallback.
func NewResilient(primary domain.KeyValueStore, fallback *Fallback, logger *zap.Logger, clock domain.Clock) *Resilient {
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &Resilient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		clock:    clock,
		reprobe:  defaultReprobeInterval,
	}
}

// SetReprobeInterval overrides how long the store waits before
// retrying a failed primary.
func (r *Resilient) SetReprobeInterval(d time.Duration) {
	r.mu.Lock()
	r.reprobe = d
	r.mu.Unlock()
}

// Fallback exposes the in-process store for the expiry janitor.
func (r *Resilient) Fallback() *Fallback { return r.fallback }

func (r *Resilient) Get(ctx context.Context, key string) ([]byte, error) {
	if r.usePrimary() {
		val, err := r.primary.Get(ctx, key)
		if err == nil || errors.Is(err, ErrNotFound) {
			return val, err
		}
		r.markDown("get", err)
	}
	return r.fallback.Get(ctx, key)
}

func (r *Resilient) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.usePrimary() {
		if err := r.primary.SetWithTTL(ctx, key, value, ttl); err != nil {
			r.markDown("set", err)
		} else {
			return nil
		}
	}
	return r.fallback.SetWithTTL(ctx, key, value, ttl)
}

func (r *Resilient) SetPersistent(ctx context.Context, key string, value []byte) error {
	if r.usePrimary() {
		if err := r.primary.SetPersistent(ctx, key, value); err != nil {
			r.markDown("set", err)
		} else {
			return nil
		}
	}
	return r.fallback.SetPersistent(ctx, key, value)
}

func (r *Resilient) ListByPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	if r.usePrimary() {
		out, err := r.primary.ListByPrefix(ctx, prefix)
		if err == nil {
			return out, nil
		}
		r.markDown("list", err)
	}
	return r.fallback.ListByPrefix(ctx, prefix)
}

func (r *Resilient) Delete(ctx context.Context, keys ...string) error {
	// Best effort on both sides; a failed primary delete is logged
	// and does not block the fallback delete.
	if r.primary != nil {
		if err := r.primary.Delete(ctx, keys...); err != nil {
			r.markDown("delete", err)
		}
	}
	return r.fallback.Delete(ctx, keys...)
}

func (r *Resilient) Connected(ctx context.Context) bool {
	return r.primary != nil && r.primary.Connected(ctx)
}

// usePrimary reports whether operations should try the primary now.
// After a failure the store stays on the fallback until the reprobe
// interval elapses.
func (r *Resilient) usePrimary() bool {
	if r.primary == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.down {
		return true
	}
	if r.clock.Now().Sub(r.lastFailure) >= r.reprobe {
		r.down = false
		return true
	}
	return false
}

func (r *Resilient) markDown(op string, err error) {
	r.mu.Lock()
	wasDown := r.down
	r.down = true
	r.lastFailure = r.clock.Now()
	r.mu.Unlock()

	if !wasDown {
		r.logger.Warn("primary key-value store unavailable, using in-process fallback",
			zap.String("op", op),
			zap.Error(err))
	}
}
