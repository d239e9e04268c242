package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// flakyStore is a primary that can be switched into a failing state.
type flakyStore struct {
	*Fallback
	failing bool
}

var errBackendDown = errors.New("backend down")

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failing {
		return nil, errBackendDown
	}
	return s.Fallback.Get(ctx, key)
}

func (s *flakyStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.failing {
		return errBackendDown
	}
	return s.Fallback.SetWithTTL(ctx, key, value, ttl)
}

func (s *flakyStore) SetPersistent(ctx context.Context, key string, value []byte) error {
	if s.failing {
		return errBackendDown
	}
	return s.Fallback.SetPersistent(ctx, key, value)
}

func (s *flakyStore) ListByPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	if s.failing {
		return nil, errBackendDown
	}
	return s.Fallback.ListByPrefix(ctx, prefix)
}

func (s *flakyStore) Delete(ctx context.Context, keys ...string) error {
	if s.failing {
		return errBackendDown
	}
	return s.Fallback.Delete(ctx, keys...)
}

func (s *flakyStore) Connected(ctx context.Context) bool { return !s.failing }

func newResilientFixture() (*Resilient, *flakyStore, *Fallback, *stepClock) {
	clock := newTestClock()
	primary := &flakyStore{Fallback: NewFallback(100, clock)}
	fallback := NewFallback(100, clock)
	r := NewResilient(primary, fallback, zap.NewNop(), clock)
	return r, primary, fallback, clock
}

func TestResilientUsesPrimaryWhenHealthy(t *testing.T) {
	ctx := context.Background()
	r, primary, fallback, _ := newResilientFixture()

	if err := r.SetPersistent(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("SetPersistent: %v", err)
	}
	if _, err := primary.Fallback.Get(ctx, "k"); err != nil {
		t.Error("healthy primary should receive the write")
	}
	if _, err := fallback.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Error("fallback should not receive writes while primary is healthy")
	}
}

func TestResilientFailsOverOnError(t *testing.T) {
	ctx := context.Background()
	r, primary, fallback, _ := newResilientFixture()
	primary.failing = true

	if err := r.SetPersistent(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("write during outage should succeed via fallback: %v", err)
	}
	if _, err := fallback.Get(ctx, "k"); err != nil {
		t.Error("fallback should hold the value written during the outage")
	}

	got, err := r.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get during outage = %q, %v; want v, nil", got, err)
	}
}

func TestResilientNotFoundIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	r, primary, _, _ := newResilientFixture()

	if _, err := r.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	// A not-found must not have marked the primary down.
	_ = r.SetPersistent(ctx, "k", []byte("v"))
	if _, err := primary.Fallback.Get(ctx, "k"); err != nil {
		t.Error("primary should still be in use after a not-found")
	}
}

func TestResilientReprobesAfterInterval(t *testing.T) {
	ctx := context.Background()
	r, primary, _, clock := newResilientFixture()
	r.SetReprobeInterval(30 * time.Second)

	primary.failing = true
	_ = r.SetPersistent(ctx, "during-outage", []byte("v"))

	primary.failing = false

	// Still inside the reprobe window: writes keep going to the fallback.
	_ = r.SetPersistent(ctx, "still-down", []byte("v"))
	if _, err := primary.Fallback.Get(ctx, "still-down"); !errors.Is(err, ErrNotFound) {
		t.Error("primary should not be retried before the reprobe interval")
	}

	clock.Advance(31 * time.Second)

	_ = r.SetPersistent(ctx, "recovered", []byte("v"))
	if _, err := primary.Fallback.Get(ctx, "recovered"); err != nil {
		t.Error("primary should be back in use after the reprobe interval")
	}
}

func TestResilientDeleteHitsBothStores(t *testing.T) {
	ctx := context.Background()
	r, primary, fallback, _ := newResilientFixture()

	// Seed both sides, as happens across an outage.
	_ = primary.Fallback.SetPersistent(ctx, "k", []byte("v"))
	_ = fallback.SetPersistent(ctx, "k", []byte("v"))

	if err := r.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := primary.Fallback.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Error("delete should reach the primary")
	}
	if _, err := fallback.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Error("delete should reach the fallback so cleared data cannot resurface")
	}
}

func TestResilientNilPrimary(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	fallback := NewFallback(100, clock)
	r := NewResilient(nil, fallback, zap.NewNop(), clock)

	if err := r.SetPersistent(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("SetPersistent: %v", err)
	}
	if got, err := r.Get(ctx, "k"); err != nil || string(got) != "v" {
		t.Errorf("Get = %q, %v; want v, nil", got, err)
	}
	if r.Connected(ctx) {
		t.Error("nil primary should report disconnected")
	}
}
