package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// KeyValueStore is the tiered-memory backing store. Implementations
// must tolerate being unreachable; callers treat any error as a signal
// to fall back to process-local storage.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetPersistent(ctx context.Context, key string, value []byte) error
	ListByPrefix(ctx context.Context, prefix string) (map[string][]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Connected(ctx context.Context) bool
}

// PersonaStore persists persona profiles and their base vectors.
type PersonaStore interface {
	Create(ctx context.Context, p *Persona) error
	GetByID(ctx context.Context, id uuid.UUID) (*Persona, error)
	UpdateVector(ctx context.Context, id uuid.UUID, v Vector) error
	List(ctx context.Context, limit int) ([]Persona, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TextToVector converts free text into a persona-comparable vector.
// The default implementation is a keyword heuristic; an embedding
// model can be substituted without touching the controller or the
// memory tiers.
type TextToVector interface {
	Vectorize(ctx context.Context, text string) (Vector, error)
}

// TextGenerator is the opaque text-generation capability. Failures
// are the caller's concern, not the consistency core's.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string, history []Message) (string, error)
}

// Clock abstracts wall-clock reads so time-of-day heuristics and TTL
// checks are deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
