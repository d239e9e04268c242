package domain

import (
	"time"

	"github.com/google/uuid"
)

type PersonaSource string

const (
	SourceSurvey  PersonaSource = "survey"
	SourceSegment PersonaSource = "segment"
)

// Persona is a synthetic consumer archetype with a stable trait
// profile. The base vector is built once at profile-build time and
// regenerated only when the source data changes.
type Persona struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Source    PersonaSource `json:"source"`
	Segment   string        `json:"segment,omitempty"`
	Vector    Vector        `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SurveyResponses holds the trait-mapped answers for one respondent,
// already normalized into [0, 1] by the upstream survey pipeline.
// Demographics and Behaviors are optional sub-vectors appended after
// the trait segments.
type SurveyResponses struct {
	Answers      map[string]float64 `json:"answers"`
	Demographics []float64          `json:"demographics,omitempty"`
	Behaviors    []float64          `json:"behaviors,omitempty"`
}

// SegmentData optionally rescales domain-axis ranges with
// segment-specific averages, keyed by axis name.
type SegmentData map[DomainAxis]float64

// Message is one entry of a conversation history.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationContext carries the recent turns the controller uses to
// derive mood, energy, and formality modifiers.
type ConversationContext struct {
	RecentMessages []Message
}
