package domain

import (
	"time"

	"github.com/google/uuid"
)

// Interaction is one completed turn: what the user asked, what the
// persona answered, and the varied vector that produced the answer.
// Immutable once written; owned by the short-term memory tier.
type Interaction struct {
	PersonaID uuid.UUID `json:"persona_id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Vector    Vector    `json:"vector"`
	Timestamp time.Time `json:"timestamp"`
}

// ChainEntry is an interaction summary inside a dialogue chain.
type ChainEntry struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// DialogueChain is a topically-continuous run of interactions for one
// persona on one calendar day. Owned by the mid-term tier; superseded
// by a new chain when the topic changes.
type DialogueChain struct {
	PersonaID uuid.UUID    `json:"persona_id"`
	Date      string       `json:"date"` // YYYY-MM-DD
	Entries   []ChainEntry `json:"entries"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// VectorSnapshot pairs a persona vector with the moment it was used.
type VectorSnapshot struct {
	Vector    Vector    `json:"vector"`
	Timestamp time.Time `json:"timestamp"`
}

type DriftTrend string

const (
	TrendStable    DriftTrend = "stable"
	TrendImproving DriftTrend = "improving"
	TrendDegrading DriftTrend = "degrading"
)

// DriftMetrics summarizes vector movement across a persona's history.
type DriftMetrics struct {
	AverageDrift float64    `json:"average_drift"`
	MaxDrift     float64    `json:"max_drift"`
	Trend        DriftTrend `json:"trend"`
}

// LongTermRecord is the persona's permanent memory: a capped vector
// history plus drift metrics recomputed on every interaction.
type LongTermRecord struct {
	PersonaID     uuid.UUID        `json:"persona_id"`
	VectorHistory []VectorSnapshot `json:"vector_history"`
	Drift         DriftMetrics     `json:"drift_metrics"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TraitViolation records one trait whose decoded score strayed too far
// from the persona's profile.
type TraitViolation struct {
	Trait      Trait   `json:"trait"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
}

// DriftReport is the per-turn verdict on a candidate response.
type DriftReport struct {
	NeedsCorrection  bool             `json:"needs_correction"`
	DriftScore       float64          `json:"drift_score"`
	ViolatedTraits   []TraitViolation `json:"violated_traits,omitempty"`
	CorrectionPrompt string           `json:"correction_prompt,omitempty"`
}

// ConsistencyReport summarizes a persona's rolling drift history.
type ConsistencyReport struct {
	PersonaID    uuid.UUID  `json:"persona_id"`
	Samples      int        `json:"samples"`
	AverageDrift float64    `json:"average_drift"`
	MaxDrift     float64    `json:"max_drift"`
	MinDrift     float64    `json:"min_drift"`
	Trend        DriftTrend `json:"trend"`
}

// ContextCandidate is one relevance-ranked item returned by memory
// recall, tagged with the tier it came from.
type ContextCandidate struct {
	Content   string     `json:"content"`
	Tier      MemoryTier `json:"tier"`
	Relevance float64    `json:"relevance"`
	Timestamp time.Time  `json:"timestamp"`
}

type MemoryTier string

const (
	TierShort MemoryTier = "short"
	TierMid   MemoryTier = "mid"
	TierLong  MemoryTier = "long"
)

// Recency orders tiers for tie-breaking: short-term candidates
// outrank mid-term, which outrank the long-term profile.
func (t MemoryTier) Recency() int {
	switch t {
	case TierShort:
		return 2
	case TierMid:
		return 1
	default:
		return 0
	}
}
