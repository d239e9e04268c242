package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/voxpopai/personacore/internal/domain"
)

// consistencyVarianceGain converts mean per-dimension variance into a
// [0,1] consistency score: consistency = max(0, 1 - gain*variance).
const consistencyVarianceGain = 10.0

// PersonalityProfile is the stable-trait summary extracted from a
// persona's long-term vector history.
type PersonalityProfile struct {
	DominantTrait domain.Trait       `json:"dominant_trait"`
	TraitScores   domain.TraitScores `json:"trait_scores"`
	Consistency   float64            `json:"consistency"`
	Description   string             `json:"description"`
	Drift         domain.DriftMetrics `json:"drift_metrics"`
}

// ExtractProfile decodes the long-term vector history into average
// trait scores, a dominant trait, and a variance-based consistency
// score. An empty history yields a neutral profile.
func (h *Hierarchical) ExtractProfile(ctx context.Context, personaID uuid.UUID) PersonalityProfile {
	record := h.LongTermRecord(ctx, personaID)
	return h.profileFromRecord(record)
}

func (h *Hierarchical) profileFromRecord(record domain.LongTermRecord) PersonalityProfile {
	profile := PersonalityProfile{
		TraitScores: domain.NeutralTraitScores(),
		Consistency: 1,
		Drift:       record.Drift,
	}

	if len(record.VectorHistory) == 0 {
		profile.DominantTrait = domain.AllTraits()[0]
		profile.Description = domain.PersonalityDescription(profile.TraitScores)
		return profile
	}

	// Average decoded trait scores across the history.
	sums := make(map[domain.Trait]float64)
	for _, snap := range record.VectorHistory {
		for t, score := range h.codec.Decode(snap.Vector) {
			sums[t] += score
		}
	}
	n := float64(len(record.VectorHistory))
	for _, t := range domain.AllTraits() {
		profile.TraitScores[t] = sums[t] / n
	}

	// Dominant trait: argmax in fixed trait order.
	profile.DominantTrait = domain.AllTraits()[0]
	best := profile.TraitScores[profile.DominantTrait]
	for _, t := range domain.AllTraits() {
		if profile.TraitScores[t] > best {
			profile.DominantTrait = t
			best = profile.TraitScores[t]
		}
	}

	profile.Consistency = consistencyScore(record.VectorHistory)
	profile.Description = domain.PersonalityDescription(profile.TraitScores)
	return profile
}

// consistencyScore is max(0, 1 - 10*meanPerDimensionVariance) over
// the vector history.
func consistencyScore(history []domain.VectorSnapshot) float64 {
	if len(history) < 2 {
		return 1
	}

	dim := len(history[0].Vector)
	if dim == 0 {
		return 1
	}

	means := make([]float64, dim)
	count := 0
	for _, snap := range history {
		if len(snap.Vector) != dim {
			continue
		}
		for i, x := range snap.Vector {
			means[i] += x
		}
		count++
	}
	if count < 2 {
		return 1
	}
	for i := range means {
		means[i] /= float64(count)
	}

	var meanVariance float64
	for _, snap := range history {
		if len(snap.Vector) != dim {
			continue
		}
		for i, x := range snap.Vector {
			d := x - means[i]
			meanVariance += d * d
		}
	}
	meanVariance /= float64(count) * float64(dim)

	consistency := 1 - consistencyVarianceGain*meanVariance
	if consistency < 0 {
		return 0
	}
	return consistency
}

// longTermCandidate renders the extracted profile as the single
// long-term context candidate with a fixed baseline relevance.
func (h *Hierarchical) longTermCandidate(ctx context.Context, personaID uuid.UUID) (domain.ContextCandidate, bool) {
	record := h.LongTermRecord(ctx, personaID)
	if len(record.VectorHistory) == 0 {
		return domain.ContextCandidate{}, false
	}

	profile := h.profileFromRecord(record)
	content := fmt.Sprintf(
		"Persona profile: dominant trait %s; consistency %.2f; average drift %.3f (max %.3f, %s). %s",
		strings.ReplaceAll(string(profile.DominantTrait), "_", " "),
		profile.Consistency,
		profile.Drift.AverageDrift,
		profile.Drift.MaxDrift,
		profile.Drift.Trend,
		profile.Description,
	)

	return domain.ContextCandidate{
		Content:   content,
		Tier:      domain.TierLong,
		Relevance: longTermBaseRelevance,
		Timestamp: record.UpdatedAt,
	}, true
}
