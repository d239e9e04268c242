package domain

import "math"

// VectorDim is the fixed dimension of every persona vector.
// Five 64-wide trait segments occupy [0, 320); four 16-wide
// domain-axis ranges occupy [320, 384).
const (
	VectorDim        = 384
	TraitSegmentSize = 64
	AxisSegmentSize  = 16
	axisBase         = 5 * TraitSegmentSize
)

type Trait string

const (
	TraitOpenness          Trait = "openness"
	TraitConscientiousness Trait = "conscientiousness"
	TraitExtraversion      Trait = "extraversion"
	TraitAgreeableness     Trait = "agreeableness"
	TraitVolatility        Trait = "emotional_volatility"
)

// AllTraits returns the five traits in their fixed segment order.
// Every component that maps between vectors and trait scores uses
// this order, so encode/decode/compare stay consistent.
func AllTraits() []Trait {
	return []Trait{
		TraitOpenness,
		TraitConscientiousness,
		TraitExtraversion,
		TraitAgreeableness,
		TraitVolatility,
	}
}

func ValidTrait(t string) bool {
	switch Trait(t) {
	case TraitOpenness, TraitConscientiousness, TraitExtraversion, TraitAgreeableness, TraitVolatility:
		return true
	}
	return false
}

// TraitSegment returns the [start, end) index range for a trait,
// or (0, 0) for an unknown trait.
func TraitSegment(t Trait) (start, end int) {
	for i, trait := range AllTraits() {
		if trait == t {
			return i * TraitSegmentSize, (i + 1) * TraitSegmentSize
		}
	}
	return 0, 0
}

type DomainAxis string

const (
	AxisPriceSensitivity DomainAxis = "price_sensitivity"
	AxisBrandLoyalty     DomainAxis = "brand_loyalty"
	AxisInnovationSeek   DomainAxis = "innovation_seeking"
	AxisSocialInfluence  DomainAxis = "social_influence"
)

// AllAxes returns the four domain axes in their fixed segment order.
func AllAxes() []DomainAxis {
	return []DomainAxis{
		AxisPriceSensitivity,
		AxisBrandLoyalty,
		AxisInnovationSeek,
		AxisSocialInfluence,
	}
}

// AxisSegment returns the [start, end) index range for a domain axis,
// or (0, 0) for an unknown axis.
func AxisSegment(a DomainAxis) (start, end int) {
	for i, axis := range AllAxes() {
		if axis == a {
			return axisBase + i*AxisSegmentSize, axisBase + (i+1)*AxisSegmentSize
		}
	}
	return 0, 0
}

// Vector is a persona embedding. Vectors are unit-normalized after
// construction (a zero vector is the one degenerate exception) and are
// never mutated in place; every variation produces a new vector.
type Vector []float64

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalized returns a unit-norm copy of v. A zero vector is returned
// as a copy, unnormalized.
func (v Vector) Normalized() Vector {
	out := make(Vector, len(v))
	norm := v.Norm()
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// IsZero reports whether every component is exactly zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// CosineSimilarity returns the cosine of the angle between a and b,
// or 0 if the dimensions differ or either vector has zero magnitude.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TraitScores maps each trait to a score in [0, 1]. Scores are
// ephemeral, recomputed per call from a vector or from text.
type TraitScores map[Trait]float64

// NeutralTraitScores returns 0.5 for every trait, the degraded default
// when source data is missing or malformed.
func NeutralTraitScores() TraitScores {
	scores := make(TraitScores, len(AllTraits()))
	for _, t := range AllTraits() {
		scores[t] = 0.5
	}
	return scores
}
