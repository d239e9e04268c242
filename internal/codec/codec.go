// Package codec encodes persona trait profiles into fixed-dimension
// vectors and decodes vectors back into trait scores. Encoding never
// fails: missing or malformed input degrades to neutral (0.5) traits.
package codec

import (
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/voxpopai/personacore/internal/domain"
)

const (
	// NeutralScore is the default trait score when no mapped question
	// was answered.
	NeutralScore = 0.5
	// padScale bounds the jitter used to pad a short vector up to the
	// full dimension.
	padScale = 0.02
	// fillSpread is the semi-random spread applied when filling a
	// domain-axis range from a segment weight.
	fillSpread = 0.4
)

// Codec builds and reads persona vectors. The random source drives
// only segment fill and padding jitter; pass a fixed seed for
// deterministic vectors under test.
type Codec struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New(seed int64) *Codec {
	return &Codec{rng: rand.New(rand.NewSource(seed))}
}

func (c *Codec) jitter() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

// EncodeSurvey builds a persona vector from trait-mapped survey
// answers. Per trait it averages the normalized scores of that trait's
// mapped questions (0.5 if none answered), expands each score through
// the trait's deterministic pattern, appends demographic and
// behavioral sub-vectors, pads with small values up to the full
// dimension, and normalizes.
func (c *Codec) EncodeSurvey(responses domain.SurveyResponses) domain.Vector {
	scores := surveyTraitScores(responses.Answers)

	v := make(domain.Vector, 0, domain.VectorDim)
	for _, t := range domain.AllTraits() {
		v = append(v, traitPattern(t, scores[t])...)
	}

	for _, x := range responses.Demographics {
		if len(v) >= domain.VectorDim {
			break
		}
		v = append(v, clamp01(x))
	}
	for _, x := range responses.Behaviors {
		if len(v) >= domain.VectorDim {
			break
		}
		v = append(v, clamp01(x))
	}

	for len(v) < domain.VectorDim {
		v = append(v, padScale*(c.jitter()-0.5))
	}

	return v.Normalized()
}

// EncodeSegment builds a persona vector from a named consumer segment.
// Unknown labels fall back to a neutral weighting pattern; this never
// fails. Segment averages in data, when present, rescale the matching
// domain-axis range.
func (c *Codec) EncodeSegment(label string, data domain.SegmentData) domain.Vector {
	weights, ok := segmentPatterns[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		weights = neutralPattern
	}

	v := make(domain.Vector, domain.VectorDim)

	scores := segmentTraitScores(weights)
	for _, t := range domain.AllTraits() {
		start, _ := domain.TraitSegment(t)
		copy(v[start:], traitPattern(t, scores[t]))
	}

	for _, axis := range domain.AllAxes() {
		w := axisWeight(weights, axis)
		if avg, ok := data[axis]; ok {
			// Segment-specific average overrides the pattern weight,
			// blended so the pattern still shapes the fill.
			w = clamp01(0.5*w + 0.5*clamp01(avg))
		}
		start, end := domain.AxisSegment(axis)
		for i := start; i < end; i++ {
			v[i] = w * (1 - fillSpread/2 + fillSpread*c.jitter())
		}
	}

	return v.Normalized()
}

// FromTraitScores expands a full set of trait scores through the
// trait patterns into an unnormalized vector with empty axis ranges.
// Text scorers use this so their vectors live in the same segment
// basis as encoded personas.
func (c *Codec) FromTraitScores(scores domain.TraitScores) domain.Vector {
	v := make(domain.Vector, domain.VectorDim)
	for _, t := range domain.AllTraits() {
		score, ok := scores[t]
		if !ok {
			score = NeutralScore
		}
		start, _ := domain.TraitSegment(t)
		copy(v[start:], traitPattern(t, score))
	}
	return v
}

// Decode recovers trait scores from a vector by comparing each trait
// segment's mean absolute magnitude against the mean across all trait
// segments. A uniform vector decodes to 0.5 everywhere; out-of-range
// or missing data decodes to neutral. Decode is the single trait basis
// used by encoding, drift scoring, and correction, so the three stay
// comparable.
func (c *Codec) Decode(v domain.Vector) domain.TraitScores {
	if len(v) < domain.VectorDim {
		return domain.NeutralTraitScores()
	}

	traits := domain.AllTraits()
	means := make(map[domain.Trait]float64, len(traits))
	var total float64
	for _, t := range traits {
		start, end := domain.TraitSegment(t)
		var sum float64
		for i := start; i < end; i++ {
			sum += math.Abs(v[i])
		}
		m := sum / float64(end-start)
		means[t] = m
		total += m
	}

	if total == 0 {
		return domain.NeutralTraitScores()
	}

	overall := total / float64(len(traits))
	scores := make(domain.TraitScores, len(traits))
	for _, t := range traits {
		scores[t] = clamp01(means[t] / (2 * overall))
	}
	return scores
}

// Normalize returns a unit-norm copy of v; a zero vector is returned
// unchanged.
func (c *Codec) Normalize(v domain.Vector) domain.Vector {
	return v.Normalized()
}

func surveyTraitScores(answers map[string]float64) domain.TraitScores {
	sums := make(map[domain.Trait]float64)
	counts := make(map[domain.Trait]int)
	for question, score := range answers {
		t, ok := questionTraits[question]
		if !ok {
			continue
		}
		sums[t] += clamp01(score)
		counts[t]++
	}

	scores := make(domain.TraitScores, len(domain.AllTraits()))
	for _, t := range domain.AllTraits() {
		if counts[t] == 0 {
			scores[t] = NeutralScore
			continue
		}
		scores[t] = sums[t] / float64(counts[t])
	}
	return scores
}

// traitPattern expands a trait score into its segment-sized
// sub-embedding. Each trait has its own deterministic shape so two
// different trait profiles cannot collapse onto the same vector.
func traitPattern(t domain.Trait, score float64) domain.Vector {
	sub := make(domain.Vector, domain.TraitSegmentSize)
	n := float64(domain.TraitSegmentSize - 1)
	for i := range sub {
		pos := float64(i) / n
		switch t {
		case domain.TraitOpenness:
			// Early indices weigh heavier.
			sub[i] = score * (1.2 - 0.6*pos)
		case domain.TraitConscientiousness:
			// Late indices weigh heavier.
			sub[i] = score * (0.6 + 0.6*pos)
		case domain.TraitExtraversion:
			sub[i] = score * (0.9 + 0.3*math.Sin(2*math.Pi*pos))
		case domain.TraitAgreeableness:
			// Mid-weighted hump.
			sub[i] = score * (0.7 + 1.2*pos*(1-pos))
		case domain.TraitVolatility:
			if i%2 == 0 {
				sub[i] = score * 1.25
			} else {
				sub[i] = score * 0.75
			}
		default:
			sub[i] = score
		}
	}
	return sub
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
