package codec

import (
	"math"
	"testing"

	"github.com/voxpopai/personacore/internal/domain"
)

func TestEncodeSurveyProducesUnitVector(t *testing.T) {
	c := New(1)
	v := c.EncodeSurvey(domain.SurveyResponses{
		Answers: map[string]float64{
			"q_try_new_products": 0.9,
			"q_plan_purchases":   0.2,
		},
		Demographics: []float64{0.3, 0.7},
		Behaviors:    []float64{0.5},
	})

	if len(v) != domain.VectorDim {
		t.Fatalf("vector length = %d, want %d", len(v), domain.VectorDim)
	}
	if got := v.Norm(); math.Abs(got-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", got)
	}
}

func TestEncodeSurveyDeterministicPerSeed(t *testing.T) {
	responses := domain.SurveyResponses{
		Answers:      map[string]float64{"q_trust_reviews": 0.8, "q_impulse_buy": 0.1},
		Demographics: []float64{0.4},
	}

	a := New(99).EncodeSurvey(responses)
	b := New(99).EncodeSurvey(responses)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different vectors at index %d: %v vs %v", i, a[i], b[i])
		}
	}

	c := New(100).EncodeSurvey(responses)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds should change the padding jitter")
	}
}

func TestEncodeSurveyEmptyInputDegrades(t *testing.T) {
	v := New(5).EncodeSurvey(domain.SurveyResponses{})
	if len(v) != domain.VectorDim {
		t.Fatalf("vector length = %d, want %d", len(v), domain.VectorDim)
	}
	if got := v.Norm(); math.Abs(got-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", got)
	}
	if v.IsZero() {
		t.Error("empty survey should degrade to a neutral vector, not zero")
	}
}

func TestSurveyTraitScores(t *testing.T) {
	scores := surveyTraitScores(map[string]float64{
		"q_try_new_products": 1.0,
		"q_enjoy_novelty":    0.0,
		"q_plan_purchases":   1.6,  // clamps to 1
		"q_impulse_buy":      -0.4, // clamps to 0
		"q_unmapped":         0.9,  // ignored
	})

	tests := []struct {
		trait domain.Trait
		want  float64
	}{
		{domain.TraitOpenness, 0.5},
		{domain.TraitConscientiousness, 1.0},
		{domain.TraitVolatility, 0.0},
		{domain.TraitExtraversion, NeutralScore},
		{domain.TraitAgreeableness, NeutralScore},
	}
	for _, tt := range tests {
		if got := scores[tt.trait]; math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s score = %v, want %v", tt.trait, got, tt.want)
		}
	}
}

func TestEncodeSegmentKnownLabels(t *testing.T) {
	for _, label := range KnownSegments() {
		t.Run(label, func(t *testing.T) {
			v := New(3).EncodeSegment(label, nil)
			if len(v) != domain.VectorDim {
				t.Fatalf("vector length = %d, want %d", len(v), domain.VectorDim)
			}
			if got := v.Norm(); math.Abs(got-1) > 1e-9 {
				t.Errorf("norm = %v, want 1", got)
			}
		})
	}
}

func TestEncodeSegmentUnknownLabelFallsBackToNeutral(t *testing.T) {
	// Unknown labels share the neutral pattern, so with equal seeds
	// two unknown labels must produce identical vectors.
	a := New(11).EncodeSegment("no_such_segment", nil)
	b := New(11).EncodeSegment("another_unknown", nil)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("unknown labels diverged at index %d", i)
		}
	}

	known := New(11).EncodeSegment("value_conscious", nil)
	same := true
	for i := range a {
		if a[i] != known[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("a known segment should not match the neutral fallback")
	}
}

func TestEncodeSegmentLabelNormalization(t *testing.T) {
	a := New(7).EncodeSegment("  Early_Adopter ", nil)
	b := New(7).EncodeSegment("early_adopter", nil)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("label case/whitespace changed the vector at index %d", i)
		}
	}
}

func TestEncodeSegmentDataRescalesAxisOnly(t *testing.T) {
	base := New(21).EncodeSegment("mainstream", nil)
	blended := New(21).EncodeSegment("mainstream", domain.SegmentData{
		domain.AxisPriceSensitivity: 1.0,
	})

	start, end := domain.AxisSegment(domain.AxisPriceSensitivity)
	changed := false
	for i := start; i < end; i++ {
		if base[i] != blended[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("segment data should rescale the matching axis range")
	}

	// Trait segments are untouched pre-normalization, so their ratio to
	// each other must be preserved.
	tStart, tEnd := domain.TraitSegment(domain.TraitOpenness)
	for i := tStart + 1; i < tEnd; i++ {
		if base[tStart] == 0 || blended[tStart] == 0 {
			continue
		}
		ra := base[i] / base[tStart]
		rb := blended[i] / blended[tStart]
		if math.Abs(ra-rb) > 1e-9 {
			t.Fatalf("trait segment shape changed at index %d", i)
		}
	}
}

func TestDecodeUniformVector(t *testing.T) {
	v := make(domain.Vector, domain.VectorDim)
	for i := range v {
		v[i] = 0.05
	}

	scores := New(1).Decode(v)
	for _, trait := range domain.AllTraits() {
		if math.Abs(scores[trait]-0.5) > 1e-9 {
			t.Errorf("uniform vector decoded %s = %v, want 0.5", trait, scores[trait])
		}
	}
}

func TestDecodeDegradedInputs(t *testing.T) {
	c := New(1)

	tests := []struct {
		name string
		v    domain.Vector
	}{
		{"nil", nil},
		{"short", make(domain.Vector, 10)},
		{"zero", make(domain.Vector, domain.VectorDim)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := c.Decode(tt.v)
			for _, trait := range domain.AllTraits() {
				if scores[trait] != 0.5 {
					t.Errorf("%s decoded %s = %v, want neutral 0.5", tt.name, trait, scores[trait])
				}
			}
		})
	}
}

func TestDecodeRecoversDominantTrait(t *testing.T) {
	c := New(1)
	v := c.FromTraitScores(domain.TraitScores{
		domain.TraitOpenness:          0.9,
		domain.TraitConscientiousness: 0.2,
		domain.TraitExtraversion:      0.2,
		domain.TraitAgreeableness:     0.2,
		domain.TraitVolatility:        0.2,
	})

	scores := c.Decode(v.Normalized())
	if scores[domain.TraitOpenness] <= 0.5 {
		t.Errorf("dominant trait decoded to %v, want > 0.5", scores[domain.TraitOpenness])
	}
	for _, trait := range domain.AllTraits()[1:] {
		if scores[trait] >= scores[domain.TraitOpenness] {
			t.Errorf("%s decoded %v, should be below dominant openness %v",
				trait, scores[trait], scores[domain.TraitOpenness])
		}
	}
}

func TestDecodeScaleInvariant(t *testing.T) {
	c := New(1)
	v := c.EncodeSegment("leader", nil)

	scaled := v.Clone()
	for i := range scaled {
		scaled[i] *= 3.5
	}

	a := c.Decode(v)
	b := c.Decode(scaled)
	for _, trait := range domain.AllTraits() {
		if math.Abs(a[trait]-b[trait]) > 1e-9 {
			t.Errorf("decode of %s changed under uniform scaling: %v vs %v", trait, a[trait], b[trait])
		}
	}
}

func TestTraitPatternSize(t *testing.T) {
	for _, trait := range domain.AllTraits() {
		if got := len(traitPattern(trait, 0.7)); got != domain.TraitSegmentSize {
			t.Errorf("traitPattern(%s) length = %d, want %d", trait, got, domain.TraitSegmentSize)
		}
	}
}

func TestTraitPatternsDistinguishTraits(t *testing.T) {
	// Two traits at the same score must not expand to the same
	// sub-embedding, or distinct profiles would collapse.
	traits := domain.AllTraits()
	for i := 0; i < len(traits); i++ {
		for j := i + 1; j < len(traits); j++ {
			a := traitPattern(traits[i], 0.8)
			b := traitPattern(traits[j], 0.8)
			same := true
			for k := range a {
				if math.Abs(a[k]-b[k]) > 1e-9 {
					same = false
					break
				}
			}
			if same {
				t.Errorf("patterns for %s and %s are identical", traits[i], traits[j])
			}
		}
	}
}

func TestValidSegment(t *testing.T) {
	for _, label := range KnownSegments() {
		if !ValidSegment(label) {
			t.Errorf("ValidSegment(%s) = false, want true", label)
		}
	}
	if ValidSegment("impulse_maximalist") {
		t.Error("ValidSegment(impulse_maximalist) = true, want false")
	}
}
