package domain

import (
	"math"
	"testing"
)

func TestTraitSegments(t *testing.T) {
	tests := []struct {
		trait     Trait
		wantStart int
		wantEnd   int
	}{
		{TraitOpenness, 0, 64},
		{TraitConscientiousness, 64, 128},
		{TraitExtraversion, 128, 192},
		{TraitAgreeableness, 192, 256},
		{TraitVolatility, 256, 320},
		{Trait("unknown"), 0, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.trait), func(t *testing.T) {
			start, end := TraitSegment(tt.trait)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("TraitSegment(%s) = [%d, %d), want [%d, %d)", tt.trait, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestAxisSegments(t *testing.T) {
	tests := []struct {
		axis      DomainAxis
		wantStart int
		wantEnd   int
	}{
		{AxisPriceSensitivity, 320, 336},
		{AxisBrandLoyalty, 336, 352},
		{AxisInnovationSeek, 352, 368},
		{AxisSocialInfluence, 368, 384},
		{DomainAxis("unknown"), 0, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.axis), func(t *testing.T) {
			start, end := AxisSegment(tt.axis)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("AxisSegment(%s) = [%d, %d), want [%d, %d)", tt.axis, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestSegmentsTileFullDimension(t *testing.T) {
	covered := make([]bool, VectorDim)
	mark := func(start, end int) {
		for i := start; i < end; i++ {
			if covered[i] {
				t.Fatalf("index %d covered by two segments", i)
			}
			covered[i] = true
		}
	}
	for _, trait := range AllTraits() {
		mark(TraitSegment(trait))
	}
	for _, axis := range AllAxes() {
		mark(AxisSegment(axis))
	}
	for i, ok := range covered {
		if !ok {
			t.Fatalf("index %d not covered by any segment", i)
		}
	}
}

func TestNormalized(t *testing.T) {
	v := make(Vector, VectorDim)
	for i := range v {
		v[i] = float64(i%7) + 0.5
	}

	n := v.Normalized()
	if got := n.Norm(); math.Abs(got-1) > 1e-9 {
		t.Errorf("Normalized norm = %v, want 1", got)
	}
	if v[0] == n[0] && v.Norm() == 1 {
		t.Error("Normalized should return a copy, not mutate in place")
	}
}

func TestNormalizedZeroVector(t *testing.T) {
	v := make(Vector, VectorDim)
	n := v.Normalized()
	if !n.IsZero() {
		t.Error("zero vector should normalize to a zero copy")
	}
	if len(n) != VectorDim {
		t.Errorf("normalized zero vector length = %d, want %d", len(n), VectorDim)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	v := Vector{1, 2, 3}
	c := v.Clone()
	c[0] = 99
	if v[0] != 1 {
		t.Error("mutating a clone must not affect the original")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    Vector
		b    Vector
		want float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1},
		{"opposite", Vector{1, 0, 0}, Vector{-1, 0, 0}, -1},
		{"orthogonal", Vector{1, 0, 0}, Vector{0, 1, 0}, 0},
		{"scaled copy", Vector{1, 2, 3}, Vector{2, 4, 6}, 1},
		{"dimension mismatch", Vector{1, 0}, Vector{1, 0, 0}, 0},
		{"zero side", Vector{0, 0, 0}, Vector{1, 0, 0}, 0},
		{"both empty", Vector{}, Vector{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeutralTraitScores(t *testing.T) {
	scores := NeutralTraitScores()
	if len(scores) != len(AllTraits()) {
		t.Fatalf("got %d traits, want %d", len(scores), len(AllTraits()))
	}
	for _, trait := range AllTraits() {
		if scores[trait] != 0.5 {
			t.Errorf("neutral score for %s = %v, want 0.5", trait, scores[trait])
		}
	}
}

func TestValidTrait(t *testing.T) {
	for _, trait := range AllTraits() {
		if !ValidTrait(string(trait)) {
			t.Errorf("ValidTrait(%s) = false, want true", trait)
		}
	}
	if ValidTrait("charisma") {
		t.Error("ValidTrait(charisma) = true, want false")
	}
}
