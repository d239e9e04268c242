package consistency

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxpopai/personacore/internal/codec"
	"github.com/voxpopai/personacore/internal/domain"
	"github.com/voxpopai/personacore/internal/scorer"
)

// fixedClock pins Now() so time-of-day energy is deterministic.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newTestController(vectorizer domain.TextToVector) *Controller {
	return New(codec.New(1), vectorizer, zap.NewNop(), Options{
		Clock: &fixedClock{now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)},
	})
}

func baseVector(t *testing.T) domain.Vector {
	t.Helper()
	return codec.New(1).EncodeSegment("early_adopter", nil)
}

func TestEvaluateDriftWithinThreshold(t *testing.T) {
	base := baseVector(t)

	vec := scorer.NewMock()
	vec.Response = base.Clone()

	ctrl := newTestController(vec)
	report := ctrl.EvaluateDrift(context.Background(), nil, base, "a perfectly on-profile reply")

	if report.NeedsCorrection {
		t.Error("identical vectors should not need correction")
	}
	if math.Abs(report.DriftScore) > 1e-9 {
		t.Errorf("drift score = %v, want 0", report.DriftScore)
	}
	if report.CorrectionPrompt != "" {
		t.Error("no correction prompt expected below threshold")
	}
}

func TestEvaluateDriftAboveThreshold(t *testing.T) {
	base := baseVector(t)

	// An orthogonal candidate: zero overlap with the base's occupied
	// dimensions is impossible (base spans everything), so build one
	// from an inverted profile instead and check it crosses 0.3.
	inverted := make(domain.Vector, domain.VectorDim)
	start, end := domain.TraitSegment(domain.TraitVolatility)
	for i := start; i < end; i++ {
		inverted[i] = 1
	}
	inverted = inverted.Normalized()

	vec := scorer.NewMock()
	vec.Response = inverted

	ctrl := newTestController(vec)
	report := ctrl.EvaluateDrift(context.Background(), nil, base, "a wildly off-profile reply")

	if !report.NeedsCorrection {
		t.Fatalf("drift %v should trigger correction", report.DriftScore)
	}
	if report.DriftScore <= DefaultDriftThreshold {
		t.Errorf("drift score = %v, want > %v", report.DriftScore, DefaultDriftThreshold)
	}
	if report.CorrectionPrompt == "" {
		t.Error("correction prompt missing")
	}
	if !strings.Contains(report.CorrectionPrompt, "Target profile:") {
		t.Error("correction prompt should include the target profile")
	}
}

func TestEvaluateDriftVectorizeFailureFailsClosed(t *testing.T) {
	base := baseVector(t)

	vec := scorer.NewMock()
	vec.Err = errors.New("embedding backend down")

	ctrl := newTestController(vec)
	report := ctrl.EvaluateDrift(context.Background(), nil, base, "any reply")

	if report.DriftScore != 1.0 {
		t.Errorf("drift score = %v, want 1.0 on vectorization failure", report.DriftScore)
	}
	if !report.NeedsCorrection {
		t.Error("vectorization failure should trigger correction")
	}
}

func TestEvaluateDriftViolationsInFixedOrder(t *testing.T) {
	c := codec.New(1)
	base := c.FromTraitScores(domain.TraitScores{
		domain.TraitOpenness:          0.9,
		domain.TraitConscientiousness: 0.9,
		domain.TraitExtraversion:      0.5,
		domain.TraitAgreeableness:     0.5,
		domain.TraitVolatility:        0.1,
	}).Normalized()

	candidate := c.FromTraitScores(domain.TraitScores{
		domain.TraitOpenness:          0.1,
		domain.TraitConscientiousness: 0.1,
		domain.TraitExtraversion:      0.5,
		domain.TraitAgreeableness:     0.5,
		domain.TraitVolatility:        0.9,
	}).Normalized()

	vec := scorer.NewMock()
	vec.Response = candidate

	ctrl := newTestController(vec)
	report := ctrl.EvaluateDrift(context.Background(), nil, base, "off-profile reply")
	if !report.NeedsCorrection {
		t.Fatalf("expected correction, drift = %v", report.DriftScore)
	}
	if len(report.ViolatedTraits) == 0 {
		t.Fatal("expected violated traits")
	}

	// Violations must follow the fixed trait order.
	order := map[domain.Trait]int{}
	for i, trait := range domain.AllTraits() {
		order[trait] = i
	}
	for i := 1; i < len(report.ViolatedTraits); i++ {
		if order[report.ViolatedTraits[i-1].Trait] >= order[report.ViolatedTraits[i].Trait] {
			t.Errorf("violations out of trait order: %v", report.ViolatedTraits)
		}
	}

	for _, v := range report.ViolatedTraits {
		if math.Abs(v.Difference) <= TraitViolationThreshold {
			t.Errorf("trait %s flagged with difference %v, below threshold %v",
				v.Trait, v.Difference, TraitViolationThreshold)
		}
		if math.Abs(v.Actual-v.Expected-v.Difference) > 1e-9 {
			t.Errorf("trait %s: difference %v inconsistent with expected %v and actual %v",
				v.Trait, v.Difference, v.Expected, v.Actual)
		}
	}
}

func TestCorrectionPromptDeterministic(t *testing.T) {
	scores := domain.TraitScores{
		domain.TraitOpenness:          0.8,
		domain.TraitConscientiousness: 0.2,
		domain.TraitExtraversion:      0.6,
		domain.TraitAgreeableness:     0.4,
		domain.TraitVolatility:        0.5,
	}
	violations := []domain.TraitViolation{
		{Trait: domain.TraitOpenness, Expected: 0.8, Actual: 0.2, Difference: -0.6},
	}

	a := buildCorrectionPrompt(scores, violations)
	b := buildCorrectionPrompt(scores, violations)
	if a != b {
		t.Error("correction prompt not deterministic")
	}
	if !strings.Contains(a, "openness came across lower than expected") {
		t.Errorf("prompt missing violation line: %s", a)
	}
	if !strings.Contains(a, "Show genuine curiosity") {
		t.Errorf("prompt missing high-openness reinforcement: %s", a)
	}
	if !strings.Contains(a, "Keep it loose and spontaneous") {
		t.Errorf("prompt missing low-conscientiousness reinforcement: %s", a)
	}
}

func TestForgetPersonaDropsHistory(t *testing.T) {
	ctrl := newTestController(scorer.NewMock())
	id := uuid.New()

	ctrl.TrackConsistency(id, 0.2)
	ctrl.TrackConsistency(id, 0.4)
	ctrl.ForgetPersona(id)

	if got := ctrl.ConsistencyReport(id).Samples; got != 0 {
		t.Errorf("samples after forget = %d, want 0", got)
	}
}

func TestTrackConsistencyCapsHistory(t *testing.T) {
	ctrl := newTestController(scorer.NewMock())
	id := uuid.New()

	for i := 0; i < HistoryCap+25; i++ {
		ctrl.TrackConsistency(id, float64(i%10)/10)
	}

	report := ctrl.ConsistencyReport(id)
	if report.Samples != HistoryCap {
		t.Errorf("samples = %d, want %d", report.Samples, HistoryCap)
	}
}

func TestConsistencyReportEmpty(t *testing.T) {
	ctrl := newTestController(scorer.NewMock())
	report := ctrl.ConsistencyReport(uuid.New())

	if report.Samples != 0 {
		t.Errorf("samples = %d, want 0", report.Samples)
	}
	if report.Trend != domain.TrendStable {
		t.Errorf("trend = %s, want stable", report.Trend)
	}
}

func TestConsistencyReportStats(t *testing.T) {
	ctrl := newTestController(scorer.NewMock())
	id := uuid.New()

	for _, score := range []float64{0.1, 0.5, 0.3} {
		ctrl.TrackConsistency(id, score)
	}

	report := ctrl.ConsistencyReport(id)
	if report.Samples != 3 {
		t.Fatalf("samples = %d, want 3", report.Samples)
	}
	if math.Abs(report.AverageDrift-0.3) > 1e-9 {
		t.Errorf("average = %v, want 0.3", report.AverageDrift)
	}
	if report.MaxDrift != 0.5 {
		t.Errorf("max = %v, want 0.5", report.MaxDrift)
	}
	if report.MinDrift != 0.1 {
		t.Errorf("min = %v, want 0.1", report.MinDrift)
	}
	if report.Trend != domain.TrendStable {
		t.Errorf("trend = %s, want stable for few samples", report.Trend)
	}
}

func TestConsistencyTrend(t *testing.T) {
	tests := []struct {
		name   string
		older  float64
		recent float64
		want   domain.DriftTrend
	}{
		{"degrading", 0.2, 0.5, domain.TrendDegrading},
		{"improving", 0.5, 0.2, domain.TrendImproving},
		{"stable", 0.3, 0.31, domain.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newTestController(scorer.NewMock())
			id := uuid.New()
			for i := 0; i < 20; i++ {
				ctrl.TrackConsistency(id, tt.older)
			}
			for i := 0; i < trendRecentWindow; i++ {
				ctrl.TrackConsistency(id, tt.recent)
			}
			if got := ctrl.ConsistencyReport(id).Trend; got != tt.want {
				t.Errorf("trend = %s, want %s", got, tt.want)
			}
		})
	}
}
