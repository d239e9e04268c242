// Package consistency implements the drift control loop: bounded
// contextual variation of a persona's base vector, drift evaluation of
// candidate responses, correction directives, and a rolling
// consistency history per persona. The controller is purely
// computational; it performs no I/O and never blocks.
package consistency

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxpopai/personacore/internal/codec"
	"github.com/voxpopai/personacore/internal/domain"
	"github.com/voxpopai/personacore/internal/scorer"
)

const (
	// DefaultVariationRange bounds per-turn contextual variation.
	DefaultVariationRange = 0.15
	// DefaultDriftThreshold is the drift score beyond which a
	// correction directive is issued.
	DefaultDriftThreshold = 0.3
	// TraitViolationThreshold flags a trait as violated when the
	// decoded difference from the profile exceeds it.
	TraitViolationThreshold = 0.3
	// HistoryCap bounds the rolling drift history per persona.
	HistoryCap = 100

	// Trend classification: the recent-window average must differ from
	// the older average by more than trendDelta to leave "stable".
	trendRecentWindow = 10
	trendDelta        = 0.2
)

type driftSample struct {
	Score float64
	At    time.Time
}

// Controller tracks per-persona drift and issues corrections.
type Controller struct {
	codec          *codec.Codec
	vectorizer     domain.TextToVector
	clock          domain.Clock
	logger         *zap.Logger
	variationRange float64
	driftThreshold float64

	mu        sync.Mutex
	histories map[uuid.UUID][]driftSample
}

// Options overrides the controller defaults; zero values keep them.
type Options struct {
	VariationRange float64
	DriftThreshold float64
	Clock          domain.Clock
}

func New(c *codec.Codec, vectorizer domain.TextToVector, logger *zap.Logger, opts Options) *Controller {
	vr := opts.VariationRange
	if vr <= 0 {
		vr = DefaultVariationRange
	}
	dt := opts.DriftThreshold
	if dt <= 0 {
		dt = DefaultDriftThreshold
	}
	clock := opts.Clock
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &Controller{
		codec:          c,
		vectorizer:     vectorizer,
		clock:          clock,
		logger:         logger,
		variationRange: vr,
		driftThreshold: dt,
		histories:      make(map[uuid.UUID][]driftSample),
	}
}

// EvaluateDrift scores a candidate response against the persona's base
// vector and, past the drift threshold, builds a correction directive.
// Malformed input never produces an error; vectorization failure is
// treated as maximum drift so a correction is favored over a silent
// pass.
func (c *Controller) EvaluateDrift(ctx context.Context, history []domain.Message, base domain.Vector, candidate string) domain.DriftReport {
	var driftScore float64
	candidateVec, err := c.vectorizer.Vectorize(ctx, candidate)
	if err != nil {
		c.logger.Warn("candidate vectorization failed, treating as maximum drift", zap.Error(err))
		driftScore = 1.0
		candidateVec = nil
	} else {
		driftScore = scorer.Drift(base, candidateVec)
	}

	if histScore, samples := scorer.DriftAgainstHistory(ctx, c.vectorizer, history, base); samples > 0 {
		c.logger.Debug("history drift",
			zap.Float64("mean", histScore),
			zap.Int("samples", samples))
	}

	report := domain.DriftReport{DriftScore: driftScore}
	if driftScore <= c.driftThreshold {
		return report
	}

	report.NeedsCorrection = true

	baseScores := c.codec.Decode(base)
	var candidateScores domain.TraitScores
	if candidateVec != nil {
		candidateScores = c.codec.Decode(candidateVec)
	} else {
		candidateScores = domain.NeutralTraitScores()
	}

	// Violated traits in fixed trait order so the directive is
	// deterministic for a given pair of vectors.
	for _, t := range domain.AllTraits() {
		diff := candidateScores[t] - baseScores[t]
		if abs(diff) > TraitViolationThreshold {
			report.ViolatedTraits = append(report.ViolatedTraits, domain.TraitViolation{
				Trait:      t,
				Expected:   baseScores[t],
				Actual:     candidateScores[t],
				Difference: diff,
			})
		}
	}

	report.CorrectionPrompt = buildCorrectionPrompt(baseScores, report.ViolatedTraits)
	return report
}

// TrackConsistency appends a drift score to the persona's rolling
// history, evicting the oldest sample past HistoryCap.
func (c *Controller) TrackConsistency(personaID uuid.UUID, driftScore float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := append(c.histories[personaID], driftSample{Score: driftScore, At: c.clock.Now()})
	if len(h) > HistoryCap {
		h = h[len(h)-HistoryCap:]
	}
	c.histories[personaID] = h
}

// ForgetPersona drops the persona's drift history so the tracking map
// does not grow with the persona key space.
func (c *Controller) ForgetPersona(personaID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.histories, personaID)
}

// ConsistencyReport summarizes the persona's rolling drift history.
// With no samples it returns a zeroed report with a stable trend.
func (c *Controller) ConsistencyReport(personaID uuid.UUID) domain.ConsistencyReport {
	c.mu.Lock()
	h := c.histories[personaID]
	samples := make([]driftSample, len(h))
	copy(samples, h)
	c.mu.Unlock()

	report := domain.ConsistencyReport{PersonaID: personaID, Trend: domain.TrendStable}
	if len(samples) == 0 {
		return report
	}

	report.Samples = len(samples)
	report.MinDrift = samples[0].Score
	for _, s := range samples {
		report.AverageDrift += s.Score
		if s.Score > report.MaxDrift {
			report.MaxDrift = s.Score
		}
		if s.Score < report.MinDrift {
			report.MinDrift = s.Score
		}
	}
	report.AverageDrift /= float64(len(samples))
	report.Trend = classifyTrend(samples)
	return report
}

// classifyTrend compares the recent-window average against the older
// average: more than 20% above is degrading, more than 20% below is
// improving.
func classifyTrend(samples []driftSample) domain.DriftTrend {
	if len(samples) <= trendRecentWindow {
		return domain.TrendStable
	}

	split := len(samples) - trendRecentWindow
	var older, recent float64
	for _, s := range samples[:split] {
		older += s.Score
	}
	older /= float64(split)
	for _, s := range samples[split:] {
		recent += s.Score
	}
	recent /= float64(trendRecentWindow)

	if older == 0 {
		if recent > 0 {
			return domain.TrendDegrading
		}
		return domain.TrendStable
	}

	switch ratio := recent / older; {
	case ratio > 1+trendDelta:
		return domain.TrendDegrading
	case ratio < 1-trendDelta:
		return domain.TrendImproving
	default:
		return domain.TrendStable
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
