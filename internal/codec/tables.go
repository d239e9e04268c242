package codec

import "github.com/voxpopai/personacore/internal/domain"

// questionTraits maps survey question IDs to the trait they load on.
// Question IDs follow the upstream survey pipeline's column naming.
var questionTraits = map[string]domain.Trait{
	"q_try_new_products":    domain.TraitOpenness,
	"q_enjoy_novelty":       domain.TraitOpenness,
	"q_curious_brands":      domain.TraitOpenness,
	"q_plan_purchases":      domain.TraitConscientiousness,
	"q_compare_options":     domain.TraitConscientiousness,
	"q_keep_budget":         domain.TraitConscientiousness,
	"q_share_opinions":      domain.TraitExtraversion,
	"q_social_shopping":     domain.TraitExtraversion,
	"q_recommend_friends":   domain.TraitExtraversion,
	"q_trust_reviews":       domain.TraitAgreeableness,
	"q_value_service":       domain.TraitAgreeableness,
	"q_avoid_conflict":      domain.TraitAgreeableness,
	"q_impulse_buy":         domain.TraitVolatility,
	"q_regret_purchases":    domain.TraitVolatility,
	"q_mood_driven_choices": domain.TraitVolatility,
}

// segmentWeights holds the fixed weight pattern per known segment
// label over the five marketing axes, in order: sustainability, price,
// innovation, social influence, quality.
type segmentWeights [5]float64

const (
	wSustainability = iota
	wPrice
	wInnovation
	wSocial
	wQuality
)

var segmentPatterns = map[string]segmentWeights{
	"leader":          {0.55, 0.30, 0.90, 0.85, 0.75},
	"early_adopter":   {0.50, 0.40, 0.95, 0.70, 0.60},
	"mainstream":      {0.45, 0.60, 0.50, 0.55, 0.55},
	"value_conscious": {0.40, 0.95, 0.35, 0.40, 0.65},
	"traditionalist":  {0.35, 0.55, 0.15, 0.30, 0.80},
	"eco_conscious":   {0.95, 0.45, 0.55, 0.60, 0.70},
}

// neutralPattern is the fallback weighting for unknown segment labels.
var neutralPattern = segmentWeights{0.5, 0.5, 0.5, 0.5, 0.5}

// axisWeight maps each domain axis to the marketing-axis weight that
// drives its fill.
func axisWeight(w segmentWeights, a domain.DomainAxis) float64 {
	switch a {
	case domain.AxisPriceSensitivity:
		return w[wPrice]
	case domain.AxisBrandLoyalty:
		return w[wQuality]
	case domain.AxisInnovationSeek:
		return w[wInnovation]
	case domain.AxisSocialInfluence:
		return w[wSocial]
	}
	return 0.5
}

// segmentTraitScores derives the five trait scores from a segment's
// weight pattern, so segment-built and survey-built vectors share one
// trait basis.
func segmentTraitScores(w segmentWeights) domain.TraitScores {
	return domain.TraitScores{
		domain.TraitOpenness:          w[wInnovation],
		domain.TraitConscientiousness: (w[wQuality] + w[wPrice]) / 2,
		domain.TraitExtraversion:      w[wSocial],
		domain.TraitAgreeableness:     w[wSustainability],
		domain.TraitVolatility:        clamp01(1 - w[wQuality]*0.8),
	}
}

// KnownSegments lists the segment labels with fixed weight patterns.
func KnownSegments() []string {
	return []string{"leader", "early_adopter", "mainstream", "value_conscious", "traditionalist", "eco_conscious"}
}

func ValidSegment(label string) bool {
	_, ok := segmentPatterns[label]
	return ok
}
