package domain

import (
	"fmt"
	"strings"
)

// traitDescriptors holds the fixed threshold rules used to render a
// trait score as prose: one descriptor above 0.7, an alternate below
// 0.3, and a moderate wording in between.
var traitDescriptors = map[Trait][3]string{
	TraitOpenness:          {"eager to explore new products and ideas", "moderately curious", "set in familiar habits"},
	TraitConscientiousness: {"methodical and plans purchases carefully", "reasonably organized", "spontaneous and unstructured"},
	TraitExtraversion:      {"outgoing and vocal about opinions", "socially balanced", "reserved and private"},
	TraitAgreeableness:     {"warm, trusting and cooperative", "even-tempered", "skeptical and hard to win over"},
	TraitVolatility:        {"emotionally reactive with strong swings", "occasionally moody", "calm and emotionally steady"},
}

const (
	highTraitThreshold = 0.7
	lowTraitThreshold  = 0.3
)

// TraitDescriptor renders one trait score as a phrase using the fixed
// threshold rules.
func TraitDescriptor(t Trait, score float64) string {
	d, ok := traitDescriptors[t]
	if !ok {
		return "unremarkable"
	}
	switch {
	case score > highTraitThreshold:
		return d[0]
	case score < lowTraitThreshold:
		return d[2]
	default:
		return d[1]
	}
}

// PersonalityDescription assembles a textual profile from trait
// scores, in fixed trait order.
func PersonalityDescription(scores TraitScores) string {
	var parts []string
	for _, t := range AllTraits() {
		score, ok := scores[t]
		if !ok {
			score = 0.5
		}
		parts = append(parts, fmt.Sprintf("%s: %s (%.2f)", traitLabel(t), TraitDescriptor(t, score), score))
	}
	return strings.Join(parts, "; ")
}

func traitLabel(t Trait) string {
	return strings.ReplaceAll(string(t), "_", " ")
}
