package consistency

import (
	"fmt"
	"strings"

	"github.com/voxpopai/personacore/internal/domain"
)

// reinforcements holds the trait-specific regeneration instruction for
// a high-scoring (>= 0.5) and a low-scoring profile value.
var reinforcements = map[domain.Trait][2]string{
	domain.TraitOpenness: {
		"Show genuine curiosity; mention trying or exploring unfamiliar options.",
		"Stay with familiar, proven choices; avoid chasing novelty.",
	},
	domain.TraitConscientiousness: {
		"Be structured: compare options, reference plans or criteria.",
		"Keep it loose and spontaneous; skip elaborate planning talk.",
	},
	domain.TraitExtraversion: {
		"Be expressive and social; reference sharing opinions with others.",
		"Keep a reserved, measured tone; avoid effusive social language.",
	},
	domain.TraitAgreeableness: {
		"Be warm and accommodating; acknowledge the other point of view.",
		"Be direct and skeptical; push back where warranted.",
	},
	domain.TraitVolatility: {
		"Let emotional reactions show; strong likes and dislikes are fine.",
		"Stay calm and even; avoid emotional spikes.",
	},
}

// buildCorrectionPrompt synthesizes the regeneration directive in a
// deterministic order: violated traits first (fixed trait order), then
// the full target profile in prose, then per-trait reinforcement
// bullets (fixed trait order).
func buildCorrectionPrompt(baseScores domain.TraitScores, violations []domain.TraitViolation) string {
	var b strings.Builder

	b.WriteString("Your previous response drifted from the persona's profile.\n")

	if len(violations) > 0 {
		b.WriteString("Traits off target:\n")
		for _, v := range violations {
			direction := "higher"
			if v.Difference < 0 {
				direction = "lower"
			}
			fmt.Fprintf(&b, "- %s came across %s than expected (expected %.2f, read %.2f)\n",
				strings.ReplaceAll(string(v.Trait), "_", " "), direction, v.Expected, v.Actual)
		}
	}

	b.WriteString("Target profile: ")
	b.WriteString(domain.PersonalityDescription(baseScores))
	b.WriteString("\n")

	b.WriteString("When regenerating:\n")
	for _, t := range domain.AllTraits() {
		pair := reinforcements[t]
		instruction := pair[1]
		if baseScores[t] >= 0.5 {
			instruction = pair[0]
		}
		fmt.Fprintf(&b, "- %s\n", instruction)
	}

	return b.String()
}
