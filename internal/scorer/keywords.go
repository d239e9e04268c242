package scorer

import "github.com/voxpopai/personacore/internal/domain"

// traitKeywords are the per-trait cue words counted by the heuristic
// scorer. These are intentionally simple lexical signals, not
// semantics; swap in an embedding vectorizer for anything stronger.
var traitKeywords = map[domain.Trait][]string{
	domain.TraitOpenness: {
		"new", "innovative", "explore", "curious", "different",
		"interesting", "discover", "creative", "imagine", "unusual",
	},
	domain.TraitConscientiousness: {
		"plan", "organize", "careful", "research", "compare",
		"budget", "detail", "schedule", "thorough", "precise",
	},
	domain.TraitExtraversion: {
		"we", "everyone", "share", "friends", "excited", "love",
		"community", "together", "fun", "party",
	},
	domain.TraitAgreeableness: {
		"agree", "appreciate", "thanks", "helpful", "understand",
		"kind", "support", "happy", "glad", "welcome",
	},
	domain.TraitVolatility: {
		"amazing", "terrible", "hate", "worry", "stress", "suddenly",
		"can't", "never", "always", "furious",
	},
}

// keywordGain converts a raw per-word hit rate into a [0,1] trait
// score. At gain 6, roughly one cue word in six pushes a trait to its
// ceiling.
const keywordGain = 6.0
