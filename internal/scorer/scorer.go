// Package scorer converts generated text into persona-comparable
// vectors and measures the drift between them. The default vectorizer
// is a keyword heuristic; it satisfies domain.TextToVector so an
// embedding model can replace it without touching the controller or
// the memory tiers.
package scorer

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"unicode"

	"github.com/voxpopai/personacore/internal/codec"
	"github.com/voxpopai/personacore/internal/domain"
)

// noiseScale bounds the jitter added to heuristic vectors so two texts
// with identical keyword profiles still produce distinct, comparable
// vectors instead of degenerate equal ones.
const noiseScale = 0.03

// sentenceLenCeiling is the average sentence length (in words) that
// maps to a full structure score for conscientiousness.
const sentenceLenCeiling = 25.0

// Keyword is the heuristic text vectorizer. It never returns an
// error; empty or unusable text degrades to a neutral vector.
type Keyword struct {
	codec *codec.Codec

	mu  sync.Mutex
	rng *rand.Rand
}

var _ domain.TextToVector = (*Keyword)(nil)

// NewKeyword returns a keyword vectorizer sharing the codec's segment
// basis. The seed drives only the anti-degeneracy jitter.
func NewKeyword(c *codec.Codec, seed int64) *Keyword {
	return &Keyword{
		codec: c,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Vectorize extracts lightweight linguistic features from text, maps
// them into the five-segment trait layout, adds small bounded noise,
// and normalizes.
func (k *Keyword) Vectorize(_ context.Context, text string) (domain.Vector, error) {
	scores := k.featureScores(text)
	v := k.codec.FromTraitScores(scores)

	k.mu.Lock()
	for i := range v {
		v[i] += noiseScale * (k.rng.Float64() - 0.5)
	}
	k.mu.Unlock()

	return v.Normalized(), nil
}

func (k *Keyword) featureScores(text string) domain.TraitScores {
	words := tokenize(text)
	if len(words) == 0 {
		return domain.NeutralTraitScores()
	}

	hits := make(map[domain.Trait]int, len(traitKeywords))
	for _, w := range words {
		for trait, cues := range traitKeywords {
			for _, cue := range cues {
				if w == cue {
					hits[trait]++
				}
			}
		}
	}

	scores := make(domain.TraitScores, len(traitKeywords))
	for trait := range traitKeywords {
		rate := float64(hits[trait]) / float64(len(words))
		scores[trait] = clamp01(rate * keywordGain)
	}

	// Sentence length stands in for structural discipline.
	structure := clamp01(averageSentenceLen(text) / sentenceLenCeiling)
	scores[domain.TraitConscientiousness] = clamp01(
		0.6*scores[domain.TraitConscientiousness] + 0.4*structure)

	return scores
}

// Drift is 1 - cosine similarity, in [0, 1]. Mismatched dimensions or
// a zero-magnitude side return 1.0: the fail-closed default that
// favors triggering a correction over silently passing.
func Drift(a, b domain.Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0
	}
	if a.IsZero() || b.IsZero() {
		return 1.0
	}
	d := 1 - domain.CosineSimilarity(a, b)
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

// DriftAgainstHistory scores every assistant-authored entry against
// the base vector and returns the mean drift plus the sample count.
// samples == 0 means no assistant text was available; callers must
// check it instead of reading the score, so "no data" is never
// conflated with either end of the drift scale.
func DriftAgainstHistory(ctx context.Context, vec domain.TextToVector, history []domain.Message, base domain.Vector) (score float64, samples int) {
	var sum float64
	for _, msg := range history {
		if msg.Role != domain.RoleAssistant || msg.Content == "" {
			continue
		}
		v, err := vec.Vectorize(ctx, msg.Content)
		if err != nil {
			// A failed vectorization counts as maximum drift rather
			// than skewing the mean toward consistency.
			sum += 1.0
			samples++
			continue
		}
		sum += Drift(base, v)
		samples++
	}
	if samples == 0 {
		return 0, 0
	}
	return sum / float64(samples), samples
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

func averageSentenceLen(text string) float64 {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	var total, count float64
	for _, s := range sentences {
		n := len(strings.Fields(s))
		if n == 0 {
			continue
		}
		total += float64(n)
		count++
	}
	if count == 0 {
		return 0
	}
	return total / count
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
