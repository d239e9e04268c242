package consistency

import (
	"strings"

	"github.com/voxpopai/personacore/internal/domain"
)

// Keyword sets behind the three context modifiers. Hit rates are
// normalized by message count, so modifier magnitude does not grow
// with conversation length.
var (
	positiveWords = []string{"great", "love", "excellent", "happy", "thanks", "perfect", "wonderful", "good"}
	negativeWords = []string{"bad", "hate", "terrible", "awful", "disappointed", "annoyed", "wrong", "problem"}
	formalWords   = []string{"regarding", "furthermore", "therefore", "sincerely", "pursuant", "accordingly", "kindly"}
	informalWords = []string{"yeah", "cool", "gonna", "wanna", "lol", "hey", "stuff", "kinda"}
)

// longConversationLen is the message count past which energy starts to
// sag, down to energyFloorPenalty at twice that length.
const (
	longConversationLen = 20
	energyFloorPenalty  = 0.5
)

// contextModifiers are the three scalars derived from recent
// conversation, each in [-1, 1].
type contextModifiers struct {
	Mood      float64
	Energy    float64
	Formality float64
}

// ApplyContextualVariation returns a copy of the base vector with a
// bounded, mood/energy/formality-driven adjustment on the matching
// trait segments. It is a pure function of (base, context): variation
// is always derived from the stored base vector, never from a
// previously varied one, so successive turns cannot compound drift.
//
// Every dimension of the result stays within 2×variationRange of the
// corresponding base component, even after re-normalization.
func (c *Controller) ApplyContextualVariation(base domain.Vector, convCtx domain.ConversationContext) domain.Vector {
	if len(base) == 0 {
		return base.Clone()
	}

	mods := c.deriveModifiers(convCtx)
	vr := c.variationRange

	varied := base.Clone()
	scaleSegment(varied, base, domain.TraitExtraversion, mods.Energy, vr)
	scaleSegment(varied, base, domain.TraitVolatility, mods.Mood, vr)
	scaleSegment(varied, base, domain.TraitConscientiousness, mods.Formality*0.5, vr)

	out := varied.Normalized()
	for i := range out {
		out[i] = clampAround(out[i], base[i], 2*vr)
	}
	return out
}

// scaleSegment applies v[i] *= (1 + modifier*vr) across one trait's
// index range, clamping each value to [base[i]-vr, base[i]+vr].
func scaleSegment(v, base domain.Vector, t domain.Trait, modifier, vr float64) {
	if modifier == 0 {
		return
	}
	start, end := domain.TraitSegment(t)
	if end > len(v) {
		end = len(v)
	}
	factor := 1 + modifier*vr
	for i := start; i < end; i++ {
		v[i] = clampAround(base[i]*factor, base[i], vr)
	}
}

func clampAround(x, center, radius float64) float64 {
	if x < center-radius {
		return center - radius
	}
	if x > center+radius {
		return center + radius
	}
	return x
}

func (c *Controller) deriveModifiers(convCtx domain.ConversationContext) contextModifiers {
	msgs := convCtx.RecentMessages
	if len(msgs) == 0 {
		return contextModifiers{Energy: c.timeOfDayEnergy()}
	}

	var pos, neg, formal, informal int
	for _, m := range msgs {
		text := strings.ToLower(m.Content)
		pos += countHits(text, positiveWords)
		neg += countHits(text, negativeWords)
		formal += countHits(text, formalWords)
		informal += countHits(text, informalWords)
	}

	n := float64(len(msgs))
	mood := clampSigned(float64(pos-neg) / n)
	formality := clampSigned(float64(formal-informal) / n)

	energy := c.timeOfDayEnergy()
	if len(msgs) > longConversationLen {
		over := float64(len(msgs)-longConversationLen) / longConversationLen
		if over > 1 {
			over = 1
		}
		energy -= energyFloorPenalty * over
	}
	energy = clampSigned(energy)

	return contextModifiers{Mood: mood, Energy: energy, Formality: formality}
}

// timeOfDayEnergy is a coarse circadian heuristic on the injected
// clock.
func (c *Controller) timeOfDayEnergy() float64 {
	switch hour := c.clock.Now().Hour(); {
	case hour >= 6 && hour < 12:
		return 0.3
	case hour >= 12 && hour < 18:
		return 0.1
	case hour >= 18 && hour < 23:
		return -0.1
	default:
		return -0.3
	}
}

func countHits(text string, words []string) int {
	hits := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			hits++
		}
	}
	return hits
}

func clampSigned(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
