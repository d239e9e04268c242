package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxpopai/personacore/internal/domain"
)

// GetRelevantContext gathers candidates from all three tiers, scores
// each by word overlap with the query, and returns the top maxResults
// ordered by (relevance desc, tier recency desc). Tier read failures
// degrade to fewer candidates, never to an error.
func (h *Hierarchical) GetRelevantContext(ctx context.Context, personaID uuid.UUID, query string, maxResults int) []domain.ContextCandidate {
	if maxResults <= 0 {
		maxResults = 5
	}

	var candidates []domain.ContextCandidate
	candidates = append(candidates, h.shortTermCandidates(ctx, personaID, query)...)
	candidates = append(candidates, h.midTermCandidates(ctx, personaID, query)...)
	if profile, ok := h.longTermCandidate(ctx, personaID); ok {
		candidates = append(candidates, profile)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Relevance != candidates[j].Relevance {
			return candidates[i].Relevance > candidates[j].Relevance
		}
		return candidates[i].Tier.Recency() > candidates[j].Tier.Recency()
	})

	seen := make(map[string]struct{}, len(candidates))
	out := make([]domain.ContextCandidate, 0, maxResults)
	for _, c := range candidates {
		norm := strings.ToLower(strings.Join(strings.Fields(c.Content), " "))
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, c)
		if len(out) >= maxResults {
			break
		}
	}
	return out
}

func (h *Hierarchical) shortTermCandidates(ctx context.Context, personaID uuid.UUID, query string) []domain.ContextCandidate {
	entries, err := h.store.ListByPrefix(ctx, shortTermPrefix(personaID))
	if err != nil {
		h.logger.Warn("short-term recall failed",
			zap.String("persona_id", personaID.String()), zap.Error(err))
		return nil
	}

	interactions := make([]domain.Interaction, 0, len(entries))
	for key, raw := range entries {
		var in domain.Interaction
		if err := json.Unmarshal(raw, &in); err != nil {
			h.logger.Warn("corrupt short-term entry", zap.String("key", key), zap.Error(err))
			continue
		}
		interactions = append(interactions, in)
	}
	sort.Slice(interactions, func(i, j int) bool {
		return interactions[i].Timestamp.After(interactions[j].Timestamp)
	})
	if len(interactions) > ShortTermRecall {
		interactions = interactions[:ShortTermRecall]
	}

	candidates := make([]domain.ContextCandidate, 0, len(interactions))
	for _, in := range interactions {
		content := fmt.Sprintf("User asked: %s | Persona replied: %s", in.Query, in.Response)
		candidates = append(candidates, domain.ContextCandidate{
			Content:   content,
			Tier:      domain.TierShort,
			Relevance: wordOverlap(query, in.Query+" "+in.Response),
			Timestamp: in.Timestamp,
		})
	}
	return candidates
}

func (h *Hierarchical) midTermCandidates(ctx context.Context, personaID uuid.UUID, query string) []domain.ContextCandidate {
	now := h.clock.Now()
	var candidates []domain.ContextCandidate
	for day := 0; day < MidTermRecallDays; day++ {
		date := now.AddDate(0, 0, -day).Format("2006-01-02")
		raw, err := h.store.Get(ctx, midTermKey(personaID, date))
		if err != nil {
			continue
		}
		var chain domain.DialogueChain
		if err := json.Unmarshal(raw, &chain); err != nil {
			h.logger.Warn("corrupt dialogue chain",
				zap.String("date", date), zap.Error(err))
			continue
		}
		if len(chain.Entries) == 0 {
			continue
		}

		var topics []string
		for _, e := range chain.Entries {
			topics = append(topics, e.Query)
		}
		content := fmt.Sprintf("On %s the conversation covered: %s", chain.Date, strings.Join(topics, "; "))
		candidates = append(candidates, domain.ContextCandidate{
			Content:   content,
			Tier:      domain.TierMid,
			Relevance: wordOverlap(query, strings.Join(topics, " ")),
			Timestamp: chain.UpdatedAt,
		})
	}
	return candidates
}

// wordOverlap is a Jaccard-style similarity over topic words: shared
// words divided by the union size.
func wordOverlap(a, b string) float64 {
	setA := topicWords(a)
	setB := topicWords(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
