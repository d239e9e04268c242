// Package memory implements tiered recall for personas: a short-term
// tier of raw interactions (2h TTL), a mid-term tier of daily dialogue
// chains (7d TTL), and a permanent long-term record of vector history
// and drift metrics. All tiers live behind a key-value store that
// degrades to a process-local fallback, so recall loses depth rather
// than failing.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxpopai/personacore/internal/codec"
	"github.com/voxpopai/personacore/internal/domain"
)

const (
	// ShortTermTTL bounds the short-term tier.
	ShortTermTTL = 2 * time.Hour
	// MidTermTTL bounds dialogue chains.
	MidTermTTL = 7 * 24 * time.Hour
	// VectorHistoryCap bounds the long-term vector history; the oldest
	// snapshot is evicted first.
	VectorHistoryCap = 100
	// ShortTermRecall is how many recent interactions feed context
	// gathering.
	ShortTermRecall = 10
	// MidTermRecallDays is how many calendar days of chains feed
	// context gathering.
	MidTermRecallDays = 7
	// longTermBaseRelevance is the fixed relevance of the synthetic
	// profile candidate.
	longTermBaseRelevance = 0.5
)

// Hierarchical is the three-tier persona memory service.
type Hierarchical struct {
	store  domain.KeyValueStore
	codec  *codec.Codec
	clock  domain.Clock
	logger *zap.Logger

	// Per-persona serialization: the mid-term chain append and the
	// long-term history append are read-modify-write sequences that
	// would lose updates under concurrent stores for one persona.
	lockMu sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex
}

func New(store domain.KeyValueStore, c *codec.Codec, clock domain.Clock, logger *zap.Logger) *Hierarchical {
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &Hierarchical{
		store:  store,
		codec:  c,
		clock:  clock,
		logger: logger,
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

func shortTermKey(personaID uuid.UUID, ts time.Time) string {
	return fmt.Sprintf("st:%s:%d", personaID, ts.UnixNano())
}

func shortTermPrefix(personaID uuid.UUID) string {
	return fmt.Sprintf("st:%s:", personaID)
}

func midTermKey(personaID uuid.UUID, date string) string {
	return fmt.Sprintf("mt:%s:%s", personaID, date)
}

func midTermPrefix(personaID uuid.UUID) string {
	return fmt.Sprintf("mt:%s:", personaID)
}

func longTermKey(personaID uuid.UUID) string {
	return fmt.Sprintf("lt:%s", personaID)
}

// StoreInteraction writes a completed turn into all three tiers.
// Tier failures are independent: each is logged and the remaining
// tiers still commit, so the caller never sees an error for a partial
// write.
func (h *Hierarchical) StoreInteraction(ctx context.Context, personaID uuid.UUID, query, response string, snapshot domain.Vector) {
	now := h.clock.Now()
	unlock := h.lock(personaID)
	defer unlock()

	if err := h.storeShortTerm(ctx, personaID, query, response, snapshot, now); err != nil {
		h.logger.Warn("short-term store failed",
			zap.String("persona_id", personaID.String()), zap.Error(err))
	}
	if err := h.storeMidTerm(ctx, personaID, query, response, now); err != nil {
		h.logger.Warn("mid-term store failed",
			zap.String("persona_id", personaID.String()), zap.Error(err))
	}
	if err := h.storeLongTerm(ctx, personaID, snapshot, now); err != nil {
		h.logger.Warn("long-term store failed",
			zap.String("persona_id", personaID.String()), zap.Error(err))
	}
}

func (h *Hierarchical) storeShortTerm(ctx context.Context, personaID uuid.UUID, query, response string, snapshot domain.Vector, now time.Time) error {
	interaction := domain.Interaction{
		PersonaID: personaID,
		Query:     query,
		Response:  response,
		Vector:    snapshot,
		Timestamp: now,
	}
	data, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}
	return h.store.SetWithTTL(ctx, shortTermKey(personaID, now), data, ShortTermTTL)
}

func (h *Hierarchical) storeMidTerm(ctx context.Context, personaID uuid.UUID, query, response string, now time.Time) error {
	date := now.Format("2006-01-02")
	key := midTermKey(personaID, date)

	chain := domain.DialogueChain{PersonaID: personaID, Date: date}
	if raw, err := h.store.Get(ctx, key); err == nil {
		if jsonErr := json.Unmarshal(raw, &chain); jsonErr != nil {
			h.logger.Warn("corrupt dialogue chain, starting fresh",
				zap.String("key", key), zap.Error(jsonErr))
			chain = domain.DialogueChain{PersonaID: personaID, Date: date}
		}
	}

	entry := domain.ChainEntry{Query: query, Response: response, Timestamp: now}
	if len(chain.Entries) > 0 && IsRelatedTopic(query, chain.Entries[len(chain.Entries)-1].Query) {
		chain.Entries = append(chain.Entries, entry)
	} else {
		// Topic changed (or the day is new): the previous chain is
		// superseded by one containing only this entry.
		chain.Entries = []domain.ChainEntry{entry}
	}
	chain.UpdatedAt = now

	data, err := json.Marshal(chain)
	if err != nil {
		return fmt.Errorf("marshal dialogue chain: %w", err)
	}
	return h.store.SetWithTTL(ctx, key, data, MidTermTTL)
}

func (h *Hierarchical) storeLongTerm(ctx context.Context, personaID uuid.UUID, snapshot domain.Vector, now time.Time) error {
	key := longTermKey(personaID)

	record := domain.LongTermRecord{PersonaID: personaID}
	if raw, err := h.store.Get(ctx, key); err == nil {
		if jsonErr := json.Unmarshal(raw, &record); jsonErr != nil {
			h.logger.Warn("corrupt long-term record, starting fresh",
				zap.String("key", key), zap.Error(jsonErr))
			record = domain.LongTermRecord{PersonaID: personaID}
		}
	}

	record.VectorHistory = append(record.VectorHistory, domain.VectorSnapshot{
		Vector:    snapshot,
		Timestamp: now,
	})
	if len(record.VectorHistory) > VectorHistoryCap {
		record.VectorHistory = record.VectorHistory[len(record.VectorHistory)-VectorHistoryCap:]
	}
	record.Drift = computeDriftMetrics(record.VectorHistory)
	record.UpdatedAt = now

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal long-term record: %w", err)
	}
	return h.store.SetPersistent(ctx, key, data)
}

// LongTermRecord loads the persona's permanent record, or an empty one
// if none exists yet.
func (h *Hierarchical) LongTermRecord(ctx context.Context, personaID uuid.UUID) domain.LongTermRecord {
	record := domain.LongTermRecord{PersonaID: personaID}
	raw, err := h.store.Get(ctx, longTermKey(personaID))
	if err != nil {
		return record
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		h.logger.Warn("corrupt long-term record",
			zap.String("persona_id", personaID.String()), zap.Error(err))
	}
	return record
}

// ClearPersonaMemory deletes every tier's keys for a persona from the
// backing store (the resilient store fans deletes out to the fallback
// as well). Best effort: deletion errors are logged, not returned.
func (h *Hierarchical) ClearPersonaMemory(ctx context.Context, personaID uuid.UUID) {
	unlock := h.lock(personaID)
	defer h.releaseLock(personaID)
	defer unlock()

	keys := []string{longTermKey(personaID)}
	for _, prefix := range []string{shortTermPrefix(personaID), midTermPrefix(personaID)} {
		entries, err := h.store.ListByPrefix(ctx, prefix)
		if err != nil {
			h.logger.Warn("listing persona keys failed",
				zap.String("prefix", prefix), zap.Error(err))
			continue
		}
		for key := range entries {
			keys = append(keys, key)
		}
	}

	if err := h.store.Delete(ctx, keys...); err != nil {
		h.logger.Warn("clearing persona memory failed",
			zap.String("persona_id", personaID.String()), zap.Error(err))
	}
}

// computeDriftMetrics summarizes consecutive-pair movement through
// vector space, each distance normalized per dimension (RMS) so it is
// comparable across vector sizes.
func computeDriftMetrics(history []domain.VectorSnapshot) domain.DriftMetrics {
	metrics := domain.DriftMetrics{Trend: domain.TrendStable}
	if len(history) < 2 {
		return metrics
	}

	distances := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		distances = append(distances, rmsDistance(history[i-1].Vector, history[i].Vector))
	}

	var sum float64
	for _, d := range distances {
		sum += d
		if d > metrics.MaxDrift {
			metrics.MaxDrift = d
		}
	}
	metrics.AverageDrift = sum / float64(len(distances))
	metrics.Trend = driftTrend(distances)
	return metrics
}

// rmsDistance is the per-dimension root-mean-square distance between
// two vectors, or 1 if their dimensions differ (fail closed).
func rmsDistance(a, b domain.Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

const trendWindow = 10

// driftTrend compares the last trendWindow distances against the
// older mean: more than 20% above is degrading, more than 20% below
// is improving.
func driftTrend(distances []float64) domain.DriftTrend {
	if len(distances) <= trendWindow {
		return domain.TrendStable
	}

	split := len(distances) - trendWindow
	var older, recent float64
	for _, d := range distances[:split] {
		older += d
	}
	older /= float64(split)
	for _, d := range distances[split:] {
		recent += d
	}
	recent /= float64(trendWindow)

	if older == 0 {
		if recent > 0 {
			return domain.TrendDegrading
		}
		return domain.TrendStable
	}

	switch ratio := recent / older; {
	case ratio > 1.2:
		return domain.TrendDegrading
	case ratio < 0.8:
		return domain.TrendImproving
	default:
		return domain.TrendStable
	}
}

func (h *Hierarchical) lock(personaID uuid.UUID) func() {
	h.lockMu.Lock()
	mu, ok := h.locks[personaID]
	if !ok {
		mu = &sync.Mutex{}
		h.locks[personaID] = mu
	}
	h.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// releaseLock drops the persona's lock entry so the map does not grow
// with the persona key space. Callers must no longer hold the lock.
func (h *Hierarchical) releaseLock(personaID uuid.UUID) {
	h.lockMu.Lock()
	delete(h.locks, personaID)
	h.lockMu.Unlock()
}
