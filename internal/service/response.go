package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxpopai/personacore/internal/codec"
	"github.com/voxpopai/personacore/internal/consistency"
	"github.com/voxpopai/personacore/internal/domain"
	"github.com/voxpopai/personacore/internal/memory"
	"github.com/voxpopai/personacore/internal/store"
)

var ErrGenerationFailed = errors.New("text generation failed")

const (
	// DefaultMaxRegenerations caps the correct-and-retry loop per turn.
	DefaultMaxRegenerations = 2
	// DefaultContextResults is how many memory candidates feed the
	// system prompt.
	DefaultContextResults = 5
)

// TurnResult is the outcome of one persona turn: the accepted
// response, the drift verdict it was accepted under, and how many
// regenerations the correction loop spent.
type TurnResult struct {
	Response      string                    `json:"response"`
	Report        domain.DriftReport        `json:"drift_report"`
	Regenerations int                       `json:"regenerations"`
	Context       []domain.ContextCandidate `json:"context,omitempty"`
}

// ResponseService runs the detect → decide → correct → re-measure
// loop around an opaque text generator.
type ResponseService struct {
	personas   domain.PersonaStore
	memory     *memory.Hierarchical
	controller *consistency.Controller
	generator  domain.TextGenerator
	codec      *codec.Codec
	logger     *zap.Logger

	maxRegenerations int
	contextResults   int
}

func NewResponseService(
	ps domain.PersonaStore,
	mem *memory.Hierarchical,
	ctrl *consistency.Controller,
	gen domain.TextGenerator,
	c *codec.Codec,
	logger *zap.Logger,
) *ResponseService {
	return &ResponseService{
		personas:         ps,
		memory:           mem,
		controller:       ctrl,
		generator:        gen,
		codec:            c,
		logger:           logger,
		maxRegenerations: DefaultMaxRegenerations,
		contextResults:   DefaultContextResults,
	}
}

// SetMaxRegenerations overrides the per-turn regeneration budget.
func (s *ResponseService) SetMaxRegenerations(n int) {
	if n >= 0 {
		s.maxRegenerations = n
	}
}

// RespondAsPersona executes one full turn: recall context, vary the
// base vector for the current conversational mood, generate, measure
// drift, and regenerate under a correction directive while drift
// stays above threshold. The least-drifting response wins if the
// budget runs out. The completed turn is stored across all memory
// tiers and tracked in the consistency history.
func (s *ResponseService) RespondAsPersona(ctx context.Context, personaID uuid.UUID, userMessage string, history []domain.Message) (*TurnResult, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no text generator configured", ErrGenerationFailed)
	}

	persona, err := s.personas.GetByID(ctx, personaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPersonaNotFound
		}
		return nil, err
	}

	contextCands := s.memory.GetRelevantContext(ctx, personaID, userMessage, s.contextResults)

	varied := s.controller.ApplyContextualVariation(persona.Vector, domain.ConversationContext{
		RecentMessages: history,
	})

	systemPrompt := s.buildSystemPrompt(persona, varied, contextCands)

	response, err := s.generator.Generate(ctx, systemPrompt, userMessage, history)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	report := s.controller.EvaluateDrift(ctx, history, persona.Vector, response)
	best := response
	bestReport := report
	regenerations := 0

	for report.NeedsCorrection && regenerations < s.maxRegenerations {
		regenerations++
		s.logger.Info("drift above threshold, regenerating",
			zap.String("persona_id", personaID.String()),
			zap.Float64("drift", report.DriftScore),
			zap.Int("attempt", regenerations))

		corrected := systemPrompt + "\n\n" + report.CorrectionPrompt
		response, err = s.generator.Generate(ctx, corrected, userMessage, history)
		if err != nil {
			// Keep the best response so far rather than failing the
			// whole turn on a retry error.
			s.logger.Warn("regeneration failed, keeping previous response", zap.Error(err))
			break
		}

		report = s.controller.EvaluateDrift(ctx, history, persona.Vector, response)
		if report.DriftScore < bestReport.DriftScore {
			best = response
			bestReport = report
		}
	}

	s.controller.TrackConsistency(personaID, bestReport.DriftScore)
	s.memory.StoreInteraction(ctx, personaID, userMessage, best, varied)

	return &TurnResult{
		Response:      best,
		Report:        bestReport,
		Regenerations: regenerations,
		Context:       contextCands,
	}, nil
}

// buildSystemPrompt renders the varied trait profile and recalled
// context into the generation instruction, in fixed trait order.
func (s *ResponseService) buildSystemPrompt(p *domain.Persona, varied domain.Vector, contextCands []domain.ContextCandidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a consumer with a stable personality. Stay in character.\n", p.Name)
	if p.Segment != "" {
		fmt.Fprintf(&b, "Consumer segment: %s.\n", p.Segment)
	}

	b.WriteString("Personality: ")
	b.WriteString(domain.PersonalityDescription(s.codec.Decode(varied)))
	b.WriteString("\n")

	if len(contextCands) > 0 {
		b.WriteString("What you remember:\n")
		for _, c := range contextCands {
			fmt.Fprintf(&b, "- %s\n", c.Content)
		}
	}

	b.WriteString("Answer as this person would, consistent with the personality and memories above.")
	return b.String()
}
