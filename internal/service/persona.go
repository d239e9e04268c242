package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxpopai/personacore/internal/codec"
	"github.com/voxpopai/personacore/internal/consistency"
	"github.com/voxpopai/personacore/internal/domain"
	"github.com/voxpopai/personacore/internal/memory"
	"github.com/voxpopai/personacore/internal/store"
)

var (
	ErrPersonaNotFound  = errors.New("persona not found")
	ErrPersonaNameEmpty = errors.New("name is required")
	ErrNoSourceData     = errors.New("survey responses or segment label required")
)

// PersonaService builds and manages persona profiles. The base vector
// is encoded once at creation and only regenerated when the caller
// supplies fresh source data.
type PersonaService struct {
	store      domain.PersonaStore
	codec      *codec.Codec
	memory     *memory.Hierarchical
	controller *consistency.Controller
	logger     *zap.Logger
}

func NewPersonaService(ps domain.PersonaStore, c *codec.Codec, mem *memory.Hierarchical, ctrl *consistency.Controller, logger *zap.Logger) *PersonaService {
	return &PersonaService{
		store:      ps,
		codec:      c,
		memory:     mem,
		controller: ctrl,
		logger:     logger,
	}
}

// CreateFromSurvey encodes trait-mapped survey responses into a base
// vector and persists the persona. Unmapped or missing answers
// degrade to neutral traits; creation itself fails only on storage
// errors.
func (s *PersonaService) CreateFromSurvey(ctx context.Context, name string, responses domain.SurveyResponses) (*domain.Persona, error) {
	if name == "" {
		return nil, ErrPersonaNameEmpty
	}

	p := &domain.Persona{
		Name:   name,
		Source: domain.SourceSurvey,
		Vector: s.codec.EncodeSurvey(responses),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("persona created from survey",
		zap.String("persona_id", p.ID.String()),
		zap.Int("answers", len(responses.Answers)))
	return p, nil
}

// CreateFromSegment builds a persona from a named consumer segment.
// Unknown labels fall back to a neutral weighting pattern rather than
// failing.
func (s *PersonaService) CreateFromSegment(ctx context.Context, name, segment string, data domain.SegmentData) (*domain.Persona, error) {
	if name == "" {
		return nil, ErrPersonaNameEmpty
	}
	if segment == "" {
		return nil, ErrNoSourceData
	}

	if !codec.ValidSegment(segment) {
		s.logger.Warn("unknown segment label, using neutral pattern",
			zap.String("segment", segment))
	}

	p := &domain.Persona{
		Name:    name,
		Source:  domain.SourceSegment,
		Segment: segment,
		Vector:  s.codec.EncodeSegment(segment, data),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("persona created from segment",
		zap.String("persona_id", p.ID.String()),
		zap.String("segment", segment))
	return p, nil
}

func (s *PersonaService) Get(ctx context.Context, id uuid.UUID) (*domain.Persona, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPersonaNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PersonaService) List(ctx context.Context, limit int) ([]domain.Persona, error) {
	return s.store.List(ctx, limit)
}

// RebuildFromSurvey re-encodes the base vector from fresh survey data,
// replacing the stored one.
func (s *PersonaService) RebuildFromSurvey(ctx context.Context, id uuid.UUID, responses domain.SurveyResponses) (*domain.Persona, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Vector = s.codec.EncodeSurvey(responses)
	if err := s.store.UpdateVector(ctx, id, p.Vector); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPersonaNotFound
		}
		return nil, err
	}

	s.logger.Info("persona vector rebuilt", zap.String("persona_id", id.String()))
	return p, nil
}

// Delete removes the persona profile and clears every memory tier.
func (s *PersonaService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPersonaNotFound
		}
		return err
	}
	s.memory.ClearPersonaMemory(ctx, id)
	s.controller.ForgetPersona(id)
	return nil
}

// DecodeTraits decodes an already-loaded persona's base vector.
func (s *PersonaService) DecodeTraits(p *domain.Persona) domain.TraitScores {
	return s.codec.Decode(p.Vector)
}

// TraitProfile decodes the persona's base vector into trait scores.
func (s *PersonaService) TraitProfile(ctx context.Context, id uuid.UUID) (domain.TraitScores, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.codec.Decode(p.Vector), nil
}
