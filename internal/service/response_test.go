package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxpopai/personacore/internal/codec"
	"github.com/voxpopai/personacore/internal/consistency"
	"github.com/voxpopai/personacore/internal/domain"
	"github.com/voxpopai/personacore/internal/kv"
	"github.com/voxpopai/personacore/internal/llm"
	"github.com/voxpopai/personacore/internal/memory"
)

// seqVectorizer returns scripted vectors in order, repeating the last
// one when the script runs out.
type seqVectorizer struct {
	vectors []domain.Vector
	calls   int
}

func (s *seqVectorizer) Vectorize(_ context.Context, _ string) (domain.Vector, error) {
	idx := s.calls
	if idx >= len(s.vectors) {
		idx = len(s.vectors) - 1
	}
	s.calls++
	return s.vectors[idx].Clone(), nil
}

func offProfileVector() domain.Vector {
	v := make(domain.Vector, domain.VectorDim)
	start, end := domain.TraitSegment(domain.TraitVolatility)
	for i := start; i < end; i++ {
		v[i] = 1
	}
	return v.Normalized()
}

// failAfterGenerator delegates a fixed number of calls to the inner
// client, then errors, so a test can fail only the regeneration.
type failAfterGenerator struct {
	inner *llm.MockClient
	allow int
	calls int
}

func (g *failAfterGenerator) Generate(ctx context.Context, systemPrompt, userMessage string, history []domain.Message) (string, error) {
	g.calls++
	if g.calls > g.allow {
		return "", errors.New("provider timeout")
	}
	return g.inner.Generate(ctx, systemPrompt, userMessage, history)
}

func newResponseFixture(vectorizer domain.TextToVector, gen domain.TextGenerator) (*ResponseService, *mockPersonaStore, *kv.Fallback) {
	ps := newMockPersonaStore()
	c := codec.New(1)
	fallback := kv.NewFallback(0, nil)
	mem := memory.New(fallback, c, nil, zap.NewNop())
	ctrl := consistency.New(c, vectorizer, zap.NewNop(), consistency.Options{})
	svc := NewResponseService(ps, mem, ctrl, gen, c, zap.NewNop())
	return svc, ps, fallback
}

func seedPersona(t *testing.T, ps *mockPersonaStore) *domain.Persona {
	t.Helper()
	p := &domain.Persona{
		Name:    "Dana",
		Source:  domain.SourceSegment,
		Segment: "early_adopter",
		Vector:  codec.New(1).EncodeSegment("early_adopter", nil),
	}
	if err := ps.Create(context.Background(), p); err != nil {
		t.Fatalf("seeding persona: %v", err)
	}
	return p
}

func TestRespondAsPersonaNoDrift(t *testing.T) {
	base := codec.New(1).EncodeSegment("early_adopter", nil)
	vec := &seqVectorizer{vectors: []domain.Vector{base}}
	gen := llm.NewMockClient()
	gen.Response = "An on-profile reply."

	svc, ps, fallback := newResponseFixture(vec, gen)
	p := seedPersona(t, ps)

	result, err := svc.RespondAsPersona(context.Background(), p.ID, "What do you think of this gadget?", nil)
	if err != nil {
		t.Fatalf("RespondAsPersona: %v", err)
	}

	if result.Response != "An on-profile reply." {
		t.Errorf("response = %q", result.Response)
	}
	if result.Regenerations != 0 {
		t.Errorf("regenerations = %d, want 0", result.Regenerations)
	}
	if result.Report.NeedsCorrection {
		t.Error("no correction expected for an on-profile reply")
	}
	if len(gen.GenerateCalls) != 1 {
		t.Errorf("generator calls = %d, want 1", len(gen.GenerateCalls))
	}

	// The turn is committed to memory.
	if fallback.Len() == 0 {
		t.Error("interaction should be stored across memory tiers")
	}
}

func TestRespondAsPersonaSystemPromptContents(t *testing.T) {
	base := codec.New(1).EncodeSegment("early_adopter", nil)
	vec := &seqVectorizer{vectors: []domain.Vector{base}}
	gen := llm.NewMockClient()

	svc, ps, _ := newResponseFixture(vec, gen)
	p := seedPersona(t, ps)

	if _, err := svc.RespondAsPersona(context.Background(), p.ID, "hello there", nil); err != nil {
		t.Fatalf("RespondAsPersona: %v", err)
	}

	prompt := gen.GenerateCalls[0].SystemPrompt
	if !strings.Contains(prompt, "You are Dana") {
		t.Errorf("prompt missing persona name: %s", prompt)
	}
	if !strings.Contains(prompt, "early_adopter") {
		t.Errorf("prompt missing segment: %s", prompt)
	}
	if !strings.Contains(prompt, "Personality:") {
		t.Errorf("prompt missing personality profile: %s", prompt)
	}
}

func TestRespondAsPersonaRegeneratesOnDrift(t *testing.T) {
	base := codec.New(1).EncodeSegment("early_adopter", nil)
	off := offProfileVector()

	// First candidate drifts, the regenerated one lands on profile.
	vec := &seqVectorizer{vectors: []domain.Vector{off, base}}
	gen := llm.NewMockClient()
	gen.Responses = []string{"A drifting reply.", "A corrected reply."}

	svc, ps, _ := newResponseFixture(vec, gen)
	p := seedPersona(t, ps)

	result, err := svc.RespondAsPersona(context.Background(), p.ID, "What about this one?", nil)
	if err != nil {
		t.Fatalf("RespondAsPersona: %v", err)
	}

	if result.Regenerations != 1 {
		t.Errorf("regenerations = %d, want 1", result.Regenerations)
	}
	if result.Response != "A corrected reply." {
		t.Errorf("response = %q, want the corrected reply", result.Response)
	}
	if result.Report.NeedsCorrection {
		t.Error("final report should be below threshold")
	}

	if len(gen.GenerateCalls) != 2 {
		t.Fatalf("generator calls = %d, want 2", len(gen.GenerateCalls))
	}
	if !strings.Contains(gen.GenerateCalls[1].SystemPrompt, "drifted from the persona's profile") {
		t.Error("regeneration prompt should carry the correction directive")
	}
}

func TestRespondAsPersonaRegenerationBudget(t *testing.T) {
	off := offProfileVector()

	// Every candidate drifts: the loop must stop at the budget and
	// return the least-drifting response.
	vec := &seqVectorizer{vectors: []domain.Vector{off}}
	gen := llm.NewMockClient()
	gen.Response = "Still drifting."

	svc, ps, _ := newResponseFixture(vec, gen)
	p := seedPersona(t, ps)

	result, err := svc.RespondAsPersona(context.Background(), p.ID, "Thoughts?", nil)
	if err != nil {
		t.Fatalf("RespondAsPersona: %v", err)
	}

	if result.Regenerations != DefaultMaxRegenerations {
		t.Errorf("regenerations = %d, want %d", result.Regenerations, DefaultMaxRegenerations)
	}
	if !result.Report.NeedsCorrection {
		t.Error("report should still flag drift when the budget runs out")
	}
	if len(gen.GenerateCalls) != 1+DefaultMaxRegenerations {
		t.Errorf("generator calls = %d, want %d", len(gen.GenerateCalls), 1+DefaultMaxRegenerations)
	}
}

func TestRespondAsPersonaKeepsBestResponse(t *testing.T) {
	base := codec.New(1).EncodeSegment("early_adopter", nil)
	off := offProfileVector()

	// The second attempt drifts less than the others but still above
	// threshold, so the loop spends the full budget and the second
	// response must win.
	mid := make(domain.Vector, domain.VectorDim)
	for i := range mid {
		mid[i] = 0.2*base[i] + 0.8*off[i]
	}
	mid = mid.Normalized()

	vec := &seqVectorizer{vectors: []domain.Vector{off, mid, off}}
	gen := llm.NewMockClient()
	gen.Responses = []string{"Worst reply.", "Closest reply.", "Bad again."}

	svc, ps, _ := newResponseFixture(vec, gen)
	p := seedPersona(t, ps)

	result, err := svc.RespondAsPersona(context.Background(), p.ID, "And this?", nil)
	if err != nil {
		t.Fatalf("RespondAsPersona: %v", err)
	}

	if result.Response != "Closest reply." {
		t.Errorf("response = %q, want the least-drifting reply", result.Response)
	}
	if result.Regenerations != DefaultMaxRegenerations {
		t.Errorf("regenerations = %d, want %d", result.Regenerations, DefaultMaxRegenerations)
	}
}

func TestRespondAsPersonaGenerationFailure(t *testing.T) {
	vec := &seqVectorizer{vectors: []domain.Vector{offProfileVector()}}
	gen := llm.NewMockClient()
	gen.Err = errors.New("provider timeout")

	svc, ps, _ := newResponseFixture(vec, gen)
	p := seedPersona(t, ps)

	_, err := svc.RespondAsPersona(context.Background(), p.ID, "Hello?", nil)
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("error = %v, want ErrGenerationFailed", err)
	}
}

func TestRespondAsPersonaRegenerationFailureKeepsFirst(t *testing.T) {
	off := offProfileVector()

	vec := &seqVectorizer{vectors: []domain.Vector{off}}
	inner := llm.NewMockClient()
	inner.Response = "The only reply."
	gen := &failAfterGenerator{inner: inner, allow: 1}

	svc, ps, _ := newResponseFixture(vec, gen)
	p := seedPersona(t, ps)

	result, err := svc.RespondAsPersona(context.Background(), p.ID, "Hi", nil)
	if err != nil {
		t.Fatalf("a retry error should not fail the turn: %v", err)
	}

	if result.Response != "The only reply." {
		t.Errorf("response = %q, want the first reply kept", result.Response)
	}
	if result.Regenerations != 1 {
		t.Errorf("regenerations = %d, want 1", result.Regenerations)
	}
	if !result.Report.NeedsCorrection {
		t.Error("report should still flag the unresolved drift")
	}
}

func TestRespondAsPersonaNoGeneratorConfigured(t *testing.T) {
	vec := &seqVectorizer{vectors: []domain.Vector{offProfileVector()}}
	svc, ps, _ := newResponseFixture(vec, nil)
	p := seedPersona(t, ps)

	_, err := svc.RespondAsPersona(context.Background(), p.ID, "Hello?", nil)
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("error = %v, want ErrGenerationFailed", err)
	}
}

func TestRespondAsPersonaUnknownPersona(t *testing.T) {
	vec := &seqVectorizer{vectors: []domain.Vector{offProfileVector()}}
	svc, _, _ := newResponseFixture(vec, llm.NewMockClient())

	_, err := svc.RespondAsPersona(context.Background(), uuid.New(), "Hello?", nil)
	if !errors.Is(err, ErrPersonaNotFound) {
		t.Errorf("error = %v, want ErrPersonaNotFound", err)
	}
}
