package llm

import (
	"context"

	"github.com/voxpopai/personacore/internal/domain"
)

// MockClient is a configurable text generator for testing. Set the
// response fields to control what Generate returns; Responses, when
// non-empty, is consumed one entry per call so a test can script a
// regeneration sequence.
type MockClient struct {
	Response  string
	Responses []string
	Err       error

	// Call tracking for assertions
	GenerateCalls []MockGenerateCall
}

type MockGenerateCall struct {
	SystemPrompt string
	UserMessage  string
	History      []domain.Message
}

var _ domain.TextGenerator = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{Response: "Mock persona response."}
}

func (m *MockClient) Generate(_ context.Context, systemPrompt, userMessage string, history []domain.Message) (string, error) {
	m.GenerateCalls = append(m.GenerateCalls, MockGenerateCall{
		SystemPrompt: systemPrompt,
		UserMessage:  userMessage,
		History:      history,
	})
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		next := m.Responses[0]
		m.Responses = m.Responses[1:]
		return next, nil
	}
	return m.Response, nil
}
