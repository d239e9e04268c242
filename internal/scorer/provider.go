package scorer

import (
	"context"
	"fmt"

	"github.com/voxpopai/personacore/internal/codec"
	"github.com/voxpopai/personacore/internal/domain"
)

// Provider constants
const (
	ProviderHeuristic = "heuristic"
	ProviderONNX      = "onnx"
	ProviderMock      = "mock"
)

// ONNXConfig configures the optional embedding-based vectorizer.
type ONNXConfig struct {
	ModelPath     string
	TokenizerPath string
}

// NewVectorizer creates a text vectorizer based on the provider name.
// Returns an error for unknown providers or an onnx provider compiled
// without the onnx build tag.
func NewVectorizer(provider string, c *codec.Codec, seed int64, onnx ONNXConfig) (domain.TextToVector, error) {
	switch provider {
	case ProviderHeuristic:
		return NewKeyword(c, seed), nil

	case ProviderONNX:
		return newONNXVectorizer(onnx)

	case ProviderMock:
		return NewMock(), nil

	default:
		return nil, fmt.Errorf("unknown scorer provider: %s (valid options: heuristic, onnx, mock)", provider)
	}
}

// Mock is a configurable vectorizer for testing. Set Response/Err to
// control what Vectorize returns; calls are recorded for assertions.
type Mock struct {
	Response domain.Vector
	Err      error

	Calls []string
}

var _ domain.TextToVector = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Vectorize(_ context.Context, text string) (domain.Vector, error) {
	m.Calls = append(m.Calls, text)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Response != nil {
		return m.Response.Clone(), nil
	}
	v := make(domain.Vector, domain.VectorDim)
	for i := range v {
		v[i] = 1
	}
	return v.Normalized(), nil
}
