//go:build !onnx

package scorer

import (
	"fmt"

	"github.com/voxpopai/personacore/internal/domain"
)

func newONNXVectorizer(ONNXConfig) (domain.TextToVector, error) {
	return nil, fmt.Errorf("onnx scorer requires building with -tags onnx")
}
