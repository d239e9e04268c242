//go:build onnx

package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/voxpopai/personacore/internal/domain"
)

// onnxSeqLen is the fixed sequence length for MiniLM-class models.
const onnxSeqLen = 128

// ONNXVectorizer scores text with a sentence-embedding model instead
// of the keyword heuristic. Embeddings land in the same 384-dim space
// as persona vectors, so drift math is unchanged.
type ONNXVectorizer struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *wordPieceTokenizer
}

var _ domain.TextToVector = (*ONNXVectorizer)(nil)

func newONNXVectorizer(cfg ONNXConfig) (domain.TextToVector, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("ONNX_MODEL_PATH is required for the onnx scorer")
	}
	if cfg.TokenizerPath == "" {
		return nil, fmt.Errorf("ONNX_TOKENIZER_PATH is required for the onnx scorer")
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	tokenizer, err := loadWordPieceTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXVectorizer{session: session, tokenizer: tokenizer}, nil
}

func (o *ONNXVectorizer) Vectorize(_ context.Context, text string) (domain.Vector, error) {
	tokens := o.tokenizer.tokenize(text)

	inputIDs := make([]int64, onnxSeqLen)
	attentionMask := make([]int64, onnxSeqLen)
	tokenTypeIDs := make([]int64, onnxSeqLen)

	inputIDs[0] = int64(o.tokenizer.clsToken)
	attentionMask[0] = 1

	n := len(tokens)
	if n > onnxSeqLen-2 {
		n = onnxSeqLen - 2
	}
	for i := 0; i < n; i++ {
		inputIDs[i+1] = tokens[i]
		attentionMask[i+1] = 1
	}
	inputIDs[n+1] = int64(o.tokenizer.sepToken)
	attentionMask[n+1] = 1

	shape := ort.NewShape(1, onnxSeqLen)
	idsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typeTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := o.session.Run([]ort.Value{idsTensor, maskTensor, typeTensor}, outputs); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}

	data := tensor.GetData()
	outShape := tensor.GetShape()

	v := make(domain.Vector, domain.VectorDim)
	switch len(outShape) {
	case 2:
		if len(data) < domain.VectorDim {
			return nil, fmt.Errorf("output dimension mismatch: got %d, want %d", len(data), domain.VectorDim)
		}
		for i := 0; i < domain.VectorDim; i++ {
			v[i] = float64(data[i])
		}
	case 3:
		// Mean pooling over attended tokens:
		// [1, seq, hidden] -> [hidden].
		seqLen := int(outShape[1])
		hidden := int(outShape[2])
		if hidden != domain.VectorDim {
			return nil, fmt.Errorf("hidden size mismatch: got %d, want %d", hidden, domain.VectorDim)
		}
		var attended float64
		for i := 0; i < seqLen; i++ {
			if attentionMask[i] == 0 {
				continue
			}
			attended++
			off := i * hidden
			for j := 0; j < hidden; j++ {
				v[j] += float64(data[off+j])
			}
		}
		if attended == 0 {
			return nil, fmt.Errorf("no attended tokens")
		}
		for j := range v {
			v[j] /= attended
		}
	default:
		return nil, fmt.Errorf("unexpected output shape: %v", outShape)
	}

	return v.Normalized(), nil
}

// Close releases the onnx session.
func (o *ONNXVectorizer) Close() error {
	if o.session != nil {
		return o.session.Destroy()
	}
	return nil
}

type wordPieceTokenizer struct {
	vocab    map[string]int
	clsToken int
	sepToken int
	unkToken int
}

func loadWordPieceTokenizer(path string) (*wordPieceTokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tokenizerData struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &tokenizerData); err != nil {
		return nil, err
	}

	return &wordPieceTokenizer{
		vocab:    tokenizerData.Model.Vocab,
		clsToken: 101, // [CLS]
		sepToken: 102, // [SEP]
		unkToken: 100, // [UNK]
	}, nil
}

func (t *wordPieceTokenizer) tokenize(text string) []int64 {
	var tokens []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if id, ok := t.vocab[word]; ok {
			tokens = append(tokens, int64(id))
			continue
		}
		for _, sub := range t.wordPiece(word) {
			if id, ok := t.vocab[sub]; ok {
				tokens = append(tokens, int64(id))
			} else {
				tokens = append(tokens, int64(t.unkToken))
			}
		}
	}
	return tokens
}

// wordPiece splits a word into the longest vocabulary prefixes, using
// the ## continuation convention.
func (t *wordPieceTokenizer) wordPiece(word string) []string {
	var subwords []string
	start := 0
	for start < len(word) {
		end := len(word)
		matched := ""
		for end > start {
			sub := word[start:end]
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := t.vocab[sub]; ok {
				matched = sub
				break
			}
			end--
		}
		if matched == "" {
			// No prefix matches; emit one unknown chunk for the rest.
			return append(subwords, word[start:])
		}
		subwords = append(subwords, matched)
		start = end
	}
	return subwords
}
