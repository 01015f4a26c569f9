package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/bertqa/qa/tokenizer"
)

// Logits holds the per-token start and end scores of one forward pass.
type Logits struct {
	Start []float32
	End   []float32
}

// Scorer runs the pretrained span model over an encoded question/context pair.
type Scorer interface {
	Score(ctx context.Context, enc *tokenizer.Encoding) (*Logits, error)
	Close() error
}

var (
	ErrUnknownScorer   = errors.New("unknown scorer")
	ErrONNXUnavailable = errors.New("onnx scorer not available: build with -tags onnx and provide a supported model")
	ErrShapeMismatch   = errors.New("logits do not match sequence length")
)

// NewScorer selects a scorer by name ("onnx", or "hash"/"dev" for the
// deterministic offline scorer).
func NewScorer(name, modelPath string, opts ONNXOptions) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hash", "dev":
		return NewHashScorer(), nil
	case "onnx", "":
		return newONNXScorer(modelPath, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScorer, name)
	}
}

// CheckShape verifies both logit vectors are aligned to n tokens.
func (l *Logits) CheckShape(n int) error {
	if l == nil {
		return fmt.Errorf("%w: no logits", ErrShapeMismatch)
	}
	if len(l.Start) != n || len(l.End) != n {
		return fmt.Errorf("%w: start=%d end=%d tokens=%d", ErrShapeMismatch, len(l.Start), len(l.End), n)
	}
	return nil
}
