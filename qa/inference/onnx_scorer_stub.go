//go:build !onnx
// +build !onnx

package inference

import (
	"context"

	"github.com/ZanzyTHEbar/bertqa/qa/tokenizer"
)

// onnxScorer is a stub used when built without the "onnx" build tag.
type onnxScorer struct{}

func newONNXScorer(modelPath string, opts ONNXOptions) Scorer { return &onnxScorer{} }

func (s *onnxScorer) Score(ctx context.Context, enc *tokenizer.Encoding) (*Logits, error) {
	return nil, ErrONNXUnavailable
}

func (s *onnxScorer) Close() error { return nil }
