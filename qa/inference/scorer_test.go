package inference

import (
	"context"
	"testing"

	"github.com/ZanzyTHEbar/bertqa/qa/tokenizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEncoding() *tokenizer.Encoding {
	return &tokenizer.Encoding{
		InputIDs:      []int64{101, 2129, 2116, 102, 14324, 2003, 2502, 102},
		TypeIDs:       []int64{0, 0, 0, 0, 1, 1, 1, 1},
		AttentionMask: []int64{1, 1, 1, 1, 1, 1, 1, 1},
	}
}

func TestHashScorerAlignedAndDeterministic(t *testing.T) {
	s, err := NewScorer("hash", "", ONNXOptions{})
	require.NoError(t, err)
	defer s.Close()

	enc := sampleEncoding()
	first, err := s.Score(context.Background(), enc)
	require.NoError(t, err)
	require.NoError(t, first.CheckShape(enc.Len()))

	second, err := s.Score(context.Background(), enc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHashScorerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashScorer().Score(ctx, sampleEncoding())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewScorerSelection(t *testing.T) {
	s, err := NewScorer("DEV", "", ONNXOptions{})
	require.NoError(t, err)
	assert.IsType(t, hashScorer{}, s)

	_, err = NewScorer("tflite", "", ONNXOptions{})
	assert.ErrorIs(t, err, ErrUnknownScorer)

	s, err = NewScorer("onnx", "model.onnx", ONNXOptions{})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestCheckShape(t *testing.T) {
	l := &Logits{Start: make([]float32, 3), End: make([]float32, 3)}
	assert.NoError(t, l.CheckShape(3))
	assert.ErrorIs(t, l.CheckShape(4), ErrShapeMismatch)

	l.End = l.End[:2]
	assert.ErrorIs(t, l.CheckShape(3), ErrShapeMismatch)

	var missing *Logits
	assert.ErrorIs(t, missing.CheckShape(3), ErrShapeMismatch)
}

func TestONNXOptionsLibraryPath(t *testing.T) {
	t.Setenv("ONNXRUNTIME_SHARED_LIBRARY_PATH", "/opt/ort/libonnxruntime.so")
	assert.Equal(t, "/opt/ort/libonnxruntime.so", ONNXOptions{}.libraryPath())
	assert.Equal(t, "/usr/lib/ort.so", ONNXOptions{SharedLibraryPath: "/usr/lib/ort.so"}.libraryPath())
	assert.Equal(t, "cuda", ONNXOptions{ExecutionProvider: " CUDA "}.provider())
}

func TestONNXOptionsCUDADevice(t *testing.T) {
	assert.Equal(t, map[string]string{"device_id": "0"}, ONNXOptions{}.cudaOptions())
	assert.Equal(t, map[string]string{"device_id": "2"}, ONNXOptions{DeviceID: 2}.cudaOptions())
}
