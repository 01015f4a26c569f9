package tokenizer

import (
	"fmt"
	"os"
	"path/filepath"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"github.com/sugarme/tokenizer/processor"
)

// SugarWordPiece wraps a sugarme/tokenizer BERT pipeline for sentence pairs
type SugarWordPiece struct {
	t         *tk.Tokenizer
	maxSeqLen int
}

// NewSugarWordPiece loads vocab.txt (or a directory holding it) and builds an
// uncased BERT WordPiece tokenizer. Inputs are never truncated: an over-long
// pair is rejected by EncodePair.
func NewSugarWordPiece(vocabPath string, maxSeq int) (*SugarWordPiece, error) {
	fi, err := os.Stat(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("%w: vocab %s: %v", ErrUnsupported, vocabPath, err)
	}
	if fi.IsDir() {
		vocabPath = filepath.Join(vocabPath, "vocab.txt")
	}

	wp, err := wordpiece.NewWordPieceFromFile(vocabPath, UnkToken)
	if err != nil {
		return nil, fmt.Errorf("%w: load wordpiece vocab %s: %v", ErrUnsupported, vocabPath, err)
	}

	clsID, ok := wp.TokenToId(ClsToken)
	if !ok {
		return nil, fmt.Errorf("%w: vocab has no %s token", ErrUnsupported, ClsToken)
	}
	sepID, ok := wp.TokenToId(SepToken)
	if !ok {
		return nil, fmt.Errorf("%w: vocab has no %s token", ErrUnsupported, SepToken)
	}

	t := tk.NewTokenizer(wp)
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	t.WithPostProcessor(processor.NewBertProcessing(
		processor.PostToken{Value: SepToken, Id: sepID},
		processor.PostToken{Value: ClsToken, Id: clsID},
	))
	return &SugarWordPiece{t: t, maxSeqLen: maxSeq}, nil
}

// NewSugarFromJSON loads a HuggingFace tokenizer.json exported with the model.
func NewSugarFromJSON(path string, maxSeq int) (*SugarWordPiece, error) {
	t, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrUnsupported, path, err)
	}
	return &SugarWordPiece{t: t, maxSeqLen: maxSeq}, nil
}

func (s *SugarWordPiece) MaxSeqLen() int { return s.maxSeqLen }

func (s *SugarWordPiece) EncodePair(question, context string) (*Encoding, error) {
	input := tk.NewDualEncodeInput(tk.NewInputSequence(question), tk.NewInputSequence(context))
	enc, err := s.t.Encode(input, true)
	if err != nil {
		return nil, fmt.Errorf("encode pair: %w", err)
	}

	ids := enc.GetIds()
	types := enc.GetTypeIds()
	mask := enc.GetAttentionMask()
	out := &Encoding{
		InputIDs:      make([]int64, len(ids)),
		TypeIDs:       make([]int64, len(types)),
		AttentionMask: make([]int64, len(mask)),
		Tokens:        append([]string(nil), enc.GetTokens()...),
	}
	for i, v := range ids {
		out.InputIDs[i] = int64(v)
	}
	for i, v := range types {
		out.TypeIDs[i] = int64(v)
	}
	for i, v := range mask {
		out.AttentionMask[i] = int64(v)
	}
	if err := out.Validate(s.maxSeqLen); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SugarWordPiece) IDToToken(id int64) (string, bool) {
	return s.t.GetModel().IdToToken(int(id))
}
