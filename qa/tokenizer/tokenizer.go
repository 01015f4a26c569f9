package tokenizer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// PairTokenizer encodes a (question, context) pair into model-ready tensors.
type PairTokenizer interface {
	EncodePair(question, context string) (*Encoding, error)
	IDToToken(id int64) (string, bool)
	MaxSeqLen() int
}

// Encoding is the model input for one question/context pair laid out as
// [CLS] question [SEP] context [SEP]. It must not be modified after creation.
type Encoding struct {
	InputIDs      []int64
	TypeIDs       []int64
	AttentionMask []int64
	Tokens        []string
}

const (
	ClsToken = "[CLS]"
	SepToken = "[SEP]"
	UnkToken = "[UNK]"
	PadToken = "[PAD]"
)

var (
	// ErrUnsupported indicates the tokenizer could not be initialized
	ErrUnsupported       = errors.New("unsupported tokenizer configuration")
	ErrSequenceTooLong   = errors.New("sequence exceeds maximum length")
	ErrLengthMismatch    = errors.New("encoding slices differ in length")
	ErrMalformedSegments = errors.New("segment ids are not one run of 0s followed by one run of 1s")
)

// Len returns the number of tokens in the sequence.
func (e *Encoding) Len() int { return len(e.InputIDs) }

// ContextStart returns the index of the first context token, or -1.
func (e *Encoding) ContextStart() int {
	for i, t := range e.TypeIDs {
		if t == 1 {
			return i
		}
	}
	return -1
}

// Validate checks that the encoding fits the model and has the two-segment shape.
func (e *Encoding) Validate(maxLen int) error {
	n := len(e.InputIDs)
	if len(e.TypeIDs) != n || len(e.AttentionMask) != n || (e.Tokens != nil && len(e.Tokens) != n) {
		return fmt.Errorf("%w: ids=%d types=%d mask=%d tokens=%d", ErrLengthMismatch, n, len(e.TypeIDs), len(e.AttentionMask), len(e.Tokens))
	}
	if maxLen > 0 && n > maxLen {
		return fmt.Errorf("%w: %d tokens, limit %d", ErrSequenceTooLong, n, maxLen)
	}
	if n == 0 || e.TypeIDs[0] != 0 {
		return ErrMalformedSegments
	}
	boundary := e.ContextStart()
	if boundary < 0 {
		return ErrMalformedSegments
	}
	for i := boundary; i < n; i++ {
		if e.TypeIDs[i] != 1 {
			return fmt.Errorf("%w: unexpected segment %d at %d", ErrMalformedSegments, e.TypeIDs[i], i)
		}
	}
	return nil
}

// Tokenizer kinds accepted by Load.
const (
	KindWordPiece  = "wordpiece"
	KindWhitespace = "whitespace"
)

// Load builds the tokenizer of the given kind. For wordpiece (the default),
// *.json is read as a HuggingFace tokenizer.json and anything else as a
// vocab file or directory. whitespace loads the VocabTokenizer placeholder
// from a vocab file.
func Load(kind, path string, maxSeq int) (PairTokenizer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindWhitespace:
		tok, err := LoadVocabTokenizer(path, maxSeq)
		if err != nil {
			return nil, err
		}
		return tok, nil
	case KindWordPiece, "":
		if strings.EqualFold(filepath.Ext(path), ".json") {
			tok, err := NewSugarFromJSON(path, maxSeq)
			if err != nil {
				return nil, err
			}
			return tok, nil
		}
		tok, err := NewSugarWordPiece(path, maxSeq)
		if err != nil {
			return nil, err
		}
		return tok, nil
	}
	return nil, fmt.Errorf("%w: tokenizer kind %q", ErrUnsupported, kind)
}
