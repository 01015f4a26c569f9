package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// VocabTokenizer is a whitespace placeholder that maps lowercased words to
// vocab ids without sub-word splitting. Use SugarWordPiece for real models;
// this one serves offline runs and tests that have no model files.
type VocabTokenizer struct {
	vocab     map[string]int64
	inverse   []string
	unkID     int64
	clsID     int64
	sepID     int64
	maxSeqLen int
}

// LoadVocabTokenizer reads one token per line; the zero-based line number is
// the id. Blank lines still occupy an id, as in a BERT vocab.txt.
func LoadVocabTokenizer(path string, maxSeq int) (*VocabTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tokens := make([]string, 0, 32000)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewVocabTokenizer(tokens, maxSeq)
}

// NewVocabTokenizer builds a tokenizer from an ordered vocab. The vocab must
// contain [UNK], [CLS] and [SEP].
func NewVocabTokenizer(tokens []string, maxSeq int) (*VocabTokenizer, error) {
	vocab := make(map[string]int64, len(tokens))
	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, dup := vocab[tok]; !dup {
			vocab[tok] = int64(i)
		}
	}
	v := &VocabTokenizer{vocab: vocab, inverse: tokens, maxSeqLen: maxSeq}
	for _, special := range []struct {
		name string
		dst  *int64
	}{{UnkToken, &v.unkID}, {ClsToken, &v.clsID}, {SepToken, &v.sepID}} {
		id, ok := vocab[special.name]
		if !ok {
			return nil, fmt.Errorf("%w: vocab has no %s token", ErrUnsupported, special.name)
		}
		*special.dst = id
	}
	return v, nil
}

func (v *VocabTokenizer) MaxSeqLen() int { return v.maxSeqLen }

func (v *VocabTokenizer) EncodePair(question, context string) (*Encoding, error) {
	q := strings.Fields(strings.ToLower(question))
	c := strings.Fields(strings.ToLower(context))
	n := len(q) + len(c) + 3
	enc := &Encoding{
		InputIDs:      make([]int64, 0, n),
		TypeIDs:       make([]int64, 0, n),
		AttentionMask: make([]int64, 0, n),
		Tokens:        make([]string, 0, n),
	}
	push := func(tok string, id, segment int64) {
		enc.Tokens = append(enc.Tokens, tok)
		enc.InputIDs = append(enc.InputIDs, id)
		enc.TypeIDs = append(enc.TypeIDs, segment)
		enc.AttentionMask = append(enc.AttentionMask, 1)
	}

	push(ClsToken, v.clsID, 0)
	for _, w := range q {
		tok, id := v.lookup(w)
		push(tok, id, 0)
	}
	push(SepToken, v.sepID, 0)
	for _, w := range c {
		tok, id := v.lookup(w)
		push(tok, id, 1)
	}
	push(SepToken, v.sepID, 1)

	if err := enc.Validate(v.maxSeqLen); err != nil {
		return nil, err
	}
	return enc, nil
}

func (v *VocabTokenizer) lookup(word string) (string, int64) {
	if id, ok := v.vocab[word]; ok {
		return word, id
	}
	return UnkToken, v.unkID
}

func (v *VocabTokenizer) IDToToken(id int64) (string, bool) {
	if id < 0 || id >= int64(len(v.inverse)) {
		return "", false
	}
	return v.inverse[id], true
}
