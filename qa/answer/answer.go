package answer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Span is a contiguous range of token positions taken as the answer.
// Start and End are inclusive.
type Span struct {
	Start       int
	End         int
	StartLogit  float32
	EndLogit    float32
	Probability float64
	Text        string
}

var (
	ErrEmptyScores     = errors.New("empty score vector")
	ErrLengthMismatch  = errors.New("tokens and scores differ in length")
	ErrInvalidSpan     = errors.New("end position precedes start position")
	ErrNoValidSpan     = errors.New("no valid span in context")
	ErrUnknownStrategy = errors.New("unknown answer strategy")
)

const continuationPrefix = "##"

// Argmax returns the index of the largest score; ties go to the first index.
func Argmax(scores []float32) (int, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyScores
	}
	return floats.MaxIdx(toFloat64(scores)), nil
}

// Extract picks start and end independently as the argmax of each score
// vector. It reports ErrInvalidSpan rather than returning an empty or
// reversed span when the end lands before the start.
func Extract(tokens []string, start, end []float32) (*Span, error) {
	if len(start) != len(tokens) || len(end) != len(tokens) {
		return nil, fmt.Errorf("%w: tokens=%d start=%d end=%d", ErrLengthMismatch, len(tokens), len(start), len(end))
	}
	s, err := Argmax(start)
	if err != nil {
		return nil, err
	}
	e, err := Argmax(end)
	if err != nil {
		return nil, err
	}
	if e < s {
		return nil, fmt.Errorf("%w: start=%d (%s) end=%d (%s)", ErrInvalidSpan, s, tokens[s], e, tokens[e])
	}
	return newSpan(tokens, start, end, s, e), nil
}

// BestSpan searches every start <= end pair inside the context segment, at
// most maxAnswerLen tokens long, and keeps the one maximising
// start[i] + end[j].
func BestSpan(tokens []string, typeIDs []int64, start, end []float32, maxAnswerLen int) (*Span, error) {
	n := len(tokens)
	if len(start) != n || len(end) != n || len(typeIDs) != n {
		return nil, fmt.Errorf("%w: tokens=%d types=%d start=%d end=%d", ErrLengthMismatch, n, len(typeIDs), len(start), len(end))
	}
	if n == 0 {
		return nil, ErrEmptyScores
	}
	if maxAnswerLen < 1 {
		maxAnswerLen = 1
	}
	inContext := func(i int) bool {
		return typeIDs[i] == 1 && tokens[i] != "[SEP]"
	}

	bestStart, bestEnd := -1, -1
	best := float32(math.Inf(-1))
	for i := 0; i < n; i++ {
		if !inContext(i) {
			continue
		}
		for j := i; j < n && j-i+1 <= maxAnswerLen; j++ {
			if !inContext(j) {
				break
			}
			if score := start[i] + end[j]; score > best {
				best, bestStart, bestEnd = score, i, j
			}
		}
	}
	if bestStart < 0 {
		return nil, ErrNoValidSpan
	}
	return newSpan(tokens, start, end, bestStart, bestEnd), nil
}

// Join rebuilds text from WordPiece tokens: "##" fragments attach to the
// preceding token, everything else is space separated.
func Join(tokens []string) string {
	var b strings.Builder
	for i, tok := range tokens {
		if strings.HasPrefix(tok, continuationPrefix) {
			b.WriteString(tok[len(continuationPrefix):])
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	return b.String()
}

// Probability is softmax(start)[s] * softmax(end)[e].
func Probability(start, end []float32, s, e int) float64 {
	st, en := toFloat64(start), toFloat64(end)
	return math.Exp(st[s] - floats.LogSumExp(st) + en[e] - floats.LogSumExp(en))
}

func newSpan(tokens []string, start, end []float32, s, e int) *Span {
	return &Span{
		Start:       s,
		End:         e,
		StartLogit:  start[s],
		EndLogit:    end[e],
		Probability: Probability(start, end, s, e),
		Text:        Join(tokens[s : e+1]),
	}
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
