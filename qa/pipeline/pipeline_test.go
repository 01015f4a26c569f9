package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/bertqa/qa/answer"
	"github.com/ZanzyTHEbar/bertqa/qa/config"
	"github.com/ZanzyTHEbar/bertqa/qa/inference"
	"github.com/ZanzyTHEbar/bertqa/qa/tokenizer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	question = "how many parameters does bert - large have ?"
	passage  = "bert - large is really big . . . it has 24 - layers and an em ##bed ##ding " +
		"size of 1 , 02 ##4 , for a total of 340 ##m parameters !"
)

// peakScorer returns flat logits with one peak for start and one for end.
type peakScorer struct {
	start, end int
	closed     bool
}

func (s *peakScorer) Score(ctx context.Context, enc *tokenizer.Encoding) (*inference.Logits, error) {
	l := &inference.Logits{Start: make([]float32, enc.Len()), End: make([]float32, enc.Len())}
	for i := range l.Start {
		l.Start[i], l.End[i] = -4, -4
	}
	l.Start[s.start] = 7
	l.End[s.end] = 6
	return l, nil
}

func (s *peakScorer) Close() error { s.closed = true; return nil }

type failingScorer struct{ err error }

func (s failingScorer) Score(context.Context, *tokenizer.Encoding) (*inference.Logits, error) {
	return nil, s.err
}

func (failingScorer) Close() error { return nil }

type shortScorer struct{}

func (shortScorer) Score(_ context.Context, enc *tokenizer.Encoding) (*inference.Logits, error) {
	return &inference.Logits{Start: make([]float32, enc.Len()-1), End: make([]float32, enc.Len())}, nil
}

func (shortScorer) Close() error { return nil }

func vocabFor(texts ...string) []string {
	vocab := []string{tokenizer.PadToken, tokenizer.UnkToken, tokenizer.ClsToken, tokenizer.SepToken}
	seen := map[string]bool{}
	for _, text := range texts {
		for _, w := range strings.Fields(strings.ToLower(text)) {
			if !seen[w] {
				seen[w] = true
				vocab = append(vocab, w)
			}
		}
	}
	return vocab
}

func newTestPipeline(t *testing.T, scorer inference.Scorer, opts Options) *Pipeline {
	t.Helper()
	tok, err := tokenizer.NewVocabTokenizer(vocabFor(question, passage), 512)
	require.NoError(t, err)
	return New(tok, scorer, opts, zerolog.Nop())
}

func TestAnswerSample(t *testing.T) {
	scorer := &peakScorer{start: 22, end: 35}
	p := newTestPipeline(t, scorer, Options{})

	res, err := p.Answer(context.Background(), question, passage)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.Equal(t, 46, res.Encoding.Len())
	assert.Len(t, res.Logits.Start, res.Encoding.Len())
	assert.Len(t, res.Logits.End, res.Encoding.Len())
	assert.Equal(t, 22, res.Span.Start)
	assert.Equal(t, 35, res.Span.End)
	assert.Equal(t, "24 - layers and an embedding size of 1 , 024", res.Answer())

	require.NoError(t, p.Close())
	assert.True(t, scorer.closed)
}

func TestAnswerReversedSpanIsAnError(t *testing.T) {
	p := newTestPipeline(t, &peakScorer{start: 35, end: 22}, Options{Strategy: answer.StrategyArgmax})

	res, err := p.Answer(context.Background(), question, passage)
	assert.ErrorIs(t, err, answer.ErrInvalidSpan)
	require.NotNil(t, res, "encoding and logits stay available for inspection")
	assert.Nil(t, res.Span)
	assert.Equal(t, "", res.Answer())
	assert.NotNil(t, res.Logits)
}

func TestAnswerJointStrategy(t *testing.T) {
	p := newTestPipeline(t, &peakScorer{start: 35, end: 22}, Options{Strategy: answer.StrategyJoint, MaxAnswerLen: 30})

	res, err := p.Answer(context.Background(), question, passage)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Span.Start, res.Span.End)
	assert.GreaterOrEqual(t, res.Span.Start, res.Encoding.ContextStart())
}

func TestAnswerRejectsEmptyInput(t *testing.T) {
	p := newTestPipeline(t, &peakScorer{}, Options{})

	_, err := p.Answer(context.Background(), "  ", passage)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = p.Answer(context.Background(), question, "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAnswerRejectsOverlongInput(t *testing.T) {
	tok, err := tokenizer.NewVocabTokenizer(vocabFor(question, passage), 20)
	require.NoError(t, err)
	p := New(tok, &peakScorer{}, Options{}, zerolog.Nop())

	_, err = p.Answer(context.Background(), question, passage)
	assert.ErrorIs(t, err, tokenizer.ErrSequenceTooLong)
}

func TestAnswerPropagatesScorerErrors(t *testing.T) {
	boom := errors.New("boom")
	p := newTestPipeline(t, failingScorer{err: boom}, Options{})
	_, err := p.Answer(context.Background(), question, passage)
	assert.ErrorIs(t, err, boom)

	p = newTestPipeline(t, shortScorer{}, Options{})
	_, err = p.Answer(context.Background(), question, passage)
	assert.ErrorIs(t, err, inference.ErrShapeMismatch)
}

func TestResultDump(t *testing.T) {
	p := newTestPipeline(t, &peakScorer{start: 22, end: 35}, Options{})
	res, err := p.Answer(context.Background(), question, passage)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.Dump(&buf))
	out := buf.String()

	assert.Contains(t, out, res.ID.String())
	assert.Contains(t, out, "total of 46 tokens (question 11, context 35)")
	assert.Contains(t, out, "##bed")
	assert.Contains(t, out, "<start")
	assert.Contains(t, out, "<end")
	assert.Contains(t, out, `Answer: "24 - layers and an embedding size of 1 , 024"`)
}

func TestResultDumpWithoutSpan(t *testing.T) {
	p := newTestPipeline(t, &peakScorer{start: 35, end: 22}, Options{})
	res, err := p.Answer(context.Background(), question, passage)
	require.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.Dump(&buf))
	assert.Contains(t, buf.String(), "Answer: <none>")
}

func TestLoadFromConfig(t *testing.T) {
	dir := t.TempDir()
	vocab := filepath.Join(dir, "vocab.txt")
	words := vocabFor("how many parameters does bert - large have ? is really big . it has 24 layers")
	require.NoError(t, os.WriteFile(vocab, []byte(strings.Join(words, "\n")+"\n"), 0o644))

	cfg := &config.Config{
		Model:  config.ModelConfig{Tokenizer: vocab, Scorer: "hash", MaxSeqLen: 512},
		Answer: config.AnswerConfig{Strategy: "joint", MaxAnswerLen: 30},
	}
	p, err := Load(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer p.Close()

	res, err := p.Answer(context.Background(), SampleQuestion, SampleContext)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Span.Start, res.Span.End)
	assert.Equal(t, tokenizer.ClsToken, res.Tokens[0])
}

func TestLoadWhitespaceTokenizerKind(t *testing.T) {
	vocab := filepath.Join(t.TempDir(), "vocab.txt")
	words := vocabFor("how many layers it has 24")
	require.NoError(t, os.WriteFile(vocab, []byte(strings.Join(words, "\n")+"\n"), 0o644))

	cfg := &config.Config{
		Model:  config.ModelConfig{Tokenizer: vocab, TokenizerKind: "whitespace", Scorer: "hash", MaxSeqLen: 512},
		Answer: config.AnswerConfig{Strategy: "joint", MaxAnswerLen: 30},
	}
	p, err := Load(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer p.Close()

	res, err := p.Answer(context.Background(), "How many layers?", "It has 24 layers")
	require.NoError(t, err)
	assert.Equal(t, []string{
		tokenizer.ClsToken, "how", "many", tokenizer.UnkToken, tokenizer.SepToken,
		"it", "has", "24", "layers", tokenizer.SepToken,
	}, res.Tokens)
	assert.GreaterOrEqual(t, res.Span.Start, 5)
}

func TestLoadRejectsUnknownTokenizerKind(t *testing.T) {
	vocab := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(vocab, []byte(strings.Join(vocabFor("how"), "\n")+"\n"), 0o644))

	cfg := &config.Config{
		Model:  config.ModelConfig{Tokenizer: vocab, TokenizerKind: "bpe", Scorer: "hash", MaxSeqLen: 512},
		Answer: config.AnswerConfig{Strategy: "argmax", MaxAnswerLen: 30},
	}
	_, err := Load(cfg, zerolog.Nop())
	assert.ErrorIs(t, err, tokenizer.ErrUnsupported)
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	cfg := &config.Config{Answer: config.AnswerConfig{Strategy: "beam"}}
	_, err := Load(cfg, zerolog.Nop())
	assert.ErrorIs(t, err, answer.ErrUnknownStrategy)
}
