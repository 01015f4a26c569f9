package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	internal "github.com/ZanzyTHEbar/bertqa/qa"
	"github.com/ZanzyTHEbar/bertqa/qa/answer"
	"github.com/ZanzyTHEbar/bertqa/qa/config"
	"github.com/ZanzyTHEbar/bertqa/qa/inference"
	"github.com/ZanzyTHEbar/bertqa/qa/tokenizer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrEmptyInput = errors.New("question and context must not be empty")

// Options tune span resolution.
type Options struct {
	Strategy     answer.Strategy
	MaxAnswerLen int
}

// Pipeline answers one question against one context passage at a time:
// encode, score, extract. The tokenizer and scorer are only read after
// construction.
type Pipeline struct {
	tok          tokenizer.PairTokenizer
	scorer       inference.Scorer
	strategy     answer.Strategy
	maxAnswerLen int
	logger       zerolog.Logger
}

func New(tok tokenizer.PairTokenizer, scorer inference.Scorer, opts Options, logger zerolog.Logger) *Pipeline {
	if opts.Strategy == "" {
		opts.Strategy = answer.StrategyArgmax
	}
	if opts.MaxAnswerLen < 1 {
		opts.MaxAnswerLen = internal.DefaultMaxAnswerLen
	}
	return &Pipeline{
		tok:          tok,
		scorer:       scorer,
		strategy:     opts.Strategy,
		maxAnswerLen: opts.MaxAnswerLen,
		logger:       logger,
	}
}

// Load builds the tokenizer and scorer named by cfg.
func Load(cfg *config.Config, logger zerolog.Logger) (*Pipeline, error) {
	strategy, err := answer.ParseStrategy(cfg.Answer.Strategy)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.Load(cfg.Model.TokenizerKind, cfg.Model.Tokenizer, cfg.Model.MaxSeqLen)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	scorer, err := inference.NewScorer(cfg.Model.Scorer, cfg.Model.Path, inference.ONNXOptions{
		ExecutionProvider: cfg.ONNX.ExecutionProvider,
		DeviceID:          cfg.ONNX.DeviceID,
		SharedLibraryPath: cfg.ONNX.SharedLibraryPath,
		IntraOpThreads:    cfg.ONNX.IntraOpThreads,
	})
	if err != nil {
		return nil, fmt.Errorf("load scorer: %w", err)
	}
	logger.Info().
		Str("tokenizer", cfg.Model.Tokenizer).
		Str("tokenizer_kind", cfg.Model.TokenizerKind).
		Str("model", cfg.Model.Path).
		Str("scorer", cfg.Model.Scorer).
		Str("strategy", string(strategy)).
		Msg("pipeline ready")
	return New(tok, scorer, Options{Strategy: strategy, MaxAnswerLen: cfg.Answer.MaxAnswerLen}, logger), nil
}

// Answer runs a single question/context pair through the model. If only the
// span extraction fails, the returned Result still carries the encoding and
// logits so they can be inspected, alongside the error.
func (p *Pipeline) Answer(ctx context.Context, question, passage string) (*Result, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(passage) == "" {
		return nil, ErrEmptyInput
	}
	res := &Result{ID: uuid.New(), Question: question, Context: passage}
	log := p.logger.With().Str("query_id", res.ID.String()).Logger()

	enc, err := p.tok.EncodePair(question, passage)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	res.Encoding = enc
	res.Tokens = p.tokens(enc)
	log.Debug().
		Int("seq_len", enc.Len()).
		Int("context_start", enc.ContextStart()).
		Msg("encoded question/context pair")

	logits, err := p.scorer.Score(ctx, enc)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	if err := logits.CheckShape(enc.Len()); err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	res.Logits = logits

	span, err := p.strategy.Resolve(res.Tokens, enc.TypeIDs, logits.Start, logits.End, p.maxAnswerLen)
	if err != nil {
		log.Warn().Err(err).Str("strategy", string(p.strategy)).Msg("no answer span")
		return res, fmt.Errorf("extract: %w", err)
	}
	res.Span = span
	log.Debug().
		Int("start", span.Start).
		Int("end", span.End).
		Float64("probability", span.Probability).
		Msg("resolved answer span")
	return res, nil
}

// tokens prefers the tokenizer's own strings and falls back to reverse lookup.
func (p *Pipeline) tokens(enc *tokenizer.Encoding) []string {
	if len(enc.Tokens) == enc.Len() {
		return enc.Tokens
	}
	out := make([]string, enc.Len())
	for i, id := range enc.InputIDs {
		if s, ok := p.tok.IDToToken(id); ok {
			out[i] = s
		} else {
			out[i] = tokenizer.UnkToken
		}
	}
	return out
}

// Close releases the scorer.
func (p *Pipeline) Close() error {
	return p.scorer.Close()
}
