package answer

import (
	"fmt"
	"strings"
)

// Strategy selects how a span is resolved from start/end logits.
type Strategy string

const (
	// StrategyArgmax takes each argmax independently and fails on a reversed span.
	StrategyArgmax Strategy = "argmax"
	// StrategyJoint searches the best ordered span inside the context.
	StrategyJoint Strategy = "joint"
)

// ParseStrategy maps a config value to a Strategy. Case and surrounding
// space are ignored and an empty value means argmax.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyArgmax, "":
		return StrategyArgmax, nil
	case StrategyJoint:
		return StrategyJoint, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Resolve applies the strategy to one encoded sequence.
func (st Strategy) Resolve(tokens []string, typeIDs []int64, start, end []float32, maxAnswerLen int) (*Span, error) {
	if st == StrategyJoint {
		return BestSpan(tokens, typeIDs, start, end, maxAnswerLen)
	}
	return Extract(tokens, start, end)
}
