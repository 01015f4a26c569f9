package pipeline

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ZanzyTHEbar/bertqa/qa/answer"
	"github.com/ZanzyTHEbar/bertqa/qa/inference"
	"github.com/ZanzyTHEbar/bertqa/qa/tokenizer"

	"github.com/google/uuid"
)

// Result is everything produced while answering one question.
type Result struct {
	ID       uuid.UUID
	Question string
	Context  string
	Encoding *tokenizer.Encoding
	Tokens   []string
	Logits   *inference.Logits
	Span     *answer.Span
}

// Answer returns the span text, or "" when no span was resolved.
func (r *Result) Answer() string {
	if r.Span == nil {
		return ""
	}
	return r.Span.Text
}

// Dump writes the intermediate tensors: one row per token with its id,
// segment and both logits, the chosen start and end marked.
func (r *Result) Dump(w io.Writer) error {
	if r.Encoding == nil {
		return fmt.Errorf("result %s has no encoding", r.ID)
	}
	enc := r.Encoding
	ctxStart := enc.ContextStart()
	fmt.Fprintf(w, "Query %s\n", r.ID)
	fmt.Fprintf(w, "Question: %s\n", r.Question)
	fmt.Fprintf(w, "The input has a total of %d tokens (question %d, context %d).\n\n",
		enc.Len(), ctxStart, enc.Len()-ctxStart)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "idx\ttoken\tid\tsegment\tstart\tend\t\t")
	for i, id := range enc.InputIDs {
		token := ""
		if i < len(r.Tokens) {
			token = r.Tokens[i]
		}
		start, end := "-", "-"
		if r.Logits != nil {
			start = fmt.Sprintf("%.3f", r.Logits.Start[i])
			end = fmt.Sprintf("%.3f", r.Logits.End[i])
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\t%s\t\n", i, token, id, enc.TypeIDs[i], start, end, r.marker(i))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Span == nil {
		_, err := fmt.Fprintln(w, "\nAnswer: <none>")
		return err
	}
	_, err := fmt.Fprintf(w, "\nAnswer: %q (tokens %d..%d, p=%.4f)\n", r.Span.Text, r.Span.Start, r.Span.End, r.Span.Probability)
	return err
}

func (r *Result) marker(i int) string {
	if r.Span == nil {
		return ""
	}
	switch {
	case i == r.Span.Start && i == r.Span.End:
		return "<start/end"
	case i == r.Span.Start:
		return "<start"
	case i == r.Span.End:
		return "<end"
	}
	return ""
}
