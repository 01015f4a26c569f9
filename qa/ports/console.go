package ports

import (
	"fmt"
	"io"
)

// Console writes interactor messages as plain lines.
type Console struct {
	out io.Writer
	err io.Writer
}

// NewConsole writes output to out and warnings/errors to errOut.
func NewConsole(out, errOut io.Writer) *Console {
	return &Console{out: out, err: errOut}
}

func (c *Console) Output(message string) {
	fmt.Fprintln(c.out, message)
}

func (c *Console) Warning(message string) {
	fmt.Fprintf(c.err, "warning: %s\n", message)
}

func (c *Console) Error(message string, err error) {
	if err == nil {
		fmt.Fprintf(c.err, "error: %s\n", message)
		return
	}
	fmt.Fprintf(c.err, "error: %s: %v\n", message, err)
}
