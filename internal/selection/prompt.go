package selection

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PromptResult is the typed outcome of one prompt: either the user went
// back or picked an option by index. No sentinel values cross the
// engine boundary.
type PromptResult struct {
	Back  bool
	Index int
}

// Prompter presents a list of options and returns the user's choice.
// Implementations block until the user answers; interactive input has
// no timeout.
type Prompter interface {
	Select(title string, options []string, allowBack bool) (PromptResult, error)
}

// TerminalPrompter reads selections from an interactive terminal. The
// menu takes 1-based option numbers, with 0 mapped to Back when a back
// option is offered; anything else re-prompts.
type TerminalPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewTerminalPrompter creates a prompter reading from in and writing
// menus to out
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewScanner(in), out: out}
}

func (p *TerminalPrompter) Select(title string, options []string, allowBack bool) (PromptResult, error) {
	for {
		fmt.Fprintf(p.out, "\n%s\n", title)
		for i, opt := range options {
			fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
		}
		if allowBack {
			fmt.Fprintln(p.out, "  0) Go back")
		}
		fmt.Fprint(p.out, "> ")

		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return PromptResult{}, fmt.Errorf("failed to read selection: %w", err)
			}
			return PromptResult{}, io.EOF
		}

		n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err != nil {
			continue
		}
		if allowBack && n == 0 {
			return PromptResult{Back: true}, nil
		}
		if n >= 1 && n <= len(options) {
			return PromptResult{Index: n - 1}, nil
		}
	}
}
