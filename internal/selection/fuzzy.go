package selection

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Matcher hands a list of display lines to an interactive filter and
// returns the single chosen line, if any. ok is false when the user
// walked away without choosing.
type Matcher interface {
	Pick(lines []string, prompt string) (choice string, ok bool, err error)
}

// ExecMatcher runs a configured fzf-compatible command. The candidate
// lines go to the process on stdin and the chosen line comes back on
// stdout. Exit statuses 1 (no match) and 130 (aborted) both mean the
// user chose nothing.
type ExecMatcher struct {
	command string
}

// NewExecMatcher creates a matcher from a shell-like command string,
// e.g. "fzf --exact"
func NewExecMatcher(command string) *ExecMatcher {
	return &ExecMatcher{command: command}
}

func (m *ExecMatcher) Pick(lines []string, prompt string) (string, bool, error) {
	parts := strings.Fields(m.command)
	if len(parts) == 0 {
		return "", false, fmt.Errorf("no fuzzy matcher command configured")
	}

	args := parts[1:]
	if prompt != "" {
		args = append(args, "--prompt", prompt+"> ")
	}

	cmd := exec.Command(parts[0], args...)
	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n") + "\n")
	// The matcher draws its interface on the terminal.
	cmd.Stderr = os.Stderr

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			switch exitErr.ExitCode() {
			case 1, 130:
				return "", false, nil
			}
		}
		return "", false, fmt.Errorf("fuzzy matcher failed: %w", err)
	}

	choice := strings.TrimSpace(out.String())
	if choice == "" {
		return "", false, nil
	}
	return choice, true, nil
}
