package selection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMatcherStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matcher")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatalf("failed to write matcher stub: %v", err)
	}
	return path
}

func TestExecMatcherReturnsChosenLine(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	stub := writeMatcherStub(t, fmt.Sprintf("echo \"$@\" >> %s\nhead -n 1", argsFile))

	choice, ok, err := NewExecMatcher(stub).Pick([]string{"alpha", "bravo"}, "channel")
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if !ok || choice != "alpha" {
		t.Errorf("expected choice %q, got %q (ok=%v)", "alpha", choice, ok)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("matcher stub never ran: %v", err)
	}
	if !strings.Contains(string(args), "--prompt channel>") {
		t.Errorf("expected prompt flag in matcher args, got %q", args)
	}
}

func TestExecMatcherNoSelectionExitCodes(t *testing.T) {
	for _, code := range []int{1, 130} {
		stub := writeMatcherStub(t, fmt.Sprintf("exit %d", code))

		choice, ok, err := NewExecMatcher(stub).Pick([]string{"alpha"}, "channel")
		if err != nil {
			t.Errorf("exit %d: expected no error, got %v", code, err)
		}
		if ok || choice != "" {
			t.Errorf("exit %d: expected no selection, got %q (ok=%v)", code, choice, ok)
		}
	}
}

func TestExecMatcherEmptyOutput(t *testing.T) {
	stub := writeMatcherStub(t, "true")

	_, ok, err := NewExecMatcher(stub).Pick([]string{"alpha"}, "channel")
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if ok {
		t.Error("expected no selection for empty matcher output")
	}
}

func TestExecMatcherFailure(t *testing.T) {
	stub := writeMatcherStub(t, "exit 2")

	if _, _, err := NewExecMatcher(stub).Pick([]string{"alpha"}, "channel"); err == nil {
		t.Error("expected an error for exit status 2")
	}

	missing := filepath.Join(t.TempDir(), "absent")
	if _, _, err := NewExecMatcher(missing).Pick([]string{"alpha"}, "channel"); err == nil {
		t.Error("expected an error for a missing matcher binary")
	}
}

func TestExecMatcherNoCommand(t *testing.T) {
	if _, _, err := NewExecMatcher("  ").Pick([]string{"alpha"}, "channel"); err == nil {
		t.Error("expected an error for an empty matcher command")
	}
}
