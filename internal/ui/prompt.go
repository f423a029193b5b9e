package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

// nonInteractiveMode tracks whether prompts should be disabled.
// Uses atomic.Bool for thread-safe access from concurrent operations.
var nonInteractiveMode atomic.Bool

// SetNonInteractive sets non-interactive mode (disables prompts).
// This function is thread-safe.
func SetNonInteractive(v bool) {
	nonInteractiveMode.Store(v)
}

// CanPrompt returns true if interactive prompts are allowed
// (terminal is available and non-interactive mode is not set).
// This function is thread-safe.
func CanPrompt() bool {
	return !nonInteractiveMode.Load() && IsInteractive()
}

// Prompt handles interactive prompts
type Prompt struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompt creates a prompt reading stdin and writing to stderr
func NewPrompt() *Prompt {
	return NewPromptWithIO(os.Stdin, os.Stderr)
}

// NewPromptWithIO creates a prompt over custom streams (for testing)
func NewPromptWithIO(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Confirm asks for a yes/no confirmation
func (p *Prompt) Confirm(message string, defaultYes bool) (bool, error) {
	defaultStr := "y/N"
	if defaultYes {
		defaultStr = "Y/n"
	}

	fmt.Fprintf(p.out, "%s [%s]: ", message, defaultStr)

	input, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return false, err
	}

	input = strings.TrimSpace(strings.ToLower(input))

	if input == "" {
		return defaultYes, nil
	}

	return input == "y" || input == "yes", nil
}

// IsInteractive returns true if stdin is a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
