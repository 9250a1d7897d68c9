package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/doeshing/cmdagent/internal/ports"
)

// Prompter implements ports.Confirmer over stdio. Every prompt shows
// the exact command and the model's stated reason before asking.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter constructs a prompter. Nil arguments default to stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Enabled indicates the prompter is interactive.
func (p *Prompter) Enabled() bool {
	return true
}

// Confirm asks the user to approve one command.
func (p *Prompter) Confirm(command string, reason string) (bool, error) {
	fmt.Fprintf(p.out, "\nThe agent wants to run:\n  %s\n", command)
	if reason != "" {
		fmt.Fprintf(p.out, "Reason: %s\n", reason)
	}
	fmt.Fprint(p.out, "Allow? [y/N]: ")

	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

var _ ports.Confirmer = (*Prompter)(nil)
