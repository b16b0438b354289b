package deploy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirmer is the capability that answers the production confirmation
// prompt. Injected so tests can script the answer without a terminal.
type Confirmer interface {
	// Confirm asks the operator the given question and reports whether
	// they affirmed it. Anything but an explicit yes is a decline.
	Confirm(prompt string) (bool, error)
}

// TerminalConfirmer prompts on an interactive terminal. When stdin is
// not a terminal it declines without prompting, so unattended runs can
// never slip past the production gate.
type TerminalConfirmer struct {
	in  io.Reader
	out io.Writer
	fd  int
}

// NewTerminalConfirmer creates a confirmer over stdin/stderr.
func NewTerminalConfirmer() *TerminalConfirmer {
	return &TerminalConfirmer{in: os.Stdin, out: os.Stderr, fd: int(os.Stdin.Fd())}
}

// Confirm implements Confirmer.
func (c *TerminalConfirmer) Confirm(prompt string) (bool, error) {
	if !term.IsTerminal(c.fd) {
		fmt.Fprintln(c.out, "stdin is not a terminal; declining confirmation")
		return false, nil
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// StaticConfirmer answers every prompt with a fixed response and
// records the prompts it saw. Used in tests.
type StaticConfirmer struct {
	Answer  bool
	Prompts []string
}

// Confirm implements Confirmer.
func (c *StaticConfirmer) Confirm(prompt string) (bool, error) {
	c.Prompts = append(c.Prompts, prompt)
	return c.Answer, nil
}
