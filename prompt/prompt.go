// Package prompt provides the confirmation capability injected into the
// deployment and rollback controllers. Interactive use prompts the
// operator; CI use wires AlwaysYes or AlwaysNo for deterministic behavior.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer answers yes/no gates and collects free-form operator input.
type Confirmer interface {
	// Confirm asks a yes/no question, defaulting to no.
	Confirm(question string) (bool, error)

	// Input asks for a free-form value, such as a backup identifier.
	Input(question string) (string, error)
}

// AlwaysYes continues through every gate without prompting.
type AlwaysYes struct{}

func (AlwaysYes) Confirm(string) (bool, error) {
	return true, nil
}

func (AlwaysYes) Input(question string) (string, error) {
	return "", fmt.Errorf("input required but running non-interactive: %s", question)
}

// AlwaysNo aborts at every gate without prompting.
type AlwaysNo struct{}

func (AlwaysNo) Confirm(string) (bool, error) {
	return false, nil
}

func (AlwaysNo) Input(question string) (string, error) {
	return "", fmt.Errorf("input required but running non-interactive: %s", question)
}

// Interactive reads answers from the operator's terminal.
type Interactive struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func (p *Interactive) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/N]: ", question)

	line, err := p.readLine()
	if err != nil {
		return false, err
	}

	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Interactive) Input(question string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", question)
	return p.readLine()
}

// readLine reuses one buffered reader across prompts, so input buffered
// past the first newline stays available to the next question.
func (p *Interactive) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read operator input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
