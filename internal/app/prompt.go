package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user one question and returns the answer line.
type Prompter interface {
	Ask(question string) (string, error)
}

// TerminalPrompter writes questions to an output stream and reads answers
// line by line from an input stream.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter prompts on out and reads replies from in.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

// Ask prints question without a newline and returns the trimmed reply. A last
// line without a trailing newline still counts; io.EOF is returned only when
// nothing was read.
func (p *TerminalPrompter) Ask(question string) (string, error) {
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
