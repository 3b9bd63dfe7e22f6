package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword
var readPassword = term.ReadPassword

// prompter reads answers from the command's input
type prompter struct {
	in    io.Reader
	out   io.Writer
	lines *bufio.Reader
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out, lines: bufio.NewReader(in)}
}

// Line prints prompt and returns the next trimmed input line. A final line
// without a newline is still returned.
func (p *prompter) Line(prompt string) (string, error) {
	if prompt != "" {
		if _, err := fmt.Fprint(p.out, prompt); err != nil {
			return "", err
		}
	}
	line, err := p.lines.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Required repeats the prompt until a non-empty answer is given
func (p *prompter) Required(prompt string) (string, error) {
	for {
		answer, err := p.Line(prompt)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
	}
}

// Password reads without echo when attached to a terminal and falls back
// to a plain line otherwise, so input can be piped.
func (p *prompter) Password(prompt string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.out, prompt)
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	return p.Line(prompt)
}
