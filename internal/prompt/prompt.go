// Package prompt asks for missing command-line values on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrAborted is returned when the user cancels a prompt or input ends
// before an answer is given.
var ErrAborted = errors.New("prompt aborted")

// Prompter reads a single line answer for a question.
type Prompter interface {
	Ask(question string) (string, error)
	Close() error
}

// New returns a line-editing prompter when in is an interactive terminal,
// otherwise a plain line reader over in that echoes questions to out.
func New(in io.Reader, out io.Writer) Prompter {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)
		return &linerPrompter{state: state}
	}
	return NewReader(in, out)
}

type linerPrompter struct {
	state *liner.State
}

func (p *linerPrompter) Ask(question string) (string, error) {
	answer, err := p.state.Prompt(question)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer != "" {
		p.state.AppendHistory(answer)
	}
	return answer, nil
}

func (p *linerPrompter) Close() error {
	return p.state.Close()
}

// ReaderPrompter answers questions from a line-oriented reader.
type ReaderPrompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

// NewReader returns a prompter over in that writes questions to out.
func NewReader(in io.Reader, out io.Writer) *ReaderPrompter {
	return &ReaderPrompter{sc: bufio.NewScanner(in), out: out}
}

// Ask writes question and returns the next trimmed input line.
func (p *ReaderPrompter) Ask(question string) (string, error) {
	_, _ = fmt.Fprint(p.out, question)
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", ErrAborted
	}
	return strings.TrimSpace(p.sc.Text()), nil
}

// Close implements Prompter.
func (p *ReaderPrompter) Close() error {
	return nil
}

// Required asks question until a non-empty answer is given.
func Required(p Prompter, question string) (string, error) {
	for {
		answer, err := p.Ask(question)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
	}
}
