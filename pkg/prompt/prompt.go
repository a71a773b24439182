// Package prompt provides the operator decision port used during a sync.
//
// Resolution logic never reads from a terminal directly: it asks a Decider,
// which may be a console, an always-yes policy, or a scripted function in
// tests.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Question is a yes/no question with a default answer.
type Question struct {
	Message    string
	DefaultYes bool
}

// Options renders the bracketed choice hint, capitalising the default.
func (q Question) Options() string {
	if q.DefaultYes {
		return "Yn"
	}
	return "yN"
}

// Decider answers yes/no questions.
type Decider interface {
	Confirm(q Question) bool
}

// DeciderFunc adapts a plain function to the Decider interface
type DeciderFunc func(q Question) bool

// Confirm calls f(q)
func (f DeciderFunc) Confirm(q Question) bool {
	return f(q)
}

// Console asks questions on a reader/writer pair.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a console decider
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Confirm prints the question and reads one line. An answer starting with
// y or n decides; anything else, including end of input, takes the default.
func (c *Console) Confirm(q Question) bool {
	_, _ = fmt.Fprintf(c.out, "%s [%s]\n>", q.Message, q.Options())

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(c.out)
		return q.DefaultYes
	}

	return parseAnswer(line, q.DefaultYes)
}

func parseAnswer(answer string, defaultYes bool) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return defaultYes
	}
	switch answer[0] {
	case 'y', 'Y':
		return true
	case 'n', 'N':
		return false
	default:
		return defaultYes
	}
}

// AlwaysYes answers yes to everything, announcing it on out.
type AlwaysYes struct {
	out io.Writer
}

// NewAlwaysYes creates an always-yes decider
func NewAlwaysYes(out io.Writer) *AlwaysYes {
	return &AlwaysYes{out: out}
}

// Confirm prints the question and returns true
func (a *AlwaysYes) Confirm(q Question) bool {
	_, _ = fmt.Fprintf(a.out, "%s [%s]\nAssuming yes...\n", q.Message, q.Options())
	return true
}
