// Package prompt asks the user to confirm destructive actions.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Terminal asks on Out and reads the answer from In.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	scanner *bufio.Scanner
}

// NewTerminal creates a Terminal reading from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: in, Out: out}
}

// Confirm prints "title: message [y/N] " and reports whether the answer was
// y or yes. Anything else, including end of input, declines.
func (t *Terminal) Confirm(message, title string) bool {
	if t.scanner == nil {
		t.scanner = bufio.NewScanner(t.In)
	}
	fmt.Fprintf(t.Out, "%s: %s [y/N] ", title, message)
	if !t.scanner.Scan() {
		fmt.Fprintln(t.Out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(t.scanner.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Fixed answers every confirmation with the same value.
type Fixed bool

// Confirm returns the fixed answer.
func (f Fixed) Confirm(string, string) bool { return bool(f) }
