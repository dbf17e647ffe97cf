// Package prompt implements the line-oriented question sequence the
// downloader runs when parameters are not supplied up front.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// New wraps the given reader and writer, usually os.Stdin and os.Stdout.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Date keeps asking until the answer parses with the given layout. An
// exhausted input stream surfaces as an error instead of looping forever.
func (p *Prompter) Date(label, layout string) (time.Time, error) {
	for {
		raw, ok := p.read(label)
		if !ok {
			return time.Time{}, io.ErrUnexpectedEOF
		}
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		fmt.Fprintln(p.out, "Invalid date format. Please use MM/DD/YYYY.")
	}
}

// String returns the answer, or fallback when the user just hits enter.
func (p *Prompter) String(label, fallback string) string {
	raw, ok := p.read(label)
	if !ok || raw == "" {
		return fallback
	}
	return raw
}

// Bool interprets y/yes and n/no; anything else keeps the fallback.
func (p *Prompter) Bool(label string, fallback bool) bool {
	raw, ok := p.read(label)
	if !ok {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	return fallback
}

func (p *Prompter) read(label string) (string, bool) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}
