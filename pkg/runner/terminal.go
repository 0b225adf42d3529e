package runner

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// MakeRaw puts the terminal f into raw mode for key mode and returns the function that
// restores it.
func MakeRaw(f *os.File) (func() error, error) {
	fd := int(f.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error {
		return term.Restore(fd, old)
	}, nil
}

// crlfWriter translates "\n" to "\r\n"; raw mode disables output post-processing.
type crlfWriter struct {
	w io.Writer
}

// NewCRLFWriter wraps w for writing to a terminal in raw mode.
func NewCRLFWriter(w io.Writer) io.Writer {
	return crlfWriter{w: w}
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
