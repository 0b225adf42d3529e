package runner

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

// KeyReader decodes raw terminal bytes into key names understood by keymap.Lookup,
// plus the CommandQuit and CommandHelp commands.
type KeyReader struct {
	r *bufio.Reader
}

// NewKeyReader wraps a raw terminal reader.
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{r: bufio.NewReader(r)}
}

// ReadKey blocks until a meaningful key arrives. Unbound keys are skipped.
func (k *KeyReader) ReadKey() (string, error) {
	for {
		key, err := k.next()
		if err != nil || key != "" {
			return key, err
		}
	}
}

func (k *KeyReader) next() (string, error) {
	b, err := k.r.ReadByte()
	if err != nil {
		return "", err
	}

	switch {
	case b >= '0' && b <= '9', strings.IndexByte("+-*/.=xX", b) >= 0:
		return string(b), nil
	case b == '\r' || b == '\n':
		return "Enter", nil
	case b == 0x7f || b == 0x08:
		return "Backspace", nil
	case b == 0x03 || b == 0x04 || b == 'q' || b == 'Q':
		return CommandQuit, nil
	case b == '?' || b == 'h':
		return CommandHelp, nil
	case b == 0x1b:
		return k.escape()
	case b >= utf8.RuneSelf:
		if err := k.r.UnreadByte(); err != nil {
			return "", err
		}
		r, _, err := k.r.ReadRune()
		if err != nil {
			return "", err
		}
		if strings.ContainsRune("×÷−±", r) {
			return string(r), nil
		}
	}
	return "", nil
}

// escape tells a lone Escape from a CSI sequence. A sequence arrives in a single read,
// so anything already buffered after ESC belongs to it.
func (k *KeyReader) escape() (string, error) {
	if k.r.Buffered() == 0 {
		return "Escape", nil
	}
	b, err := k.r.ReadByte()
	if err != nil {
		return "", err
	}
	if b != '[' && b != 'O' {
		return "Escape", k.r.UnreadByte()
	}

	var seq []byte
	for {
		c, err := k.r.ReadByte()
		if err != nil {
			return "", err
		}
		seq = append(seq, c)
		if c >= 0x40 && c <= 0x7e {
			break
		}
	}

	switch string(seq) {
	case "3~":
		return "Delete", nil
	case "20~":
		return "F9", nil
	}
	return "", nil
}
