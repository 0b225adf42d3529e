package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/muesli/termenv"
)

// Scaling follows the web display: up to MaxLength characters render at FullScale,
// longer entries start at 3rem and shrink by 0.1rem per extra character down to MinScale.
const (
	MaxLength = 10
	FullScale = 2.25
	MinScale  = 1.5
)

// DefaultWidth is the minimum width of the display panel, in cells.
const DefaultWidth = 24

const errorColor = "#ef4444"

// Size is the terminal rendition of the display scale.
type Size int

const (
	SizeSmall Size = iota
	SizeMedium
	SizeLarge
)

// Scale returns the font size, in rem, the web display uses for text.
func Scale(text string) float64 {
	n := utf8.RuneCountInString(text)
	if n <= MaxLength {
		return FullScale
	}
	return math.Max(MinScale, 3-float64(n-MaxLength)*0.1)
}

// SizeOf buckets Scale into the three styles a terminal can show.
func SizeOf(text string) Size {
	s := Scale(text)
	switch {
	case s >= FullScale:
		return SizeLarge
	case s > MinScale:
		return SizeMedium
	}
	return SizeSmall
}

// Display renders the two display lines to a terminal.
type Display struct {
	out     *termenv.Output
	width   int
	profile *termenv.Profile
	inPlace bool
	drawn   bool
}

// DisplayOption configures a Display.
type DisplayOption func(*Display)

// WithWidth sets the minimum panel width.
func WithWidth(n int) DisplayOption {
	return func(d *Display) {
		if n > 0 {
			d.width = n
		}
	}
}

// WithProfile forces a colour profile instead of detecting it from w.
func WithProfile(p termenv.Profile) DisplayOption {
	return func(d *Display) {
		d.profile = &p
	}
}

// WithInPlace makes Show redraw over the previous display instead of scrolling.
func WithInPlace() DisplayOption {
	return func(d *Display) {
		d.inPlace = true
	}
}

// NewDisplay creates a display writing to w.
func NewDisplay(w io.Writer, opts ...DisplayOption) *Display {
	d := &Display{width: DefaultWidth}
	for _, opt := range opts {
		opt(d)
	}

	var outOpts []termenv.OutputOption
	if d.profile != nil {
		outOpts = append(outOpts, termenv.WithProfile(*d.profile))
	}
	d.out = termenv.NewOutput(w, outOpts...)
	return d
}

// Render formats the history line above the current line, both right-aligned.
func (d *Display) Render(v domain.Display) string {
	width := d.width
	for _, line := range []string{v.History, v.Current} {
		if n := utf8.RuneCountInString(line); n > width {
			width = n
		}
	}

	history := d.out.String(alignRight(v.History, width)).Faint()
	current := d.out.String(alignRight(v.Current, width))
	switch {
	case v.Error != "":
		current = current.Foreground(d.out.Color(errorColor)).Bold()
	case SizeOf(v.Current) == SizeLarge:
		current = current.Bold()
	case SizeOf(v.Current) == SizeSmall:
		current = current.Faint()
	}
	return history.String() + "\n" + current.String()
}

// Print writes the rendered display followed by a newline.
func (d *Display) Print(v domain.Display) error {
	_, err := fmt.Fprintln(d.out, d.Render(v))
	return err
}

// Redraw replaces the previously printed display in place.
func (d *Display) Redraw(v domain.Display) error {
	if d.drawn {
		d.out.ClearLines(2)
	}
	d.drawn = true
	return d.Print(v)
}

// Show prints or redraws the display depending on WithInPlace.
func (d *Display) Show(v domain.Display) error {
	if d.inPlace {
		return d.Redraw(v)
	}
	return d.Print(v)
}

// Notice writes a message line below the display. The next Show starts a fresh display.
func (d *Display) Notice(msg string) error {
	d.drawn = false
	_, err := fmt.Fprintln(d.out, d.out.String(msg).Italic())
	return err
}

func alignRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}
