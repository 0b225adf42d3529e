package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"         _                         ", "#34d399"},
	{"    __ _| |__  __ _ __ _  _ ___    ", "#2dd4bf"},
	{"   / _` | '_ \\/ _` / _| || (_-<    ", "#22d3ee"},
	{"   \\__,_|_.__/\\__,_\\__|\\_,_/__/    ", "#38bdf8"},
}

// PrintBanner writes the abacus banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(out)
	for _, line := range bannerLines {
		fmt.Fprintln(out, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(out)
}
