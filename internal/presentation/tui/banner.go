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
	{"   __                                             _     ", "#22d3ee"},
	{"  / _|_ __ __ _ _ __ ___   ___  __ _ _ __ __ _ _ __ | |__  ", "#38bdf8"},
	{" | |_| '__/ _` | '_ ` _ \\ / _ \\/ _` | '__/ _` | '_ \\| '_ \\ ", "#60a5fa"},
	{" |  _| | | (_| | | | | | |  __/ (_| | | | (_| | |_) | | | |", "#818cf8"},
	{" |_| |_|  \\__,_|_| |_| |_|\\___|\\__, |_|  \\__,_| .__/|_| |_|", "#a78bfa"},
	{"                               |___/          |_|          ", "#c084fc"},
}

// PrintBanner writes the framegraph banner to w, colored when the terminal supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
