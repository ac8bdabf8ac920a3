package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Warden banner followed by the version line.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" __        __            _            ", "#34d399"},
		{" \\ \\      / /_ _ _ __ __| | ___ _ __  ", "#2dd4bf"},
		{"  \\ \\ /\\ / / _` | '__/ _` |/ _ \\ '_ \\ ", "#22d3ee"},
		{"   \\ V  V / (_| | | | (_| |  __/ | | |", "#38bdf8"},
		{"    \\_/\\_/ \\__,_|_|  \\__,_|\\___|_| |_|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("    v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
