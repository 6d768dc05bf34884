package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the leadflow banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Warm gradient (amber to rose)
	lines := []struct{ text, color string }{
		{" _                _  __ _               ", "#fbbf24"},
		{"| | ___  __ _  __| |/ _| | _____      __", "#fb923c"},
		{"| |/ _ \\/ _` |/ _` | |_| |/ _ \\ \\ /\\ / /", "#f97316"},
		{"| |  __/ (_| | (_| |  _| | (_) \\ V  V / ", "#f43f5e"},
		{"|_|\\___|\\__,_|\\__,_|_| |_|\\___/ \\_/\\_/  ", "#e11d48"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
