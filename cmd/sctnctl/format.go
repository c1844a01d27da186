package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const barWidth = 24

// colorEnabled reports whether w is a terminal that should get ANSI colors.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// bar renders v relative to max as a fixed-width bar. Negative values are
// drawn red when color is on.
func bar(v, max float64, color bool) string {
	filled := 0
	if max > 0 && !math.IsNaN(v) {
		filled = int(math.Round(math.Abs(v) / max * barWidth))
	}
	filled = min(filled, barWidth)
	s := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
	if !color {
		return s
	}
	if v < 0 {
		return "\x1b[31m" + s + "\x1b[0m"
	}
	return "\x1b[32m" + s + "\x1b[0m"
}

func maxAbs(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func printBars(w io.Writer, label string, values []float64, color bool) {
	m := maxAbs(values)
	for i, v := range values {
		fmt.Fprintf(w, "  %s[%d] %10.3f %s\n", label, i, v, bar(v, m, color))
	}
}

func ticks(n int) string {
	return humanize.Comma(int64(n))
}

func hz(f float64) string {
	return humanize.FtoaWithDigits(f, 3) + " Hz"
}
