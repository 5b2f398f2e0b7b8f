// Package report renders a heap.Report as human-readable text, the same
// information Heap.CollectGarbage's printReport flag prints inline, but
// reusable by callers (a debug console, a periodic monitor) that want it
// as a string, on their own writer, or colorized for a terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inhies/go-bytesize"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/sprigvm/heap/heap"
)

// ANSI attributes used by the colorized rendering: survivors in green,
// reclaimed counts in red, the header in bold.
const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
)

func fprint(w io.Writer, r heap.Report, colored bool) {
	bold, green, red, reset := "", "", "", ""
	if colored {
		bold, green, red, reset = ansiBold, ansiGreen, ansiRed, ansiReset
	}
	fmt.Fprintf(w, "%sGarbage collection report%s\n", bold, reset)
	fmt.Fprintf(w, "=============================================\n")
	fmt.Fprintf(w, "     Time spent: %s\n", r.Duration)
	fmt.Fprintf(w, "     Live cells: %s%d (%s)%s\n", green, r.LiveCells, bytesize.New(float64(r.LiveCellBytes)), reset)
	fmt.Fprintf(w, "Collected cells: %s%d (%s)%s\n", red, r.CollectedCells, bytesize.New(float64(r.CollectedCellBytes)), reset)
	fmt.Fprintf(w, "    Live blocks: %d\n", r.LiveBlocks)
	fmt.Fprintf(w, "   Freed blocks: %d\n", r.FreedBlocks)
	fmt.Fprintf(w, "=============================================\n")
}

// Fprint writes r to w as plain text, no escape sequences.
func Fprint(w io.Writer, r heap.Report) {
	fprint(w, r, false)
}

// FprintColored writes r to w with ANSI color attributes. The caller
// decides whether w can render them; when w is a Windows console, wrap
// it with go-colorable first so the sequences are translated rather
// than printed raw.
func FprintColored(w io.Writer, r heap.Report) {
	fprint(w, r, true)
}

// PrintStdout writes r to stdout, colorized when stdout is a terminal.
// The colorable wrapping keeps the ANSI sequences working on Windows
// consoles predating VT100 passthrough.
func PrintStdout(r heap.Report) {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		FprintColored(colorable.NewColorable(os.Stdout), r)
		return
	}
	Fprint(os.Stdout, r)
}

// Sprint renders r as a plain string, no color codes.
func Sprint(r heap.Report) string {
	var sb strings.Builder
	Fprint(&sb, r)
	return sb.String()
}
