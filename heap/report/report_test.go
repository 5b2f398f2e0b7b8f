package report

import (
	"strings"
	"testing"
	"time"

	"github.com/sprigvm/heap/heap"
)

func TestSprint(t *testing.T) {
	r := heap.Report{
		Duration:           3 * time.Millisecond,
		LiveCells:          7,
		CollectedCells:     2,
		LiveCellBytes:      448,
		CollectedCellBytes: 128,
		LiveBlocks:         1,
		FreedBlocks:        0,
	}
	out := Sprint(r)
	for _, want := range []string{
		"Garbage collection report",
		"Live cells: 7 (448.00B)",
		"Collected cells: 2 (128.00B)",
		"Live blocks: 1",
		"Freed blocks: 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain rendering contains escape sequences:\n%q", out)
	}
}

func TestFprintColored(t *testing.T) {
	r := heap.Report{LiveCells: 3, CollectedCells: 1}
	var sb strings.Builder
	FprintColored(&sb, r)
	out := sb.String()
	for _, want := range []string{ansiBold, ansiGreen, ansiRed, ansiReset} {
		if !strings.Contains(out, want) {
			t.Errorf("colored rendering missing %q:\n%q", want, out)
		}
	}
	if !strings.Contains(out, "Live cells: \x1b[32m3") {
		t.Errorf("live count not wrapped in green:\n%q", out)
	}
}
