package heap

import "time"

// Report summarizes one completed collection cycle: timing, survivor and
// reclaimed counts, and block-level occupancy. It backs both the
// human-readable collection report and the heap/metrics package's
// counters.
type Report struct {
	Duration           time.Duration
	LiveCells          int
	CollectedCells     int
	LiveCellBytes      uint64
	CollectedCellBytes uint64
	LiveBlocks         int
	FreedBlocks        int
}
