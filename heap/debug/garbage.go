// Package debug mirrors the standard library's runtime/debug GC controls,
// but aimed at a heap.Heap instead of the Go runtime's own collector.
package debug

import (
	"sync"
	"time"

	"github.com/sprigvm/heap/heap"
)

// GCStats summarizes a heap's collection history, in the shape of
// debug.GCStats.
type GCStats struct {
	LastGC     time.Time
	NumGC      int64
	PauseTotal time.Duration
	LastPause  time.Duration
}

type Tracker struct {
	lastGC     time.Time
	numGC      int64
	pauseTotal time.Duration
}

var (
	trackersMu sync.Mutex
	trackers   = map[*heap.Heap]*Tracker{}
)

// ReadGCStats fills stats with h's collection history. Call Track(h) once
// after creating a heap for ReadGCStats to have anything to report;
// otherwise NumGC stays zero.
func ReadGCStats(h *heap.Heap, stats *GCStats) {
	trackersMu.Lock()
	t, ok := trackers[h]
	trackersMu.Unlock()
	if !ok {
		return
	}
	stats.LastGC = t.lastGC
	stats.NumGC = t.numGC
	stats.PauseTotal = t.pauseTotal
	r := h.LastReport()
	stats.LastPause = r.Duration
}

// Track registers h for collection-history bookkeeping and returns the
// tracker that Observe folds completed reports into; the caller is
// expected to call Observe once per completed cycle (for instance, from
// the same call site that invokes h.CollectGarbage).
func Track(h *heap.Heap) *Tracker {
	trackersMu.Lock()
	defer trackersMu.Unlock()
	t, ok := trackers[h]
	if !ok {
		t = &Tracker{}
		trackers[h] = t
	}
	return t
}

// Observe folds one completed report into the tracker returned by Track.
// when is the wall-clock time the cycle completed; the caller supplies it
// since this package has no other source of the current time.
func (t *Tracker) Observe(r heap.Report, when time.Time) {
	trackersMu.Lock()
	defer trackersMu.Unlock()
	t.numGC++
	t.pauseTotal += r.Duration
	t.lastGC = when
}

// FreeOSMemory forces an immediate collection, matching
// debug.FreeOSMemory's "collect now, regardless of the adaptive
// threshold" contract. Empty blocks are dropped from their allocators
// during the sweep, which is as close to returning memory to the OS as
// a hosted collector gets.
func FreeOSMemory(h *heap.Heap) {
	h.CollectGarbage(heap.CollectGarbage, false)
}
