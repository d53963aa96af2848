package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// rateTracker reports rebuild throughput to a writer, at most once per
// reporting interval. The clock starts at construction.
type rateTracker struct {
	w        io.Writer
	total    int
	interval int

	mu       sync.Mutex
	done     int
	reported int
	begun    time.Time
}

func newRateTracker(w io.Writer, total, interval int) *rateTracker {
	if interval <= 0 {
		interval = 1
	}
	return &rateTracker{
		w:        w,
		total:    total,
		interval: interval,
		begun:    time.Now(),
	}
}

// Add advances the counter by n, emitting a progress line when a full
// interval has passed since the last one.
func (t *rateTracker) Add(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done += n
	if t.done > t.total {
		t.done = t.total
	}
	if t.done-t.reported >= t.interval {
		t.print()
		t.reported = t.done
	}
}

// Finish emits the final progress line and terminates it.
func (t *rateTracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done = t.total
	t.print()
	fmt.Fprintln(t.w)
}

// Elapsed returns the time since the tracker was created.
func (t *rateTracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.begun)
}

// print writes one progress line. Caller holds the mutex.
func (t *rateTracker) print() {
	percent := 0.0
	if t.total > 0 {
		percent = float64(t.done) / float64(t.total) * 100
	}
	rate := 0.0
	if elapsed := time.Since(t.begun); elapsed > 0 {
		rate = float64(t.done) / elapsed.Seconds()
	}
	fmt.Fprintf(t.w, "\rProgress: %d/%d (%.1f%%) at %.1f records/sec",
		t.done, t.total, percent, rate)
}
