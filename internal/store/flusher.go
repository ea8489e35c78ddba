package store

import (
	"sync"
	"time"

	"github.com/bhandras/agbridge/internal/clock"
	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/metrics"
)

// DefaultFlushDelay is how long the flusher waits for mutations to settle.
const DefaultFlushDelay = 250 * time.Millisecond

// Saver writes a snapshot durably.
type Saver interface {
	Save(Snapshot) error
}

// Flusher coalesces bursts of Schedule calls into a single Save issued once
// no further mutation has arrived for the configured delay.
type Flusher struct {
	saver    Saver
	snapshot func() Snapshot
	delay    time.Duration
	clock    clock.Clock

	mu      sync.Mutex
	timer   *clock.Timer
	gen     uint64
	pending bool
	closed  bool

	// saveMu serializes writes; it is never held together with mu.
	saveMu sync.Mutex
}

// NewFlusher returns a flusher that captures state with snapshot and writes
// it with saver.
func NewFlusher(saver Saver, snapshot func() Snapshot, delay time.Duration, clk clock.Clock) *Flusher {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Flusher{saver: saver, snapshot: snapshot, delay: delay, clock: clk}
}

// Schedule (re)arms the debounce timer. Callers may hold their own locks;
// Schedule never calls back into snapshot synchronously.
func (f *Flusher) Schedule() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.gen++
	gen := f.gen
	f.pending = true
	f.timer = f.clock.AfterFunc(f.delay, func() { f.fire(gen) })
}

func (f *Flusher) fire(gen uint64) {
	f.mu.Lock()
	if gen != f.gen || !f.pending {
		f.mu.Unlock()
		return
	}
	f.pending = false
	f.timer = nil
	f.mu.Unlock()

	_ = f.write()
}

// Flush writes immediately if a flush is pending.
func (f *Flusher) Flush() error {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	pending := f.pending
	f.pending = false
	f.gen++
	f.mu.Unlock()

	if !pending {
		return nil
	}
	return f.write()
}

// Close flushes pending state and disables further scheduling.
func (f *Flusher) Close() error {
	err := f.Flush()
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return err
}

// Pending reports whether a write is scheduled.
func (f *Flusher) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

func (f *Flusher) write() error {
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	snap := f.snapshot()
	if err := f.saver.Save(snap); err != nil {
		metrics.SnapshotFlushes.WithLabelValues("error").Inc()
		logger.Errorf("[PERSIST] Failed to save snapshot: %v", err)
		return err
	}
	metrics.SnapshotFlushes.WithLabelValues("ok").Inc()
	logger.Debugf("[PERSIST] Saved snapshot (%d approvals, %d messages)",
		len(snap.Approvals), len(snap.Messages))
	return nil
}
