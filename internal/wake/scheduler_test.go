package wake

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bhandras/agbridge/internal/clock"
	"github.com/stretchr/testify/require"
)

// scriptedWaker returns results in order, repeating the last one.
type scriptedWaker struct {
	mu      sync.Mutex
	results []Result
	calls   int
	block   chan struct{}
	entered chan struct{}
}

func (w *scriptedWaker) Wake(ctx context.Context) Result {
	w.mu.Lock()
	w.calls++
	i := w.calls - 1
	if i >= len(w.results) {
		i = len(w.results) - 1
	}
	res := w.results[i]
	block, entered := w.block, w.entered
	w.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}
	return res
}

func (w *scriptedWaker) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

var (
	ok   = Result{OK: true, Method: "click"}
	busy = Result{Reason: "agent_busy"}
	hard = Result{Error: ErrSpawn, Details: "no such file"}
)

func newTestScheduler(w Waker) (*Scheduler, *clock.FakeClock) {
	clk := clock.NewFake(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	return NewScheduler(w, Config{Clock: clk}), clk
}

// triggerAndWait runs one Trigger to completion.
func triggerAndWait(s *Scheduler) {
	s.Trigger()
	s.wg.Wait()
}

func TestScheduler_SuccessReturnsToIdle(t *testing.T) {
	w := &scriptedWaker{results: []Result{ok}}
	s, clk := newTestScheduler(w)
	defer s.Stop()

	triggerAndWait(s)
	require.Equal(t, 1, w.count())
	require.Equal(t, StateIdle, s.State())
	require.Zero(t, clk.PendingCount())
}

func TestScheduler_Throttle(t *testing.T) {
	w := &scriptedWaker{results: []Result{ok}}
	s, clk := newTestScheduler(w)
	defer s.Stop()

	triggerAndWait(s)
	triggerAndWait(s)
	require.Equal(t, 1, w.count())

	clk.Advance(1900 * time.Millisecond)
	triggerAndWait(s)
	require.Equal(t, 1, w.count())

	clk.Advance(100 * time.Millisecond)
	triggerAndWait(s)
	require.Equal(t, 2, w.count())
}

func TestScheduler_BusyRetriesUntilCap(t *testing.T) {
	w := &scriptedWaker{results: []Result{busy}}
	s, clk := newTestScheduler(w)
	defer s.Stop()

	triggerAndWait(s)
	require.Equal(t, StateBackoff, s.State())
	require.Equal(t, 1, clk.PendingCount())

	// Triggers during backoff do not start extra attempts.
	triggerAndWait(s)
	require.Equal(t, 1, w.count())

	for i := 0; i < DefaultMaxRetries; i++ {
		clk.Advance(DefaultRetryInterval)
	}
	require.Equal(t, 1+DefaultMaxRetries, w.count())
	require.Equal(t, StateBackoff, s.State())

	// The next tick exceeds the cap and ends the loop without an attempt.
	clk.Advance(DefaultRetryInterval)
	require.Equal(t, 1+DefaultMaxRetries, w.count())
	require.Equal(t, StateIdle, s.State())
	require.Zero(t, clk.PendingCount())

	clk.Advance(time.Minute)
	require.Equal(t, 1+DefaultMaxRetries, w.count())
}

func TestScheduler_SuccessCancelsLoop(t *testing.T) {
	w := &scriptedWaker{results: []Result{busy, busy, ok}}
	s, clk := newTestScheduler(w)
	defer s.Stop()

	triggerAndWait(s)
	clk.Advance(DefaultRetryInterval)
	require.Equal(t, StateBackoff, s.State())
	clk.Advance(DefaultRetryInterval)
	require.Equal(t, 3, w.count())
	require.Equal(t, StateIdle, s.State())

	clk.Advance(time.Minute)
	require.Equal(t, 3, w.count())
	require.Zero(t, clk.PendingCount())
}

func TestScheduler_HardFailureCancelsLoop(t *testing.T) {
	w := &scriptedWaker{results: []Result{busy, hard}}
	s, clk := newTestScheduler(w)
	defer s.Stop()

	triggerAndWait(s)
	clk.Advance(DefaultRetryInterval)
	require.Equal(t, 2, w.count())
	require.Equal(t, StateIdle, s.State())

	clk.Advance(time.Minute)
	require.Equal(t, 2, w.count())
}

func TestScheduler_HardFailureIsNotRetried(t *testing.T) {
	w := &scriptedWaker{results: []Result{hard}}
	s, clk := newTestScheduler(w)
	defer s.Stop()

	triggerAndWait(s)
	require.Equal(t, StateIdle, s.State())
	require.Zero(t, clk.PendingCount())
}

func TestScheduler_SingleFlight(t *testing.T) {
	w := &scriptedWaker{
		results: []Result{ok},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 4),
	}
	s, clk := newTestScheduler(w)
	defer s.Stop()

	s.Trigger()
	<-w.entered
	require.Equal(t, StateInflight, s.State())

	// Neither a trigger nor a direct retry attempt may start a second call.
	clk.Advance(10 * time.Second)
	s.Trigger()
	s.attempt(true)
	require.Equal(t, 1, w.count())

	close(w.block)
	s.wg.Wait()
	require.Equal(t, StateIdle, s.State())
	require.Equal(t, 1, w.count())
}

func TestScheduler_StopCancelsLoop(t *testing.T) {
	w := &scriptedWaker{results: []Result{busy}}
	s, clk := newTestScheduler(w)

	triggerAndWait(s)
	require.Equal(t, StateBackoff, s.State())

	s.Stop()
	require.Equal(t, StateIdle, s.State())
	clk.Advance(time.Minute)
	require.Equal(t, 1, w.count())

	s.Trigger()
	require.Equal(t, 1, w.count())
}
