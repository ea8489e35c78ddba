package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeClock_AfterFuncFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var order []string
	var seen []time.Time
	c.AfterFunc(3*time.Second, func() {
		order = append(order, "b")
		seen = append(seen, c.Now())
	})
	c.AfterFunc(time.Second, func() {
		order = append(order, "a")
		seen = append(seen, c.Now())
	})
	c.AfterFunc(10*time.Second, func() { order = append(order, "late") })

	c.Advance(5 * time.Second)
	require.Equal(t, []string{"a", "b"}, order)
	require.Equal(t, start.Add(time.Second), seen[0])
	require.Equal(t, start.Add(3*time.Second), seen[1])
	require.Equal(t, start.Add(5*time.Second), c.Now())
	require.Equal(t, 1, c.PendingCount())
}

func TestFakeClock_StopPreventsFiring(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	require.True(t, timer.Stop())
	require.False(t, timer.Stop())

	c.Advance(2 * time.Second)
	require.False(t, fired)
	require.Zero(t, c.PendingCount())
}

func TestFakeClock_ChainedCallbacksWithinOneAdvance(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3500 * time.Millisecond)
	require.Equal(t, 3, ticks)
	require.Equal(t, 1, c.PendingCount())
}
