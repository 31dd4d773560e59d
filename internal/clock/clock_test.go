package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var order []string
	c.AfterFunc(2*time.Minute, func() { order = append(order, "b") })
	c.AfterFunc(time.Minute, func() { order = append(order, "a") })
	c.AfterFunc(3*time.Minute, func() { order = append(order, "c") })

	c.Advance(2 * time.Minute)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Minute)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, time.Unix(180, 0), c.Now())
}

func TestFakeStop(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFakeRearmWithinWindow(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(time.Minute, tick)
	}
	c.AfterFunc(time.Minute, tick)

	c.Advance(5 * time.Minute)
	assert.Equal(t, 5, ticks)
	assert.Equal(t, 1, c.Pending())
}

func TestFakeNowDuringCallback(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewFake(start)
	var seen time.Time
	c.AfterFunc(90*time.Second, func() { seen = c.Now() })

	c.Advance(10 * time.Minute)
	assert.Equal(t, start.Add(90*time.Second), seen)
}
