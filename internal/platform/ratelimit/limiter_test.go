package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// фиксированные часы для тестов
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *clock                   { return &clock{t: time.Unix(1_700_000_000, 0)} }

func newTestLimiter(window time.Duration) (*Limiter, *clock) {
	l := NewLimiter(window)
	c := newClock()
	l.now = c.now
	return l, c
}

func TestLimiter_OneActionPerWindow(t *testing.T) {
	l, c := newTestLimiter(10 * time.Second)

	res := l.Check("1.2.3.4")
	require.True(t, res.Allowed)

	// вторая попытка внутри окна — отказ
	c.advance(3 * time.Second)
	res = l.Check("1.2.3.4")
	require.False(t, res.Allowed)
	assert.Equal(t, 7, res.RetryAfter)

	// отказ тоже записал попытку: окно считается от неё
	c.advance(8 * time.Second)
	res = l.Check("1.2.3.4")
	require.False(t, res.Allowed)

	// окно + 1мс от последней попытки — снова можно
	c.advance(10*time.Second + time.Millisecond)
	res = l.Check("1.2.3.4")
	assert.True(t, res.Allowed)
}

func TestLimiter_RetryAfterRoundsUp(t *testing.T) {
	l, c := newTestLimiter(10 * time.Second)

	require.True(t, l.Check("k").Allowed)
	c.advance(9500 * time.Millisecond)

	res := l.Check("k")
	require.False(t, res.Allowed)
	assert.Equal(t, 1, res.RetryAfter, "500мс остатка округляются до целой секунды вверх")
}

func TestLimiter_KeysIndependent(t *testing.T) {
	l, _ := newTestLimiter(10 * time.Second)

	require.True(t, l.Check("a").Allowed)
	assert.True(t, l.Check("b").Allowed)
	assert.False(t, l.Check("a").Allowed)
}

func TestLimiter_TouchRestartsWindow(t *testing.T) {
	l, c := newTestLimiter(10 * time.Second)

	require.True(t, l.Check("k").Allowed)
	c.advance(11 * time.Second)
	l.Touch("k")

	res := l.Check("k")
	assert.False(t, res.Allowed)
}

func TestLimiter_SweepDropsStale(t *testing.T) {
	l, c := newTestLimiter(10 * time.Second)

	l.Check("old")
	c.advance(21 * time.Second) // старше двух окон
	l.Check("fresh")

	removed := l.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, l.Len())

	// запись по old исчезла, попытка снова проходит
	assert.True(t, l.Check("old").Allowed)
}
