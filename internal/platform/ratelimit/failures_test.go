package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFailureLimiter(window time.Duration, max int) (*FailureLimiter, *clock) {
	l := NewFailureLimiter(window, max)
	c := newClock()
	l.now = c.now
	return l, c
}

func TestFailureLimiter_BlocksAtThreshold(t *testing.T) {
	l, _ := newTestFailureLimiter(10*time.Minute, 3)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("ip"), "до порога попытки разрешены")
		l.Failure("ip")
	}
	assert.False(t, l.Allow("ip"))
}

func TestFailureLimiter_ResetOnSuccess(t *testing.T) {
	l, _ := newTestFailureLimiter(10*time.Minute, 2)

	l.Failure("ip")
	l.Failure("ip")
	require.False(t, l.Allow("ip"))

	l.Reset("ip")
	assert.True(t, l.Allow("ip"))
}

func TestFailureLimiter_WindowElapsesResetsRecord(t *testing.T) {
	l, c := newTestFailureLimiter(10*time.Minute, 2)

	l.Failure("ip")
	l.Failure("ip")
	require.False(t, l.Allow("ip"))

	c.advance(10*time.Minute + time.Second)
	require.True(t, l.Allow("ip"))

	// новый провал после истёкшего окна начинает счёт заново
	l.Failure("ip")
	assert.True(t, l.Allow("ip"))
}

func TestFailureLimiter_SweepDropsStale(t *testing.T) {
	l, c := newTestFailureLimiter(10*time.Minute, 5)

	l.Failure("old")
	c.advance(21 * time.Minute)
	l.Failure("fresh")

	removed := l.Sweep()
	assert.Equal(t, 1, removed)
}
