package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	var expired int32
	done := make(chan struct{})

	c := NewCountdown(3, nil, func() {
		atomic.AddInt32(&expired, 1)
		close(done)
	})
	c.SetInterval(5 * time.Millisecond)
	c.Start()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown did not expire")
	}

	// Give any stray second firing a chance to happen.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&expired))
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdownRemainingNonIncreasing(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	done := make(chan struct{})

	c := NewCountdown(5, func(remaining int) {
		mu.Lock()
		seen = append(seen, remaining)
		mu.Unlock()
	}, func() {
		close(done)
	})
	c.SetInterval(5 * time.Millisecond)
	c.Start()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown did not expire")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	prev := 6
	for _, r := range seen {
		assert.Less(t, r, prev, "remaining must strictly decrease per tick")
		assert.GreaterOrEqual(t, r, 0, "remaining must never go negative")
		prev = r
	}
}

func TestCountdownStopIdempotent(t *testing.T) {
	c := NewCountdown(10, nil, func() {
		t.Error("stopped countdown must not expire")
	})
	c.SetInterval(5 * time.Millisecond)
	c.Start()

	c.Stop()
	c.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 10, c.Remaining())
}

func TestCountdownZeroExpiresOnFirstTick(t *testing.T) {
	done := make(chan struct{})
	c := NewCountdown(0, nil, func() { close(done) })
	c.SetInterval(5 * time.Millisecond)
	c.Start()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero countdown did not expire")
	}
}
