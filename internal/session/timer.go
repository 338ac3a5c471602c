package session

import (
	"sync"
	"time"
)

// Countdown is a one-second-resolution countdown owned by a single attempt.
// Remaining time only ever decreases and never goes below zero; reaching zero
// fires onExpire exactly once. Stop is idempotent and safe to call from the
// expire callback itself.
type Countdown struct {
	interval time.Duration
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	remaining int
	stopCh    chan struct{}
	stopped   bool
}

// NewCountdown creates a countdown of the given duration. onTick and onExpire
// may be nil. The tick interval is one second; tests shrink it via
// SetInterval before Start.
func NewCountdown(seconds int, onTick func(int), onExpire func()) *Countdown {
	return &Countdown{
		interval:  time.Second,
		remaining: seconds,
		onTick:    onTick,
		onExpire:  onExpire,
		stopCh:    make(chan struct{}),
	}
}

// SetInterval overrides the tick interval. Call before Start.
func (c *Countdown) SetInterval(d time.Duration) {
	c.interval = d
}

// Start launches the ticking goroutine. A countdown created at zero expires
// on the first tick.
func (c *Countdown) Start() {
	go c.run()
}

func (c *Countdown) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.stopped {
				c.mu.Unlock()
				return
			}
			if c.remaining > 0 {
				c.remaining--
			}
			remaining := c.remaining
			c.mu.Unlock()

			if remaining <= 0 {
				c.Stop()
				if c.onExpire != nil {
					c.onExpire()
				}
				return
			}
			if c.onTick != nil {
				c.onTick(remaining)
			}
		}
	}
}

// Stop cancels the countdown. Idempotent.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}
