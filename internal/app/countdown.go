package app

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LowTimeThreshold is the remaining time, in seconds, at or below which the clock is shown as low.
const LowTimeThreshold = 300

// CountdownOption configures a Countdown.
type CountdownOption func(*Countdown)

// WithTickInterval overrides the one-second tick. Tests use milliseconds.
func WithTickInterval(d time.Duration) CountdownOption {
	return func(c *Countdown) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithTickObserver is called after every tick with the remaining seconds.
func WithTickObserver(fn func(remaining int)) CountdownOption {
	return func(c *Countdown) { c.onTick = fn }
}

// Countdown counts whole seconds down from a whole-minute duration and calls
// onExpire exactly once when it reaches zero.
type Countdown struct {
	interval time.Duration
	onExpire func()
	onTick   func(remaining int)

	mu        sync.Mutex
	remaining int
	expired   bool
	started   bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewCountdown(minutes int, onExpire func(), opts ...CountdownOption) *Countdown {
	if minutes < 0 {
		minutes = 0
	}
	c := &Countdown{
		interval:  time.Second,
		onExpire:  onExpire,
		remaining: minutes * 60,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tick advances the countdown by one second and returns the remaining time.
// Ticks after expiry change nothing and never re-fire the callback.
func (c *Countdown) Tick() int {
	c.mu.Lock()
	if c.expired {
		c.mu.Unlock()
		return 0
	}
	c.remaining--
	fire := false
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		fire = true
	}
	remaining := c.remaining
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if fire && c.onExpire != nil {
		c.onExpire()
	}
	return remaining
}

// Start launches the ticking goroutine. It exits, releasing its ticker, when
// ctx is done, Stop is called or the countdown expires. Calling Start twice is a no-op.
func (c *Countdown) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run(ctx)
}

func (c *Countdown) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.Tick()
			if c.Expired() {
				return
			}
		}
	}
}

// Stop ends ticking without firing the callback. It does not wait for the goroutine.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed once the goroutine launched by Start has exited.
func (c *Countdown) Done() <-chan struct{} { return c.done }

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func IsLowTime(seconds int) bool {
	return seconds <= LowTimeThreshold
}
