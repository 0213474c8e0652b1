// Package clock supplies the "now" samples that drive countdown re-renders.
// The ticker only runs while somebody is subscribed.
package clock

import (
	"sync"
	"time"
)

// DefaultInterval is the re-render cadence used when none is configured.
const DefaultInterval = time.Second

// Clock samples wall-clock time on a fixed interval for its subscribers.
// Samples never go backwards; missed ticks are not replayed.
type Clock struct {
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	latest time.Time
	subs   map[int]chan time.Time
	nextID int
	stop   chan struct{}
	done   chan struct{}
}

// Option customizes a Clock.
type Option func(*Clock)

// WithNow replaces the wall-clock source, mainly for tests.
func WithNow(fn func() time.Time) Option {
	return func(c *Clock) { c.now = fn }
}

// New creates an idle Clock.
func New(interval time.Duration, opts ...Option) *Clock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Clock{
		interval: interval,
		now:      time.Now,
		subs:     make(map[int]chan time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest returns the most recent sample, or a fresh reading while idle.
func (c *Clock) Latest() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		c.latest = c.monotonic(c.now())
	}
	return c.latest
}

// Subscribe returns a channel of samples and a cancel func. The first
// subscription starts the ticker and the last cancel stops it. Slow readers
// only ever see the newest sample.
func (c *Clock) Subscribe() (<-chan time.Time, func()) {
	ch := make(chan time.Time, 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	if c.stop == nil {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.run(c.stop, c.done)
	}
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() { c.unsubscribe(id) })
	}
	return ch, cancel
}

// Running reports whether the ticker goroutine is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Clock) unsubscribe(id int) {
	c.mu.Lock()
	ch, ok := c.subs[id]
	if ok {
		delete(c.subs, id)
		close(ch)
	}
	var stop, done chan struct{}
	if len(c.subs) == 0 && c.stop != nil {
		stop, done = c.stop, c.done
		c.stop, c.done = nil, nil
	}
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (c *Clock) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Clock) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	sample := c.monotonic(c.now())
	c.latest = sample
	for _, ch := range c.subs {
		select {
		case ch <- sample:
		default:
			// drop the stale sample so the reader sees the newest one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- sample:
			default:
			}
		}
	}
}

// monotonic must be called with mu held.
func (c *Clock) monotonic(t time.Time) time.Time {
	if t.Before(c.latest) {
		return c.latest
	}
	return t
}
