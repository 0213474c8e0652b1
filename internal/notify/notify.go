// Package notify holds the single transient status message shown outside the
// upload session.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a message stays visible.
const DefaultTTL = 3 * time.Second

// Tone selects the styling of a message.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// Message is the visible notification.
type Message struct {
	Text      string    `json:"message"`
	Tone      Tone      `json:"tone"`
	ShownAt   time.Time `json:"shownAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notifier keeps at most one message. A new message replaces the old one.
// Every Notify arms its own expiry, and any expiry clears whatever is visible,
// so an earlier timer can end a newer message early.
type Notifier struct {
	ttl      time.Duration
	now      func() time.Time
	onChange func(*Message)

	mu      sync.Mutex
	current *Message
	timers  map[uint64]*time.Timer
	seq     uint64
}

// Option customizes a Notifier.
type Option func(*Notifier)

// WithOnChange registers a callback invoked with the new message, or nil on
// expiry. It runs outside the notifier's lock.
func WithOnChange(fn func(*Message)) Option {
	return func(n *Notifier) { n.onChange = fn }
}

// WithNow replaces the wall-clock source.
func WithNow(fn func() time.Time) Option {
	return func(n *Notifier) { n.now = fn }
}

// New creates an empty Notifier.
func New(ttl time.Duration, opts ...Option) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	n := &Notifier{ttl: ttl, now: time.Now, timers: make(map[uint64]*time.Timer)}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify shows message with tone, replacing anything visible.
func (n *Notifier) Notify(message string, tone Tone) {
	if tone == "" {
		tone = ToneSuccess
	}
	shown := n.now()
	msg := &Message{Text: message, Tone: tone, ShownAt: shown, ExpiresAt: shown.Add(n.ttl)}

	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.current = msg
	n.timers[seq] = time.AfterFunc(n.ttl, func() { n.expire(seq) })
	n.mu.Unlock()

	n.changed(msg)
}

// Current returns a copy of the visible message.
func (n *Notifier) Current() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Message{}, false
	}
	return *n.current, true
}

// Stop cancels every pending expiry and clears the slot.
func (n *Notifier) Stop() {
	n.mu.Lock()
	for seq, t := range n.timers {
		t.Stop()
		delete(n.timers, seq)
	}
	n.current = nil
	n.mu.Unlock()
}

// expire clears the slot regardless of which message armed the timer.
func (n *Notifier) expire(seq uint64) {
	n.mu.Lock()
	if _, ok := n.timers[seq]; !ok {
		// cancelled by Stop after it had already fired
		n.mu.Unlock()
		return
	}
	delete(n.timers, seq)
	cleared := n.current != nil
	n.current = nil
	n.mu.Unlock()

	if cleared {
		n.changed(nil)
	}
}

func (n *Notifier) changed(msg *Message) {
	if n.onChange != nil {
		n.onChange(msg)
	}
}
