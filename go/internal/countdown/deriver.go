// Package countdown derives the seconds left in the current turn from an
// absolute deadline, without any network traffic.
package countdown

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is how often the remaining time is recomputed.
const DefaultInterval = 200 * time.Millisecond

// Remaining returns the whole seconds left until deadline, rounded up and never
// negative.
func Remaining(deadline, now time.Time) int {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// Deriver keeps a remaining-seconds value in step with a deadline. The ticker
// runs only while a deadline is set.
type Deriver struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	interval  time.Duration
	deadline  *time.Time
	remaining int
	stop      chan struct{}
	onChange  func(int)
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithClock sets the clock used for ticking.
func WithClock(c clockwork.Clock) Option {
	return func(d *Deriver) { d.clock = c }
}

// WithInterval overrides DefaultInterval.
func WithInterval(i time.Duration) Option {
	return func(d *Deriver) { d.interval = i }
}

// WithOnChange registers a callback invoked, outside the lock, whenever the
// remaining value changes.
func WithOnChange(fn func(int)) Option {
	return func(d *Deriver) { d.onChange = fn }
}

// NewDeriver creates an idle deriver.
func NewDeriver(opts ...Option) *Deriver {
	d := &Deriver{
		clock:    clockwork.NewRealClock(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetDeadline starts, restarts or stops ticking depending on the deadline.
// Setting the same deadline again is a no-op.
func (d *Deriver) SetDeadline(deadline *time.Time) {
	d.mu.Lock()
	if sameDeadline(d.deadline, deadline) {
		d.mu.Unlock()
		return
	}
	d.stopLocked()

	if deadline == nil {
		d.deadline = nil
		changed := d.remaining != 0
		d.remaining = 0
		d.mu.Unlock()
		log.Debug().Msg("turn countdown stopped")
		if changed {
			d.notify(0)
		}
		return
	}

	dl := *deadline
	d.deadline = &dl
	stop := make(chan struct{})
	d.stop = stop
	ticker := d.clock.NewTicker(d.interval)
	d.mu.Unlock()

	log.Debug().Time("deadline", dl).Msg("turn countdown started")
	d.tick(dl)
	go d.run(ticker, stop, dl)
}

// Remaining returns the last computed value.
func (d *Deriver) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.remaining
}

// Deadline returns the deadline being tracked, if any.
func (d *Deriver) Deadline() *time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.deadline == nil {
		return nil
	}
	dl := *d.deadline
	return &dl
}

// Stop halts ticking and zeroes the value.
func (d *Deriver) Stop() {
	d.SetDeadline(nil)
}

func (d *Deriver) run(ticker clockwork.Ticker, stop <-chan struct{}, deadline time.Time) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			d.tick(deadline)
		}
	}
}

func (d *Deriver) tick(deadline time.Time) {
	value := Remaining(deadline, d.clock.Now())

	d.mu.Lock()
	// A tick racing with a newer deadline must not overwrite it.
	if d.deadline == nil || !d.deadline.Equal(deadline) || d.remaining == value {
		d.mu.Unlock()
		return
	}
	d.remaining = value
	d.mu.Unlock()

	d.notify(value)
}

func (d *Deriver) stopLocked() {
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
}

func (d *Deriver) notify(v int) {
	if d.onChange != nil {
		d.onChange(v)
	}
}

func sameDeadline(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
