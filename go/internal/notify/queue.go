// Package notify holds short-lived failure notices that expire on their own.
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long a notice stays visible unless dismissed.
const DefaultTTL = 4500 * time.Millisecond

// Notification is a single transient notice.
type Notification struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type entry struct {
	note  Notification
	timer clockwork.Timer
}

// Queue is an arena of notices keyed by id. Each notice schedules its own
// removal when pushed; dismissing it cancels that removal.
type Queue struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	ttl      time.Duration
	nextID   int64
	entries  map[int64]*entry
	onChange func()
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock sets the clock used for expiry.
func WithClock(c clockwork.Clock) Option {
	return func(q *Queue) { q.clock = c }
}

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(q *Queue) { q.ttl = d }
}

// WithOnChange registers a callback invoked after every push, dismissal and
// expiry. It runs outside the queue lock.
func WithOnChange(fn func()) Option {
	return func(q *Queue) { q.onChange = fn }
}

// NewQueue creates an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		clock:   clockwork.NewRealClock(),
		ttl:     DefaultTTL,
		nextID:  1,
		entries: make(map[int64]*entry),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push adds a notice and returns its id.
func (q *Queue) Push(text string) int64 {
	q.mu.Lock()
	id := q.nextID
	q.nextID++
	e := &entry{note: Notification{ID: id, Text: text, CreatedAt: q.clock.Now()}}
	q.entries[id] = e
	e.timer = q.clock.AfterFunc(q.ttl, func() { q.expire(id) })
	q.mu.Unlock()

	log.Debug().Int64("notification_id", id).Str("text", text).Msg("notification pushed")
	q.changed()
	return id
}

// Dismiss removes a notice before it expires. It reports whether the notice
// was still present.
func (q *Queue) Dismiss(id int64) bool {
	q.mu.Lock()
	e, ok := q.entries[id]
	if ok {
		e.timer.Stop()
		delete(q.entries, id)
	}
	q.mu.Unlock()

	if ok {
		q.changed()
	}
	return ok
}

// List returns the live notices, oldest first.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Notification, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e.note)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live notices.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Close cancels every pending expiry and empties the queue.
func (q *Queue) Close() {
	q.mu.Lock()
	for id, e := range q.entries {
		e.timer.Stop()
		delete(q.entries, id)
	}
	q.mu.Unlock()
}

func (q *Queue) expire(id int64) {
	q.mu.Lock()
	_, ok := q.entries[id]
	delete(q.entries, id)
	q.mu.Unlock()

	if ok {
		log.Debug().Int64("notification_id", id).Msg("notification expired")
		q.changed()
	}
}

func (q *Queue) changed() {
	if q.onChange != nil {
		q.onChange()
	}
}
