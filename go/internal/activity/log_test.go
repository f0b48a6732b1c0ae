package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (r *recordingPublisher) Publish(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return r.err
}

func TestLog_InitialState(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 9, 5, 7, 0, time.Local))
	l := NewLog(clock, nil)

	assert.Equal(t, InitialStatus, l.Status())
	assert.Equal(t, []string{"09:05:07 System ready"}, l.Lines())
}

func TestLog_NewestFirstAndCapped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewLog(clock, nil)

	for i := 0; i < MaxLines+10; i++ {
		l.Append(fmt.Sprintf("line %d", i))
	}
	lines := l.Lines()
	require.Len(t, lines, MaxLines)
	assert.Contains(t, lines[0], fmt.Sprintf("line %d", MaxLines+9))
	assert.Contains(t, lines[MaxLines-1], "line 10")
}

func TestLog_ReportSetsStatusAndLine(t *testing.T) {
	l := NewLog(clockwork.NewFakeClock(), nil)
	l.Report("WebSocket connected")

	assert.Equal(t, "WebSocket connected", l.Status())
	assert.Contains(t, l.Lines()[0], "WebSocket connected")
}

func TestLog_PublishesScopedEntries(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	l := NewLog(clockwork.NewFakeClock(), pub)
	l.SetScope("ABC123", "p-1")
	l.Append("Turn 2 -> Bob")

	require.Len(t, pub.entries, 2)
	assert.Equal(t, "", pub.entries[0].RoomID)
	assert.Equal(t, Entry{RoomID: "ABC123", PlayerID: "p-1", Line: "Turn 2 -> Bob", At: pub.entries[1].At}, pub.entries[1])
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "gemtable.activity.ABC123.log", Subject("gemtable.activity", "ABC123"))
	assert.Equal(t, "gemtable.activity.lobby.log", Subject("gemtable.activity", " "))
	assert.Equal(t, "x.a_b_c.log", Subject("x", "a.b>c"))
}
