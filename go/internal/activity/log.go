// Package activity keeps the human-readable status line and event log shown to
// the player.
package activity

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// MaxLines caps the retained log.
	MaxLines = 120

	InitialStatus = "Ready"
	InitialLine   = "System ready"
)

// Entry is one published log line.
type Entry struct {
	RoomID   string    `json:"room"`
	PlayerID string    `json:"player"`
	Line     string    `json:"line"`
	At       time.Time `json:"at"`
}

// Publisher mirrors log lines somewhere outside the process.
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
}

// Log holds the status text and a newest-first list of timestamped lines.
type Log struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	status    string
	lines     []string
	publisher Publisher
	roomID    string
	playerID  string
}

// NewLog creates a log seeded with the initial status and line.
func NewLog(clock clockwork.Clock, publisher Publisher) *Log {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := &Log{
		clock:     clock,
		status:    InitialStatus,
		publisher: publisher,
	}
	l.Append(InitialLine)
	return l
}

// SetScope tags subsequently published entries with the session identity.
func (l *Log) SetScope(roomID, playerID string) {
	l.mu.Lock()
	l.roomID, l.playerID = roomID, playerID
	l.mu.Unlock()
}

// SetStatus replaces the status text.
func (l *Log) SetStatus(status string) {
	l.mu.Lock()
	l.status = status
	l.mu.Unlock()
}

// Status returns the current status text.
func (l *Log) Status() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Append prepends a timestamped line, dropping the oldest past MaxLines.
func (l *Log) Append(message string) {
	now := l.clock.Now()
	line := now.Format("15:04:05") + " " + message

	l.mu.Lock()
	l.lines = append([]string{line}, l.lines...)
	if len(l.lines) > MaxLines {
		l.lines = l.lines[:MaxLines]
	}
	entry := Entry{RoomID: l.roomID, PlayerID: l.playerID, Line: message, At: now}
	publisher := l.publisher
	l.mu.Unlock()

	log.Debug().Str("line", message).Msg("activity")
	if publisher != nil {
		if err := publisher.Publish(context.Background(), entry); err != nil {
			log.Warn().Err(err).Msg("failed to publish activity line")
		}
	}
}

// Report sets the status and appends the same text as a line.
func (l *Log) Report(message string) {
	l.SetStatus(message)
	l.Append(message)
}

// Lines returns the retained lines, newest first.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}
