// Package table keeps a local replica of one game room in sync with the
// server. The Client owns the session and the latest snapshot; gateway replies
// and push channel snapshots are applied one at a time under a single lock.
package table

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gemtable/go/internal/activity"
	"github.com/mcdev12/gemtable/go/internal/countdown"
	"github.com/mcdev12/gemtable/go/internal/models"
	"github.com/mcdev12/gemtable/go/internal/notify"
	"github.com/mcdev12/gemtable/go/internal/reconcile"
	"github.com/mcdev12/gemtable/go/internal/session"
	"github.com/mcdev12/gemtable/go/internal/tokendraft"
	"github.com/rs/zerolog/log"
)

// RoomAPI is the server surface the client talks to.
type RoomAPI interface {
	CreateRoom(ctx context.Context, hostName string, turnSeconds int) (*models.JoinResult, error)
	JoinRoom(ctx context.Context, roomRef, playerName string) (*models.JoinResult, error)
	StartGame(ctx context.Context, roomRef, playerID string) (*models.Room, error)
	GetRoom(ctx context.Context, roomRef string) (*models.Room, error)
	ApplyAction(ctx context.Context, roomRef, playerID string, action models.Action) (*models.Room, error)
	WebSocketURL(roomRef, playerID string) (string, error)
}

// Config wires a Client.
type Config struct {
	API        RoomAPI
	Sessions   session.Store
	Clock      clockwork.Clock
	Publisher  activity.Publisher
	Connection ConnectionConfig
}

// Client is the state owner of the sync engine.
type Client struct {
	mu      sync.Mutex
	session *models.Session
	room    *models.Room

	api       RoomAPI
	sessions  session.Store
	conn      *ConnectionManager
	draft     *tokendraft.Engine
	notices   *notify.Queue
	countdown *countdown.Deriver
	activity  *activity.Log

	subsMu  sync.Mutex
	subs    map[int]chan View
	nextSub int

	changed   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client with no session.
func NewClient(cfg Config) *Client {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	connCfg := cfg.Connection
	if connCfg == (ConnectionConfig{}) {
		connCfg = DefaultConnectionConfig()
	}

	c := &Client{
		api:      cfg.API,
		sessions: sessions,
		draft:    tokendraft.NewEngine(),
		activity: activity.NewLog(clock, cfg.Publisher),
		subs:     make(map[int]chan View),
		changed:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	c.notices = notify.NewQueue(
		notify.WithClock(clock),
		notify.WithOnChange(c.markChanged),
	)
	c.countdown = countdown.NewDeriver(
		countdown.WithClock(clock),
		countdown.WithOnChange(func(int) { c.markChanged() }),
	)
	c.conn = NewConnectionManager(connCfg, cfg.API.WebSocketURL, c)

	go c.dispatch()
	return c
}

// Restore reloads a persisted session, reopens its channel and fetches the
// room. A session the server no longer recognizes is dropped.
func (c *Client) Restore(ctx context.Context) error {
	stored, ok := c.sessions.Load(ctx)
	if !ok {
		return nil
	}

	c.mu.Lock()
	c.setSessionLocked(ctx, &stored)
	c.activity.Append("Restored session for room " + stored.RoomID)
	c.mu.Unlock()
	c.markChanged()

	room, err := c.api.GetRoom(ctx, stored.RoomID)

	c.mu.Lock()
	defer c.markChanged()
	defer c.mu.Unlock()

	if !c.isCurrentLocked(stored) {
		log.Debug().Str("room_id", stored.RoomID).Msg("discarding restore reply for stale session")
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Str("room_id", stored.RoomID).Msg("stored session rejected")
		c.setSessionLocked(ctx, nil)
		c.setRoomLocked(nil)
		c.activity.SetStatus("Session expired, please rejoin room")
		c.activity.Append("Stored session is no longer valid")
		return err
	}
	c.setRoomLocked(room)
	return nil
}

// Leave drops the session, room and draft and returns to the home state.
func (c *Client) Leave(ctx context.Context) {
	c.mu.Lock()
	c.setSessionLocked(ctx, nil)
	c.setRoomLocked(nil)
	c.draft.Reset()
	c.activity.SetStatus(activity.InitialStatus)
	c.activity.Append("Back to home")
	c.mu.Unlock()
	c.markChanged()
}

// Close tears down the channel and timers and closes every subscription.
// The persisted session is kept so a later run can restore it.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
		c.countdown.Stop()
		c.notices.Close()
		close(c.done)
	})
}

// Session returns the active session, if any.
func (c *Client) Session() (models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return models.Session{}, false
	}
	return *c.session, true
}

// ConnectionState reports the push channel state.
func (c *Client) ConnectionState() ConnectionState {
	return c.conn.State()
}

// setSessionLocked swaps the session and performs its side effects: persist
// or clear storage, open or close the channel, and rescope the activity log.
func (c *Client) setSessionLocked(ctx context.Context, next *models.Session) {
	prev := c.session
	if prev == nil && next == nil {
		return
	}
	if prev != nil && next != nil && *prev == *next {
		return
	}

	if next == nil {
		c.session = nil
		c.conn.Close()
		c.activity.SetScope("", "")
		if err := c.sessions.Clear(ctx); err != nil {
			log.Error().Err(err).Msg("failed to clear stored session")
		}
		return
	}

	s := *next
	c.session = &s
	c.activity.SetScope(s.RoomID, s.PlayerID)
	if err := c.sessions.Save(ctx, s); err != nil {
		log.Error().Err(err).Str("room_id", s.RoomID).Msg("failed to persist session")
	}
	if s.Valid() {
		c.conn.Open(s)
	} else {
		c.conn.Close()
	}
}

// setRoomLocked replaces the held room and re-derives the countdown from it.
func (c *Client) setRoomLocked(room *models.Room) {
	c.room = room
	if room != nil && room.Game != nil && room.TurnDeadline != nil {
		c.countdown.SetDeadline(room.TurnDeadline)
		return
	}
	c.countdown.SetDeadline(nil)
}

func (c *Client) isCurrentLocked(s models.Session) bool {
	return c.session != nil && *c.session == s
}

// channelOpened implements channelHandler.
func (c *Client) channelOpened(s models.Session) {
	c.mu.Lock()
	if c.isCurrentLocked(s) {
		c.activity.SetStatus("WebSocket connected")
		c.activity.Append("WS connected")
	}
	c.mu.Unlock()
	c.markChanged()
}

// channelClosed implements channelHandler.
func (c *Client) channelClosed(s models.Session, _ error) {
	c.mu.Lock()
	if c.isCurrentLocked(s) {
		c.activity.SetStatus("WebSocket disconnected")
		c.activity.Append("WS disconnected")
	}
	c.mu.Unlock()
	c.markChanged()
}

// channelMessage implements channelHandler.
func (c *Client) channelMessage(s models.Session, msg Message) {
	c.mu.Lock()
	if !c.isCurrentLocked(s) {
		c.mu.Unlock()
		return
	}

	switch msg.Type {
	case MessageRoomSnapshot:
		c.applySnapshotLocked(msg.Reason, *msg.Room)
	case MessageActionError:
		text := "Action rejected: " + msg.Error
		c.activity.Report(text)
		c.notices.Push(text)
	case MessagePong:
	}
	c.mu.Unlock()
	c.markChanged()
}

// channelUndecodable implements channelHandler.
func (c *Client) channelUndecodable(s models.Session, _ []byte, _ error) {
	c.mu.Lock()
	if c.isCurrentLocked(s) {
		c.activity.SetStatus("Received unknown WS payload")
		c.activity.Append("Unknown WS payload")
	}
	c.mu.Unlock()
	c.markChanged()
}

func (c *Client) applySnapshotLocked(reason string, incoming models.Room) {
	result := reconcile.Reconcile(c.room, incoming, reason)
	for _, line := range result.Deltas {
		c.activity.Append(line)
	}
	if !result.Accept {
		log.Info().Str("reason", reason).Msg("ignored stale snapshot")
		return
	}

	room := incoming
	c.setRoomLocked(&room)
	c.activity.SetStatus("Realtime update: " + reason)
}
