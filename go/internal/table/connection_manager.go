package table

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/gemtable/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ConnectionState is the lifecycle state of the push channel.
type ConnectionState string

const (
	StateClosed     ConnectionState = "closed"
	StateConnecting ConnectionState = "connecting"
	StateOpen       ConnectionState = "open"
)

// ConnectionConfig holds configuration for the push channel.
type ConnectionConfig struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	MaxMessageSize   int64
}

// DefaultConnectionConfig returns default push channel configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     25 * time.Second,
		MaxMessageSize:   1 << 20, // snapshots carry the whole room
	}
}

// channelHandler receives channel events. It is never called with the
// manager's lock held.
type channelHandler interface {
	channelOpened(s models.Session)
	channelClosed(s models.Session, err error)
	channelMessage(s models.Session, msg Message)
	channelUndecodable(s models.Session, raw []byte, err error)
}

// URLFunc resolves the push channel address for a session.
type URLFunc func(roomRef, playerID string) (string, error)

// ConnectionManager owns the single push channel of the active session.
// Opening a new channel always tears down the previous one first, and events
// from a torn-down channel are discarded.
type ConnectionManager struct {
	mu      sync.Mutex
	config  ConnectionConfig
	dialer  *websocket.Dialer
	urlFor  URLFunc
	handler channelHandler

	state  ConnectionState
	conn   *websocket.Conn
	gen    uint64
	cancel context.CancelFunc
}

// NewConnectionManager creates a closed connection manager.
func NewConnectionManager(config ConnectionConfig, urlFor URLFunc, handler channelHandler) *ConnectionManager {
	return &ConnectionManager{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
		},
		urlFor:  urlFor,
		handler: handler,
		state:   StateClosed,
	}
}

// State returns the current lifecycle state.
func (cm *ConnectionManager) State() ConnectionState {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.state
}

// Open starts connecting the channel for a session in the background.
func (cm *ConnectionManager) Open(s models.Session) {
	cm.mu.Lock()
	cm.teardownLocked()
	cm.gen++
	gen := cm.gen
	ctx, cancel := context.WithCancel(context.Background())
	cm.cancel = cancel
	cm.state = StateConnecting
	cm.mu.Unlock()

	log.Info().
		Str("room_id", s.RoomID).
		Str("player_id", s.PlayerID).
		Msg("opening push channel")

	go cm.run(ctx, gen, s)
}

// Close tears down the channel. It is safe to call in any state.
func (cm *ConnectionManager) Close() {
	cm.mu.Lock()
	wasActive := cm.state != StateClosed
	cm.teardownLocked()
	cm.gen++
	cm.mu.Unlock()

	if wasActive {
		log.Info().Msg("push channel closed")
	}
}

func (cm *ConnectionManager) teardownLocked() {
	if cm.cancel != nil {
		cm.cancel()
		cm.cancel = nil
	}
	if cm.conn != nil {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = cm.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = cm.conn.Close()
		cm.conn = nil
	}
	cm.state = StateClosed
}

// current reports whether gen is still the live channel generation.
func (cm *ConnectionManager) current(gen uint64) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.gen == gen
}

// markClosed moves a live generation to Closed. It reports false when the
// generation was already torn down.
func (cm *ConnectionManager) markClosed(gen uint64) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.gen != gen {
		return false
	}
	if cm.cancel != nil {
		cm.cancel()
		cm.cancel = nil
	}
	if cm.conn != nil {
		_ = cm.conn.Close()
		cm.conn = nil
	}
	cm.state = StateClosed
	return true
}

func (cm *ConnectionManager) run(ctx context.Context, gen uint64, s models.Session) {
	url, err := cm.urlFor(s.RoomID, s.PlayerID)
	if err != nil {
		cm.fail(gen, s, fmt.Errorf("failed to build channel url: %w", err))
		return
	}

	conn, _, err := cm.dialer.DialContext(ctx, url, nil)
	if err != nil {
		cm.fail(gen, s, fmt.Errorf("failed to dial push channel: %w", err))
		return
	}

	cm.mu.Lock()
	if cm.gen != gen {
		cm.mu.Unlock()
		_ = conn.Close()
		return
	}
	cm.conn = conn
	cm.state = StateOpen
	cm.mu.Unlock()

	log.Info().
		Str("room_id", s.RoomID).
		Str("player_id", s.PlayerID).
		Msg("push channel open")
	cm.handler.channelOpened(s)

	go cm.pingLoop(ctx, conn)
	cm.readLoop(gen, s, conn)
}

func (cm *ConnectionManager) fail(gen uint64, s models.Session, err error) {
	if !cm.markClosed(gen) {
		return
	}
	log.Warn().Err(err).Str("room_id", s.RoomID).Msg("push channel failed")
	cm.handler.channelClosed(s, err)
}

func (cm *ConnectionManager) readLoop(gen uint64, s models.Session, conn *websocket.Conn) {
	conn.SetReadLimit(cm.config.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !cm.markClosed(gen) {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("room_id", s.RoomID).Msg("push channel closed unexpectedly")
			} else {
				log.Info().Str("room_id", s.RoomID).Msg("push channel closed by server")
			}
			cm.handler.channelClosed(s, err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))

		if !cm.current(gen) {
			return
		}

		msg, err := ParseMessage(data)
		if err != nil {
			log.Warn().Err(err).RawJSON("payload", safeJSON(data)).Msg("undecodable push message")
			cm.handler.channelUndecodable(s, data, err)
			continue
		}

		log.Debug().
			Str("type", string(msg.Type)).
			Str("reason", msg.Reason).
			Msg("push message received")
		cm.handler.channelMessage(s, msg)
	}
}

var pingPayload = []byte(`{"type":"ping"}`)

// pingLoop is the only writer on conn apart from the close handshake.
func (cm *ConnectionManager) pingLoop(ctx context.Context, conn *websocket.Conn) {
	if cm.config.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cm.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				log.Debug().Err(err).Msg("failed to send ping")
				return
			}
		}
	}
}

// safeJSON returns data when it is valid JSON, otherwise a JSON string of it,
// so zerolog's RawJSON never emits a broken log line.
func safeJSON(data []byte) []byte {
	if json.Valid(data) {
		return data
	}
	quoted, _ := json.Marshal(string(data))
	return quoted
}
