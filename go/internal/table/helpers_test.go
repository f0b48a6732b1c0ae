package table

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gemtable/go/clients/tabletop_client"
	"github.com/mcdev12/gemtable/go/internal/models"
	"github.com/mcdev12/gemtable/go/internal/session"
	"github.com/stretchr/testify/require"
)

var errUnexpectedCall = errors.New("unexpected call")

// fakeAPI answers gateway calls from per-test funcs.
type fakeAPI struct {
	wsBase string

	create func(hostName string, turnSeconds int) (*models.JoinResult, error)
	join   func(roomRef, playerName string) (*models.JoinResult, error)
	start  func(roomRef, playerID string) (*models.Room, error)
	get    func(roomRef string) (*models.Room, error)
	apply  func(roomRef, playerID string, action models.Action) (*models.Room, error)

	calls atomic.Int32
}

func (f *fakeAPI) CreateRoom(_ context.Context, hostName string, turnSeconds int) (*models.JoinResult, error) {
	f.calls.Add(1)
	if f.create == nil {
		return nil, errUnexpectedCall
	}
	return f.create(hostName, turnSeconds)
}

func (f *fakeAPI) JoinRoom(_ context.Context, roomRef, playerName string) (*models.JoinResult, error) {
	f.calls.Add(1)
	if f.join == nil {
		return nil, errUnexpectedCall
	}
	return f.join(roomRef, playerName)
}

func (f *fakeAPI) StartGame(_ context.Context, roomRef, playerID string) (*models.Room, error) {
	f.calls.Add(1)
	if f.start == nil {
		return nil, errUnexpectedCall
	}
	return f.start(roomRef, playerID)
}

func (f *fakeAPI) GetRoom(_ context.Context, roomRef string) (*models.Room, error) {
	f.calls.Add(1)
	if f.get == nil {
		return nil, errUnexpectedCall
	}
	return f.get(roomRef)
}

func (f *fakeAPI) ApplyAction(_ context.Context, roomRef, playerID string, action models.Action) (*models.Room, error) {
	f.calls.Add(1)
	if f.apply == nil {
		return nil, errUnexpectedCall
	}
	return f.apply(roomRef, playerID, action)
}

func (f *fakeAPI) WebSocketURL(roomRef, playerID string) (string, error) {
	return tabletop_client.BuildWebSocketURL(f.wsBase, roomRef, playerID)
}

// wsServer is a push channel endpoint that records connections and lets the
// test push frames to the latest one. It answers pings with pongs.
type wsServer struct {
	*httptest.Server

	mu      sync.Mutex
	writeMu sync.Mutex
	conns   []*websocket.Conn
	queries []url.Values
	pings   atomic.Int32
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.queries = append(s.queries, r.URL.Query())
		s.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if strings.Contains(string(data), `"ping"`) {
				s.pings.Add(1)
				s.writeMu.Lock()
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pong"}`))
				s.writeMu.Unlock()
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *wsServer) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *wsServer) lastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return nil
	}
	return s.queries[len(s.queries)-1]
}

func (s *wsServer) last(t *testing.T) *websocket.Conn {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.conns)
	return s.conns[len(s.conns)-1]
}

func (s *wsServer) pushRaw(t *testing.T, data []byte) {
	t.Helper()
	conn := s.last(t)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func (s *wsServer) push(t *testing.T, msg any) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	s.pushRaw(t, data)
}

func (s *wsServer) dropLast(t *testing.T) {
	t.Helper()
	conn := s.last(t)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}

type harness struct {
	client *Client
	api    *fakeAPI
	ws     *wsServer
	store  *session.MemoryStore
	clock  *clockwork.FakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ws := newWSServer(t)
	h := &harness{
		api:   &fakeAPI{wsBase: ws.URL},
		ws:    ws,
		store: session.NewMemoryStore(),
		clock: clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	h.client = NewClient(Config{
		API:        h.api,
		Sessions:   h.store,
		Clock:      h.clock,
		Connection: DefaultConnectionConfig(),
	})
	t.Cleanup(h.client.Close)
	return h
}

// enter creates a room hosted by "Ana" and waits for its channel to open.
func (h *harness) enter(t *testing.T, room *models.Room) {
	t.Helper()
	h.api.create = func(string, int) (*models.JoinResult, error) {
		return &models.JoinResult{Room: room, Player: models.Player{ID: "p1", Name: "Ana"}}, nil
	}
	require.NoError(t, h.client.CreateRoom(context.Background(), "Ana", 30))
	h.waitOpen(t)
}

func (h *harness) waitOpen(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.client.ConnectionState() == StateOpen && hasLine(h.client.View().Log, "WS connected")
	}, 2*time.Second, 5*time.Millisecond)
}

// hasLine reports whether a timestamped log line carries msg.
func hasLine(lines []string, msg string) bool {
	for _, l := range lines {
		if len(l) > len("15:04:05 ") && l[len("15:04:05 "):] == msg {
			return true
		}
	}
	return false
}

func lobbyRoom(players ...string) *models.Room {
	room := &models.Room{ID: "room-1", Code: "ABCD", HostID: "p1", Status: models.RoomStatusWaiting}
	for i, name := range players {
		room.Players = append(room.Players, models.Player{ID: "p" + string(rune('1'+i)), Name: name})
	}
	return room
}

func gameRoom(turn int, current string) *models.Room {
	room := lobbyRoom("Ana", "Ben")
	room.Status = models.RoomStatusPlaying
	room.Game = &models.GameState{
		Status:          models.GameStatusPlaying,
		Turn:            turn,
		CurrentPlayerID: current,
		Bank:            models.TokenSet{White: 4, Blue: 4, Green: 4, Red: 4, Black: 4, Gold: 5},
		Players: []models.PlayerState{
			{ID: "p1", Name: "Ana", Tokens: models.TokenSet{Red: 1}},
			{ID: "p2", Name: "Ben"},
		},
	}
	return room
}
