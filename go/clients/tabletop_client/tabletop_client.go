package tabletop_client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mcdev12/gemtable/go/clients"
	"github.com/mcdev12/gemtable/go/internal/models"
)

// UserAgent identifies this client to the game server.
const UserAgent = "gemtable-client/1"

type TabletopClient struct {
	*clients.BaseClient
}

func NewTabletopClient(baseURL string) *TabletopClient {
	base := clients.NewBaseClient(strings.TrimRight(baseURL, "/"))
	base.SetHeader("User-Agent", UserAgent)
	return &TabletopClient{BaseClient: base}
}

type createRoomRequest struct {
	HostName    string `json:"hostName"`
	TurnSeconds int    `json:"turnSeconds,omitempty"`
}

type joinRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type startGameRequest struct {
	PlayerID string `json:"playerId"`
}

type actionRequest struct {
	PlayerID string        `json:"playerId"`
	Action   models.Action `json:"action"`
}

// ClampTurnSeconds maps a requested turn length into the accepted range; 0
// selects the default.
func ClampTurnSeconds(seconds int) int {
	if seconds == 0 {
		return DefaultTurnSeconds
	}
	return max(MinTurnSeconds, min(MaxTurnSeconds, seconds))
}

func (c *TabletopClient) CreateRoom(ctx context.Context, hostName string, turnSeconds int) (*models.JoinResult, error) {
	var out models.JoinResult
	req := createRoomRequest{HostName: hostName, TurnSeconds: ClampTurnSeconds(turnSeconds)}
	if err := c.PostJSON(ctx, RoomsEndpoint, req, &out); err != nil {
		return nil, err
	}
	if out.Room == nil {
		return nil, fmt.Errorf("create room: response has no room")
	}
	return &out, nil
}

func (c *TabletopClient) JoinRoom(ctx context.Context, roomRef, playerName string) (*models.JoinResult, error) {
	var out models.JoinResult
	req := joinRoomRequest{PlayerName: playerName}
	if err := c.PostJSON(ctx, roomPath(JoinEndpoint, roomRef), req, &out); err != nil {
		return nil, err
	}
	if out.Room == nil {
		return nil, fmt.Errorf("join room: response has no room")
	}
	return &out, nil
}

func (c *TabletopClient) StartGame(ctx context.Context, roomRef, playerID string) (*models.Room, error) {
	var out models.Room
	if err := c.PostJSON(ctx, roomPath(StartEndpoint, roomRef), startGameRequest{PlayerID: playerID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *TabletopClient) GetRoom(ctx context.Context, roomRef string) (*models.Room, error) {
	var out models.Room
	if err := c.GetJSON(ctx, roomPath(RoomEndpoint, roomRef), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *TabletopClient) ApplyAction(ctx context.Context, roomRef, playerID string, action models.Action) (*models.Room, error) {
	var out models.Room
	req := actionRequest{PlayerID: playerID, Action: action}
	if err := c.PostJSON(ctx, roomPath(ActionsEndpoint, roomRef), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WebSocketURL builds the push channel address for a room and player.
func (c *TabletopClient) WebSocketURL(roomRef, playerID string) (string, error) {
	return BuildWebSocketURL(c.BaseURL(), roomRef, playerID)
}

// BuildWebSocketURL swaps the API scheme for its websocket counterpart and
// points it at the push endpoint.
func BuildWebSocketURL(baseURL, roomRef, playerID string) (string, error) {
	endpoint, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base url: %w", err)
	}
	switch endpoint.Scheme {
	case "https", "wss":
		endpoint.Scheme = "wss"
	default:
		endpoint.Scheme = "ws"
	}
	endpoint.Path = WebSocketEndpoint
	q := url.Values{}
	q.Set("roomId", roomRef)
	q.Set("playerId", playerID)
	endpoint.RawQuery = q.Encode()
	return endpoint.String(), nil
}

func roomPath(pattern, roomRef string) string {
	return fmt.Sprintf(pattern, url.PathEscape(roomRef))
}
