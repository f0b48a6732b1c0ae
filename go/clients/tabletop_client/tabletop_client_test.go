package tabletop_client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/gemtable/go/clients"
	"github.com/mcdev12/gemtable/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampTurnSeconds(t *testing.T) {
	assert.Equal(t, DefaultTurnSeconds, ClampTurnSeconds(0))
	assert.Equal(t, MinTurnSeconds, ClampTurnSeconds(1))
	assert.Equal(t, MinTurnSeconds, ClampTurnSeconds(-20))
	assert.Equal(t, 45, ClampTurnSeconds(45))
	assert.Equal(t, MaxTurnSeconds, ClampTurnSeconds(1000))
}

func TestBuildWebSocketURL(t *testing.T) {
	got, err := BuildWebSocketURL("https://games.example.com/base", "ABC 1", "p-1")
	require.NoError(t, err)
	assert.Equal(t, "wss://games.example.com/ws?playerId=p-1&roomId=ABC+1", got)

	got, err = BuildWebSocketURL("http://localhost:8080", "ABC123", "p-2")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws?playerId=p-2&roomId=ABC123", got)
}

func TestApplyAction_SendsPlayerAndAction(t *testing.T) {
	var got actionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/rooms/ABC123/actions", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(clients.RequestIDHeader))
		assert.NotEmpty(t, r.Header.Get(clients.ClientInstanceHeader))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.Room{ID: "room-1", Code: "ABC123", Status: models.RoomStatusPlaying})
	}))
	defer srv.Close()

	c := NewTabletopClient(srv.URL + "/")
	action := models.Action{Type: models.ActionTakeTokens, Payload: &models.ActionPayload{Colors: []models.Color{models.ColorRed}}}
	room, err := c.ApplyAction(context.Background(), "ABC123", "p-1", action)
	require.NoError(t, err)
	assert.Equal(t, "room-1", room.ID)
	assert.Equal(t, "p-1", got.PlayerID)
	assert.Equal(t, action, got.Action)
}

func TestApplyAction_DecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_action","message":"not your turn"}`))
	}))
	defer srv.Close()

	_, err := NewTabletopClient(srv.URL).ApplyAction(context.Background(), "ABC123", "p-1", models.Action{Type: models.ActionPass})
	require.Error(t, err)

	var apiErr *clients.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_action", apiErr.Code)
	assert.Equal(t, "not your turn", err.Error())
}

func TestGetRoom_NonJSONErrorFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewTabletopClient(srv.URL).GetRoom(context.Background(), "ABC123")
	require.EqualError(t, err, "HTTP 502")
}

func TestCreateRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RoomsEndpoint, r.URL.Path)
		var req createRoomRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Alice", req.HostName)
		assert.Equal(t, 60, req.TurnSeconds)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.JoinResult{
			Room:   &models.Room{ID: "room-1", Code: "ABC123", HostID: "p-1"},
			Player: models.Player{ID: "p-1", Name: "Alice"},
		})
	}))
	defer srv.Close()

	res, err := NewTabletopClient(srv.URL).CreateRoom(context.Background(), "Alice", 60)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", res.Room.Ref())
	assert.Equal(t, "p-1", res.Player.ID)
}

func TestCreateRoom_ClampsTurnSeconds(t *testing.T) {
	var sent []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		sent = append(sent, req.TurnSeconds)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.JoinResult{
			Room:   &models.Room{ID: "room-1", Code: "ABC123", HostID: "p-1"},
			Player: models.Player{ID: "p-1", Name: "Alice"},
		})
	}))
	defer srv.Close()

	c := NewTabletopClient(srv.URL)
	for _, in := range []int{1000, 1, -20, 0} {
		_, err := c.CreateRoom(context.Background(), "Alice", in)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{MaxTurnSeconds, MinTurnSeconds, MinTurnSeconds, DefaultTurnSeconds}, sent)
}

func TestRequests_CarryInstanceID(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(clients.ClientInstanceHeader))
		_ = json.NewEncoder(w).Encode(models.Room{ID: "room-1", Code: "ABC123"})
	}))
	defer srv.Close()

	c := NewTabletopClient(srv.URL)
	require.NotEmpty(t, c.InstanceID())
	for range 2 {
		_, err := c.GetRoom(context.Background(), "ABC123")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{c.InstanceID(), c.InstanceID()}, seen)
	assert.NotEqual(t, c.InstanceID(), NewTabletopClient(srv.URL).InstanceID())
}
