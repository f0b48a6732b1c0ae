package models

import "time"

// RoomStatus defines the lifecycle status of a room.
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusPlaying  RoomStatus = "playing"
	RoomStatusFinished RoomStatus = "finished"
)

// Player is a lobby seat.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room is the authoritative snapshot pushed by the server. It is always replaced
// wholesale, never patched.
type Room struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	HostID       string     `json:"hostId"`
	Status       RoomStatus `json:"status"`
	Players      []Player   `json:"players"`
	TurnSeconds  int        `json:"turnSeconds,omitempty"`
	TurnDeadline *time.Time `json:"turnDeadline,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	Game         *GameState `json:"game,omitempty"`
}

// Ref is the reference used to address the room in requests: its join code
// when it has one, otherwise its id.
func (r Room) Ref() string {
	if r.Code != "" {
		return r.Code
	}
	return r.ID
}

// JoinResult is returned by room creation and join.
type JoinResult struct {
	Room   *Room  `json:"room"`
	Player Player `json:"player"`
}
