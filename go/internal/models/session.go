package models

// Session identifies this client inside a room.
type Session struct {
	RoomID     string `json:"roomId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// Valid reports whether the session carries enough identity to open a channel.
func (s Session) Valid() bool {
	return s.RoomID != "" && s.PlayerID != ""
}
