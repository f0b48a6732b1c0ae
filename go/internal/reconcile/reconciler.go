// Package reconcile decides whether an inbound room snapshot may replace the
// held one and describes what changed in human terms.
package reconcile

import (
	"fmt"

	"github.com/mcdev12/gemtable/go/internal/models"
)

// Snapshot reasons the server tags pushes with.
const (
	ReasonPlayerJoined       = "player_joined"
	ReasonGameStarted        = "game_started"
	ReasonPlayerConnected    = "player_connected"
	ReasonPlayerDisconnected = "player_disconnected"
	ReasonActionApplied      = "action_applied"
	ReasonTurnTimeout        = "turn_timeout"
	ReasonConnected          = "connected"
)

// Result is the outcome of reconciling one snapshot.
type Result struct {
	Accept bool
	Deltas []string
}

// Reconcile checks incoming against previous (nil when nothing is held yet).
// A snapshot that would take a started game back to the lobby is rejected;
// everything else is accepted and replaces previous wholesale.
func Reconcile(previous *models.Room, incoming models.Room, reason string) Result {
	if previous != nil && previous.Game != nil && incoming.Game == nil {
		return Result{Deltas: []string{fmt.Sprintf("Ignored stale snapshot: %s", reason)}}
	}

	var deltas []string
	deltas = append(deltas, reasonLines(previous, incoming, reason)...)

	if incoming.Game == nil {
		return Result{Accept: true, Deltas: deltas}
	}

	var prevGame *models.GameState
	if previous != nil {
		prevGame = previous.Game
	}

	for _, p := range incoming.Game.Players {
		before, _ := prevGame.Player(p.ID)
		if p.LastAction != "" && p.LastAction != before.LastAction {
			deltas = append(deltas, fmt.Sprintf("%s used %s | P:%d | %s", p.Name, p.LastAction, p.Points, TokensText(p.Tokens)))
		}
	}

	if prevGame != nil && prevGame.Turn != incoming.Game.Turn {
		deltas = append(deltas, fmt.Sprintf("Turn %d -> %s", incoming.Game.Turn, CurrentPlayerName(incoming.Game)))
	}

	return Result{Accept: true, Deltas: deltas}
}

func reasonLines(previous *models.Room, incoming models.Room, reason string) []string {
	prevPlayers := 0
	prevStarted := false
	if previous != nil {
		prevPlayers = len(previous.Players)
		prevStarted = previous.Game != nil
	}

	var lines []string
	joined := reason == ReasonPlayerJoined || (previous != nil && len(incoming.Players) > prevPlayers)
	started := reason == ReasonGameStarted || (previous != nil && !prevStarted && incoming.Game != nil)

	if joined {
		lines = append(lines, fmt.Sprintf("Player joined. Total players: %d", len(incoming.Players)))
	}
	if started {
		lines = append(lines, "Game started")
	}
	switch reason {
	case ReasonPlayerJoined, ReasonGameStarted:
	case ReasonPlayerConnected:
		lines = append(lines, "A player connected")
	case ReasonPlayerDisconnected:
		lines = append(lines, "A player disconnected")
	default:
		if !joined && !started {
			lines = append(lines, fmt.Sprintf("Realtime update: %s", reason))
		}
	}
	return lines
}

// TokensText renders holdings as "W1 B0 G2 R0 K0 Gd1".
func TokensText(t models.TokenSet) string {
	return fmt.Sprintf("W%d B%d G%d R%d K%d Gd%d", t.White, t.Blue, t.Green, t.Red, t.Black, t.Gold)
}

// CurrentPlayerName resolves the player on turn, falling back to a shortened
// id while the player record is missing.
func CurrentPlayerName(g *models.GameState) string {
	if g == nil {
		return "-"
	}
	if p, ok := g.Player(g.CurrentPlayerID); ok {
		return p.Name
	}
	return ShortID(g.CurrentPlayerID)
}

// ShortID abbreviates long identifiers for display.
func ShortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) <= 6 {
		return id
	}
	return id[:4] + "..." + id[len(id)-2:]
}
