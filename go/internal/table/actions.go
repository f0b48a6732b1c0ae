package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/gemtable/go/clients"
	"github.com/mcdev12/gemtable/go/clients/tabletop_client"
	"github.com/mcdev12/gemtable/go/internal/models"
	"github.com/mcdev12/gemtable/go/internal/tokendraft"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoSession = errors.New("no active session")

	errEmptyRoom = errors.New("response carried no room")
)

// CreateRoom creates a room hosted by hostName and makes it the active session.
// turnSeconds is clamped to the server's accepted range; zero picks the default.
func (c *Client) CreateRoom(ctx context.Context, hostName string, turnSeconds int) error {
	turnSeconds = tabletop_client.ClampTurnSeconds(turnSeconds)
	result, err := c.api.CreateRoom(ctx, hostName, turnSeconds)
	if err == nil && (result == nil || result.Room == nil) {
		err = errEmptyRoom
	}
	if err != nil {
		c.reject("Create failed", err)
		return fmt.Errorf("failed to create room: %w", err)
	}
	c.enterRoom(ctx, result, hostName)

	c.activity.Report(fmt.Sprintf("Room %s created", result.Room.Ref()))
	c.markChanged()
	return nil
}

// JoinRoom joins an existing room and makes it the active session.
func (c *Client) JoinRoom(ctx context.Context, roomRef, playerName string) error {
	result, err := c.api.JoinRoom(ctx, roomRef, playerName)
	if err == nil && (result == nil || result.Room == nil) {
		err = errEmptyRoom
	}
	if err != nil {
		c.reject("Join failed", err)
		return fmt.Errorf("failed to join room: %w", err)
	}
	c.enterRoom(ctx, result, playerName)

	c.activity.Report(fmt.Sprintf("Joined room %s", result.Room.Ref()))
	c.markChanged()
	return nil
}

func (c *Client) enterRoom(ctx context.Context, result *models.JoinResult, fallbackName string) {
	name := result.Player.Name
	if name == "" {
		name = fallbackName
	}
	room := *result.Room
	next := models.Session{
		RoomID:     room.Ref(),
		PlayerID:   result.Player.ID,
		PlayerName: name,
	}

	c.mu.Lock()
	c.setSessionLocked(ctx, &next)
	c.setRoomLocked(&room)
	c.draft.Reset()
	c.mu.Unlock()

	log.Info().
		Str("room_id", next.RoomID).
		Str("player_id", next.PlayerID).
		Msg("entered room")
}

// StartGame asks the server to start the active room.
func (c *Client) StartGame(ctx context.Context) error {
	sess, ok := c.Session()
	if !ok || c.currentRoom() == nil {
		c.reject("Start failed", ErrNoSession)
		return ErrNoSession
	}

	room, err := c.api.StartGame(ctx, sess.RoomID, sess.PlayerID)
	if err != nil {
		c.reject("Start failed", err)
		return fmt.Errorf("failed to start game: %w", err)
	}
	c.applyReply(sess, room, "Game started", "Game started")
	return nil
}

// Refresh refetches the active room.
func (c *Client) Refresh(ctx context.Context) error {
	sess, ok := c.Session()
	if !ok {
		c.reject("Refresh failed", ErrNoSession)
		return ErrNoSession
	}

	room, err := c.api.GetRoom(ctx, sess.RoomID)
	if err != nil {
		c.reject("Refresh failed", err)
		return fmt.Errorf("failed to refresh room: %w", err)
	}
	c.applyReply(sess, room, "Room refreshed", "Room refreshed")
	return nil
}

// Perform sends one in-game action for the active session.
func (c *Client) Perform(ctx context.Context, action models.Action) error {
	sess, ok := c.Session()
	if !ok {
		c.reject("Action failed", ErrNoSession)
		return ErrNoSession
	}

	room, err := c.api.ApplyAction(ctx, sess.RoomID, sess.PlayerID, action)
	if err != nil {
		c.reject("Action failed", err)
		return fmt.Errorf("failed to apply action %s: %w", action.Type, err)
	}
	c.applyReply(sess, room, "Action sent: "+string(action.Type), "Action "+string(action.Type))
	return nil
}

// AdjustDraft moves one draft color by delta, bounded by the live bank and
// the player's own tokens.
func (c *Client) AdjustDraft(color models.Color, delta int) (tokendraft.Draft, error) {
	var bank, owned models.TokenSet
	c.mu.Lock()
	if c.room != nil && c.room.Game != nil {
		bank = c.room.Game.Bank
		if c.session != nil {
			if me, ok := c.room.Game.Player(c.session.PlayerID); ok {
				owned = me.Tokens
			}
		}
	}
	c.mu.Unlock()

	draft, err := c.draft.Adjust(color, delta, bank, owned)
	if err != nil {
		c.rejectText(draftMessage(err))
		return c.draft.Draft(), err
	}
	c.markChanged()
	return draft, nil
}

// SubmitDraft turns the draft into an action and sends it. Local rejections
// never reach the network. The draft is cleared only after the server accepts,
// and only if it was not edited while the request was in flight.
func (c *Client) SubmitDraft(ctx context.Context) error {
	action, submitted, err := c.draft.Submit()
	if err != nil {
		c.rejectText(draftMessage(err))
		return err
	}
	if err := c.Perform(ctx, action); err != nil {
		return err
	}
	if !c.draft.ResetIfUnchanged(submitted) {
		log.Debug().Msg("draft edited during submit, keeping it")
	}
	c.markChanged()
	return nil
}

// ResetDraft zeroes the draft.
func (c *Client) ResetDraft() tokendraft.Draft {
	d := c.draft.Reset()
	c.markChanged()
	return d
}

// DismissNotification removes a notice before it expires.
func (c *Client) DismissNotification(id int64) bool {
	return c.notices.Dismiss(id)
}

func (c *Client) currentRoom() *models.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// applyReply installs a gateway reply unless its session was cleared or
// replaced while the request was in flight.
func (c *Client) applyReply(sess models.Session, room *models.Room, status, line string) {
	c.mu.Lock()
	if !c.isCurrentLocked(sess) {
		c.mu.Unlock()
		log.Debug().Str("room_id", sess.RoomID).Msg("discarding reply for stale session")
		return
	}
	if room != nil {
		r := *room
		c.setRoomLocked(&r)
	}
	c.activity.SetStatus(status)
	c.activity.Append(line)
	c.mu.Unlock()
	c.markChanged()
}

// reject reports a failed request as status, log line and notification.
func (c *Client) reject(prefix string, err error) {
	log.Warn().Err(err).Msg(prefix)
	c.rejectText(prefix + ": " + errorMessage(err))
}

func (c *Client) rejectText(text string) {
	c.activity.Report(text)
	c.notices.Push(text)
	c.markChanged()
}

// errorMessage prefers the server's message over the wrapped error chain.
func errorMessage(err error) string {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

func draftMessage(err error) string {
	switch {
	case errors.Is(err, tokendraft.ErrEmptyDraft):
		return "No token change selected"
	case errors.Is(err, tokendraft.ErrGoldIntake):
		return "Cannot take gold directly"
	case errors.Is(err, tokendraft.ErrUnknownColor):
		return "Unknown token color"
	default:
		return err.Error()
	}
}
