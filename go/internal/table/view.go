package table

import (
	"github.com/mcdev12/gemtable/go/internal/models"
	"github.com/mcdev12/gemtable/go/internal/notify"
	"github.com/mcdev12/gemtable/go/internal/reconcile"
	"github.com/mcdev12/gemtable/go/internal/tokendraft"
)

// View is a point-in-time copy of everything a presentation layer renders.
// Room is shared with the client and must be treated as read-only; snapshots
// are replaced, never mutated.
type View struct {
	Session       *models.Session       `json:"session,omitempty"`
	Room          *models.Room          `json:"room,omitempty"`
	Draft         tokendraft.Draft      `json:"draft"`
	TurnCountdown int                   `json:"turnCountdown"`
	Notifications []notify.Notification `json:"notifications"`
	Status        string                `json:"status"`
	Log           []string              `json:"log"`
	Connection    ConnectionState       `json:"connection"`

	IsHost            bool                `json:"isHost"`
	CanStart          bool                `json:"canStart"`
	CurrentPlayerName string              `json:"currentPlayerName,omitempty"`
	MyPlayer          *models.PlayerState `json:"myPlayer,omitempty"`
	// ProjectedTokens is MyPlayer's holdings with the draft applied.
	ProjectedTokens *models.TokenSet `json:"projectedTokens,omitempty"`
	Players         []PlayerSummary  `json:"players,omitempty"`
}

// PlayerSummary is one row of the scoreboard.
type PlayerSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Tokens      int    `json:"tokens"`
	Cards       int    `json:"cards"`
	IsCurrent   bool   `json:"isCurrent"`
	IsConnected bool   `json:"isConnected"`
}

// View builds the current view.
func (c *Client) View() View {
	c.mu.Lock()
	var sess *models.Session
	if c.session != nil {
		s := *c.session
		sess = &s
	}
	room := c.room
	c.mu.Unlock()

	v := View{
		Session:       sess,
		Room:          room,
		Draft:         c.draft.Draft(),
		TurnCountdown: c.countdown.Remaining(),
		Notifications: c.notices.List(),
		Status:        c.activity.Status(),
		Log:           c.activity.Lines(),
		Connection:    c.conn.State(),
	}

	if room == nil {
		return v
	}
	v.CanStart = room.Status == models.RoomStatusWaiting && len(room.Players) >= 2
	if sess != nil {
		v.IsHost = room.HostID == sess.PlayerID
	}
	if room.Game != nil {
		v.CurrentPlayerName = reconcile.CurrentPlayerName(room.Game)
		for _, p := range room.Game.Players {
			v.Players = append(v.Players, PlayerSummary{
				ID:          p.ID,
				Name:        p.Name,
				Points:      p.Points,
				Tokens:      p.Tokens.Total(),
				Cards:       p.TotalCards(),
				IsCurrent:   p.ID == room.Game.CurrentPlayerID,
				IsConnected: p.IsConnected,
			})
		}
		if sess != nil {
			if me, ok := room.Game.Player(sess.PlayerID); ok {
				v.MyPlayer = &me
				projected := projectTokens(me.Tokens, v.Draft)
				v.ProjectedTokens = &projected
			}
		}
	}
	return v
}

func projectTokens(owned models.TokenSet, d tokendraft.Draft) models.TokenSet {
	for _, c := range models.DraftColors {
		owned.Add(c, d[c])
	}
	return owned
}

// Subscribe returns a channel that receives a fresh view after every state
// change, and a func to cancel the subscription. A subscriber that falls
// behind only sees the latest view.
func (c *Client) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subsMu.Unlock()

	var once bool
	cancel := func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		if once {
			return
		}
		once = true
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (c *Client) markChanged() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

// dispatch coalesces change signals into views for subscribers.
func (c *Client) dispatch() {
	for {
		select {
		case <-c.done:
			c.subsMu.Lock()
			for id, ch := range c.subs {
				delete(c.subs, id)
				close(ch)
			}
			c.subsMu.Unlock()
			return
		case <-c.changed:
			v := c.View()
			c.subsMu.Lock()
			for _, ch := range c.subs {
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- v:
				default:
				}
			}
			c.subsMu.Unlock()
		}
	}
}
