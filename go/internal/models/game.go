package models

// GameStatus defines the status of a running game.
type GameStatus string

const (
	GameStatusPlaying  GameStatus = "playing"
	GameStatusFinished GameStatus = "finished"
)

// Card is a development card. Cards are immutable once dealt.
type Card struct {
	ID     string   `json:"id"`
	Tier   int      `json:"tier"`
	Bonus  Color    `json:"bonus"`
	Points int      `json:"points"`
	Cost   TokenSet `json:"cost"`
}

// Noble is a bonus tile awarded for holding enough card bonuses.
type Noble struct {
	ID          string   `json:"id"`
	Points      int      `json:"points"`
	Requirement TokenSet `json:"requirement"`
}

// PlayerState is a seated player's in-game holdings.
type PlayerState struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Tokens         TokenSet `json:"tokens"`
	Bonuses        TokenSet `json:"bonuses"`
	Reserved       []Card   `json:"reserved"`
	PurchasedCount int      `json:"purchasedCount"`
	Points         int      `json:"points"`
	Nobles         []Noble  `json:"nobles"`
	IsConnected    bool     `json:"isConnected"`
	LastAction     string   `json:"lastAction"`
}

// TotalCards counts purchased cards plus claimed nobles.
func (p PlayerState) TotalCards() int {
	return p.PurchasedCount + len(p.Nobles)
}

// GameState is the server's view of a started game.
type GameState struct {
	Status          GameStatus    `json:"status"`
	Turn            int           `json:"turn"`
	CurrentPlayerID string        `json:"currentPlayerId"`
	Bank            TokenSet      `json:"bank"`
	Tier1           []Card        `json:"tier1"`
	Tier2           []Card        `json:"tier2"`
	Tier3           []Card        `json:"tier3"`
	Deck1Count      int           `json:"deck1Count"`
	Deck2Count      int           `json:"deck2Count"`
	Deck3Count      int           `json:"deck3Count"`
	Nobles          []Noble       `json:"nobles"`
	Players         []PlayerState `json:"players"`
	WinnerIDs       []string      `json:"winnerIds"`
	FinalRound      bool          `json:"finalRound"`
	FinalTurnsLeft  int           `json:"finalTurnsLeft"`
}

// Player looks up a player by id.
func (g *GameState) Player(id string) (PlayerState, bool) {
	if g == nil {
		return PlayerState{}, false
	}
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerState{}, false
}
