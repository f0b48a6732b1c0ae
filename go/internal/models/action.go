package models

// ActionType defines an in-game action understood by the server.
type ActionType string

const (
	ActionTakeTokens    ActionType = "take_tokens"
	ActionDiscardTokens ActionType = "discard_tokens"
	ActionAdjustTokens  ActionType = "adjust_tokens"
	ActionReserveCard   ActionType = "reserve_card"
	ActionBuyCard       ActionType = "buy_card"
	ActionPass          ActionType = "pass"
)

// CardSource tells the server where a bought card comes from.
type CardSource string

const (
	SourceTableau  CardSource = "tableau"
	SourceReserved CardSource = "reserved"
)

// ActionPayload carries the optional arguments of an action.
type ActionPayload struct {
	Colors []Color       `json:"colors,omitempty"`
	CardID string        `json:"cardId,omitempty"`
	Source CardSource    `json:"source,omitempty"`
	Adjust map[Color]int `json:"adjust,omitempty"`
}

// Action is a user intent sent to the server.
type Action struct {
	Type    ActionType     `json:"type"`
	Payload *ActionPayload `json:"payload,omitempty"`
}
