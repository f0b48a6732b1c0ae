// Package tokendraft accumulates a pending token change and turns it into a
// single request when submitted.
package tokendraft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mcdev12/gemtable/go/internal/models"
)

// MaxPerColor bounds the draft for any color in either direction.
const MaxPerColor = 2

var (
	ErrEmptyDraft   = errors.New("no token change selected")
	ErrGoldIntake   = errors.New("cannot take gold directly")
	ErrUnknownColor = errors.New("unknown token color")
)

// Draft maps each color to a signed pending change.
type Draft map[models.Color]int

// Zero returns a draft with every color at 0.
func Zero() Draft {
	d := make(Draft, len(models.DraftColors))
	for _, c := range models.DraftColors {
		d[c] = 0
	}
	return d
}

// Equal reports whether both drafts hold the same value for every color.
// Missing colors count as 0.
func (d Draft) Equal(other Draft) bool {
	for _, c := range models.DraftColors {
		if d[c] != other[c] {
			return false
		}
	}
	return true
}

// Clone copies the draft.
func (d Draft) Clone() Draft {
	out := make(Draft, len(d))
	for c, v := range d {
		out[c] = v
	}
	return out
}

// IsZero reports whether no color has a pending change.
func (d Draft) IsZero() bool {
	for _, v := range d {
		if v != 0 {
			return false
		}
	}
	return true
}

// Bounds returns the inclusive range a color's draft value may take given the
// live bank and the player's holdings.
func Bounds(c models.Color, bank, owned models.TokenSet) (lo, hi int) {
	lo = max(-MaxPerColor, -owned.Get(c))
	hi = min(MaxPerColor, bank.Get(c))
	return lo, hi
}

// Classify turns a draft into the request it represents. The draft is not
// modified.
func Classify(d Draft) (models.Action, error) {
	var positives, negatives []models.Color
	adjust := make(map[models.Color]int)

	for _, c := range models.DraftColors {
		amount := d[c]
		if amount == 0 {
			continue
		}
		adjust[c] = amount
		for i := 0; i < abs(amount); i++ {
			if amount > 0 {
				positives = append(positives, c)
			} else {
				negatives = append(negatives, c)
			}
		}
	}

	switch {
	case len(positives) == 0 && len(negatives) == 0:
		return models.Action{}, ErrEmptyDraft
	case d[models.ColorGold] > 0:
		return models.Action{}, ErrGoldIntake
	case len(positives) > 0 && len(negatives) > 0:
		return models.Action{
			Type:    models.ActionAdjustTokens,
			Payload: &models.ActionPayload{Adjust: adjust},
		}, nil
	case len(positives) > 0:
		return models.Action{
			Type:    models.ActionTakeTokens,
			Payload: &models.ActionPayload{Colors: positives},
		}, nil
	default:
		return models.Action{
			Type:    models.ActionDiscardTokens,
			Payload: &models.ActionPayload{Colors: negatives},
		}, nil
	}
}

// Engine owns the draft between user edits and submission.
type Engine struct {
	mu    sync.Mutex
	draft Draft
}

// NewEngine creates an engine with an all-zero draft.
func NewEngine() *Engine {
	return &Engine{draft: Zero()}
}

// Adjust moves one color by delta and clamps the result against the current
// bank and holdings. Bounds are re-applied on every call, so a value drafted
// while the bank was larger shrinks on the next edit.
func (e *Engine) Adjust(c models.Color, delta int, bank, owned models.TokenSet) (Draft, error) {
	color, ok := models.ParseColor(string(c))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColor, c)
	}

	lo, hi := Bounds(color, bank, owned)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.draft[color] = max(lo, min(hi, e.draft[color]+delta))
	return e.draft.Clone(), nil
}

// Draft returns a copy of the current draft.
func (e *Engine) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Clone()
}

// Submit classifies the current draft and returns the snapshot it classified.
// The draft is left intact; callers pass the snapshot to ResetIfUnchanged once
// the server accepts the request.
func (e *Engine) Submit() (models.Action, Draft, error) {
	e.mu.Lock()
	d := e.draft.Clone()
	e.mu.Unlock()
	action, err := Classify(d)
	return action, d, err
}

// ResetIfUnchanged zeroes the draft only if it still equals submitted.
func (e *Engine) ResetIfUnchanged(submitted Draft) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.draft.Equal(submitted) {
		return false
	}
	e.draft = Zero()
	return true
}

// Reset zeroes every color.
func (e *Engine) Reset() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = Zero()
	return e.draft.Clone()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
