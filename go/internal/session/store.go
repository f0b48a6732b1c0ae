// Package session persists the client's room identity across restarts.
package session

import (
	"context"
	"encoding/json"

	"github.com/mcdev12/gemtable/go/internal/models"
	"github.com/rs/zerolog/log"
)

// StorageKey is the single key the session triple is stored under.
const StorageKey = "splendor_session_v1"

// Store loads, saves and clears the persisted session. Load never fails: absent
// or unreadable data reports false and the caller proceeds as a fresh visitor.
type Store interface {
	Load(ctx context.Context) (models.Session, bool)
	Save(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
}

// decode parses a stored value, treating malformed or incomplete data as absent.
func decode(raw []byte) (models.Session, bool) {
	if len(raw) == 0 {
		return models.Session{}, false
	}
	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		log.Warn().Err(err).Msg("ignoring malformed stored session")
		return models.Session{}, false
	}
	if !s.Valid() {
		return models.Session{}, false
	}
	return s, true
}
