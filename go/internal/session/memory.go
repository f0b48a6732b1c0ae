package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mcdev12/gemtable/go/internal/models"
)

// MemoryStore keeps the session in process memory. It stores the encoded form so
// it behaves like the persistent store, including for malformed data.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(m.raw)
}

func (m *MemoryStore) Save(_ context.Context, s models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	m.mu.Lock()
	m.raw = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.raw = nil
	m.mu.Unlock()
	return nil
}

// SetRaw replaces the stored bytes verbatim.
func (m *MemoryStore) SetRaw(raw []byte) {
	m.mu.Lock()
	m.raw = append([]byte(nil), raw...)
	m.mu.Unlock()
}
