package main

import (
	"fmt"
	"path/filepath"

	"github.com/mcdev12/gemtable/go/internal/config"
	"github.com/mcdev12/gemtable/go/internal/session"
	"github.com/rs/zerolog/log"
)

// setupSessionStore opens the sqlite store under the data dir, or an in-memory
// store when running ephemeral. The returned func releases the store.
func setupSessionStore(cfg config.StorageConfig) (session.Store, func(), error) {
	if cfg.Ephemeral {
		log.Info().Msg("using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}

	path := filepath.Join(cfg.DataDir, session.DefaultFileName)
	store, err := session.OpenSQLite(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	log.Info().Str("path", path).Msg("opened session store")
	return store, func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close session store")
		}
	}, nil
}
