package main

import (
	"fmt"

	"github.com/mcdev12/gemtable/go/clients/tabletop_client"
	"github.com/mcdev12/gemtable/go/internal/activity"
	"github.com/mcdev12/gemtable/go/internal/config"
	"github.com/mcdev12/gemtable/go/internal/table"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Client    *table.Client
	Publisher *activity.NATSPublisher

	closers []func()
}

func setupServices(cfg config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Storage → API client → Activity mirror → Client
	store, closeStore, err := setupSessionStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	services := &Services{closers: []func(){closeStore}}

	api := tabletop_client.NewTabletopClient(cfg.API.BaseURL)
	api.SetTimeout(cfg.API.Timeout)
	log.Info().
		Str("base_url", api.BaseURL()).
		Str("instance_id", api.InstanceID()).
		Msg("room API client ready")

	var publisher activity.Publisher
	if cfg.NATS.URL != "" {
		natsCfg := activity.DefaultNATSConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix

		p, err := activity.NewNATSPublisher(natsCfg)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to set up activity mirror: %w", err)
		}
		log.Info().Str("url", cfg.NATS.URL).Msg("mirroring activity to NATS")
		services.Publisher = p
		services.closers = append(services.closers, p.Close)
		publisher = p
	}

	connCfg := table.DefaultConnectionConfig()
	connCfg.HandshakeTimeout = cfg.Channel.HandshakeTimeout
	connCfg.PingInterval = cfg.Channel.PingInterval
	connCfg.ReadTimeout = cfg.Channel.ReadTimeout
	connCfg.MaxMessageSize = cfg.Channel.MaxMessageSize

	services.Client = table.NewClient(table.Config{
		API:        api,
		Sessions:   store,
		Publisher:  publisher,
		Connection: connCfg,
	})
	services.closers = append(services.closers, services.Client.Close)
	return services, nil
}

// Close releases everything in reverse setup order.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
