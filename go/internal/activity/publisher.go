package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the NATS activity mirror.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS mirror configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "gemtable.activity",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSPublisher publishes activity entries as JSON on a per-room subject.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher connects to NATS.
func NewNATSPublisher(config NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("gemtable-client"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, prefix: config.SubjectPrefix}, nil
}

// Publish sends one entry. Entries without a room go to the "lobby" subject.
func (p *NATSPublisher) Publish(_ context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal activity entry: %w", err)
	}
	if err := p.nc.Publish(Subject(p.prefix, entry.RoomID), data); err != nil {
		return fmt.Errorf("failed to publish activity entry: %w", err)
	}
	return nil
}

// Connected reports whether the underlying connection is up.
func (p *NATSPublisher) Connected() bool {
	return p != nil && p.nc != nil && p.nc.IsConnected()
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("failed to drain NATS connection")
		p.nc.Close()
	}
}

// Subject builds "<prefix>.<room>.log", sanitizing the room token.
func Subject(prefix, roomID string) string {
	room := strings.TrimSpace(roomID)
	if room == "" {
		room = "lobby"
	}
	room = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(room)
	return fmt.Sprintf("%s.%s.log", prefix, room)
}
