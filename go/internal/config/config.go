package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "GEMTABLE_"

// Config holds everything the client binary needs.
type Config struct {
	API       APIConfig       `yaml:"api" envPrefix:"API_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Channel   ChannelConfig   `yaml:"channel" envPrefix:"WS_"`
	Inspector InspectorConfig `yaml:"inspector" envPrefix:"INSPECTOR_"`
	NATS      NATSConfig      `yaml:"nats" envPrefix:"NATS_"`
	LogLevel  string          `yaml:"log_level" env:"LOG_LEVEL"`
}

// APIConfig points at the game server.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// StorageConfig controls where the session is persisted.
type StorageConfig struct {
	DataDir   string `yaml:"data_dir" env:"DATA_DIR"`
	Ephemeral bool   `yaml:"ephemeral" env:"EPHEMERAL"`
}

// ChannelConfig tunes the push channel.
type ChannelConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" env:"HANDSHAKE_TIMEOUT"`
	PingInterval     time.Duration `yaml:"ping_interval" env:"PING_INTERVAL"`
	ReadTimeout      time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	MaxMessageSize   int64         `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
}

// InspectorConfig controls the local HTTP view of the client.
type InspectorConfig struct {
	Enabled        bool     `yaml:"enabled" env:"ENABLED"`
	Addr           string   `yaml:"addr" env:"ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
}

// NATSConfig enables mirroring the activity log to NATS. An empty URL
// disables it.
type NATSConfig struct {
	URL           string `yaml:"url" env:"URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"SUBJECT_PREFIX"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: ".gemtable",
		},
		Channel: ChannelConfig{
			HandshakeTimeout: 10 * time.Second,
			PingInterval:     25 * time.Second,
			ReadTimeout:      60 * time.Second,
			MaxMessageSize:   1 << 20,
		},
		Inspector: InspectorConfig{
			Enabled:        true,
			Addr:           "127.0.0.1:7070",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		NATS: NATSConfig{
			SubjectPrefix: "gemtable.activity",
		},
		LogLevel: "info",
	}
}

// Load layers an optional YAML file and then GEMTABLE_* environment variables
// over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api base url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.API.BaseURL)
	}
	if c.Channel.PingInterval < 0 || c.Channel.ReadTimeout <= 0 {
		return errors.New("channel timeouts must be positive")
	}
	if c.Channel.PingInterval >= c.Channel.ReadTimeout {
		return errors.New("channel ping interval must be shorter than the read timeout")
	}
	if !c.Storage.Ephemeral && c.Storage.DataDir == "" {
		return errors.New("storage data dir is required unless ephemeral")
	}
	return nil
}
