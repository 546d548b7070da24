// Package config provides configuration loading for the mstream tools.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/telhawk-systems/marketstream/pkg/stream"
)

// Config holds all configuration for mstream.
type Config struct {
	Stream   StreamConfig   `mapstructure:"stream"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Simulate SimulateConfig `mapstructure:"simulate"`
}

// StreamConfig holds feed connection settings
type StreamConfig struct {
	Network           string        `mapstructure:"network"`
	APIKey            string        `mapstructure:"api_key"`
	Endpoint          string        `mapstructure:"endpoint"`
	Topics            []string      `mapstructure:"topics"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	OutboundQueue     int           `mapstructure:"outbound_queue"`
	InboundQueue      int           `mapstructure:"inbound_queue"`
}

// NATSConfig holds NATS message broker configuration
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Enabled       bool          `mapstructure:"enabled"`
	Name          string        `mapstructure:"name"`
	Token         string        `mapstructure:"token"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// RedisConfig holds Redis configuration for event stats
type RedisConfig struct {
	URL           string        `mapstructure:"url"`
	Enabled       bool          `mapstructure:"enabled"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// MetricsConfig holds the Prometheus listener configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SimulateConfig holds settings for the local feed simulator
type SimulateConfig struct {
	Addr     string        `mapstructure:"addr"`
	Token    string        `mapstructure:"token"`
	Interval time.Duration `mapstructure:"interval"`
	Seed     int64         `mapstructure:"seed"`
	Slugs    []string      `mapstructure:"slugs"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("stream.network", "mainnet")
	v.SetDefault("stream.api_key", "")
	v.SetDefault("stream.endpoint", "")
	v.SetDefault("stream.topics", []string{"*"})
	v.SetDefault("stream.heartbeat_interval", "30s")
	v.SetDefault("stream.outbound_queue", 4)
	v.SetDefault("stream.inbound_queue", 1024)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.name", "marketstream")
	v.SetDefault("nats.token", "")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.flush_interval", "5s")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9464")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulate.addr", "127.0.0.1:4000")
	v.SetDefault("simulate.token", "")
	v.SetDefault("simulate.interval", "500ms")
	v.SetDefault("simulate.seed", 0)
	v.SetDefault("simulate.slugs", []string{})

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("mstream")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mstream")
	}

	// Environment variables override (MSTREAM_STREAM_API_KEY, etc.)
	v.SetEnvPrefix("MSTREAM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the stream settings needed to connect.
func (c *Config) Validate() error {
	var errs []error
	if _, err := stream.ParseNetwork(c.Stream.Network); err != nil {
		errs = append(errs, err)
	}
	if c.Stream.APIKey == "" && c.Stream.Endpoint == "" {
		errs = append(errs, errors.New("stream.api_key is required"))
	}
	if c.Stream.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("stream.heartbeat_interval must be positive"))
	}
	if c.Stream.OutboundQueue <= 0 || c.Stream.InboundQueue <= 0 {
		errs = append(errs, errors.New("stream queue sizes must be positive"))
	}
	return errors.Join(errs...)
}

// NetworkValue returns the parsed network. Call Validate first.
func (c *Config) NetworkValue() stream.Network {
	n, _ := stream.ParseNetwork(c.Stream.Network)
	return n
}

// StreamOptions translates the stream section into client options.
func (c *Config) StreamOptions() []stream.Option {
	opts := []stream.Option{
		stream.WithHeartbeatInterval(c.Stream.HeartbeatInterval),
		stream.WithQueueSizes(c.Stream.OutboundQueue, c.Stream.InboundQueue),
	}
	if c.Stream.Endpoint != "" {
		opts = append(opts, stream.WithEndpoint(c.Stream.Endpoint))
	}
	return opts
}

// Topics returns the configured subscriptions.
func (c *Config) Topics() []stream.Topic {
	if len(c.Stream.Topics) == 0 {
		return []stream.Topic{stream.AllCollections}
	}
	topics := make([]stream.Topic, 0, len(c.Stream.Topics))
	for _, t := range c.Stream.Topics {
		topics = append(topics, stream.ParseTopic(strings.TrimSpace(t)))
	}
	return topics
}
