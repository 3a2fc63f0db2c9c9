package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// SessionCapacity bounds participants per session; 0 means unbounded.
	SessionCapacity int `mapstructure:"session_capacity" yaml:"session_capacity"`
	// PingInterval is the advisory liveness probe period.
	PingInterval time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	// HistoryDSN points the message-history store at a SQLite database.
	// The default keeps history in memory, scoped to the process lifetime.
	HistoryDSN string `mapstructure:"history_dsn" yaml:"history_dsn"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		SessionCapacity:   2,
		PingInterval:      30 * time.Second,
		HistoryDSN:        ":memory:",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.SessionCapacity != 0 {
		c.SessionCapacity = other.SessionCapacity
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.HistoryDSN != "" {
		c.HistoryDSN = other.HistoryDSN
	}
}
