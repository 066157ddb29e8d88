// Package config loads server configuration from defaults, an optional YAML
// file and BATTLESHIP_* environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix is prepended to every environment override, e.g. BATTLESHIP_SERVER_PORT
const EnvPrefix = "BATTLESHIP"

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// StaticDir is served at / when set
	StaticDir string `mapstructure:"static_dir"`
}

// Addr returns the "host:port" listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds structured logging settings
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format is json or text
	Format string `mapstructure:"format"`
}

// SlogLevel converts Level to a slog.Level, defaulting to info
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the application logger writing to w
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// RedisConfig holds Redis backend settings
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	// Type is memory or redis
	Type  string      `mapstructure:"type"`
	Redis RedisConfig `mapstructure:"redis"`
}

// GameConfig holds gameplay rules
type GameConfig struct {
	// FleetPolicy is any or classic
	FleetPolicy string `mapstructure:"fleet_policy"`
}

// PlayerConfig holds registration settings
type PlayerConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// ProtocolConfig holds wire format settings
type ProtocolConfig struct {
	// StringifyData sends outbound payloads as JSON strings, as the reference client expects
	StringifyData bool `mapstructure:"stringify_data"`
}

// WebsocketConfig holds connection keepalive and buffering settings
type WebsocketConfig struct {
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBufferSize int           `mapstructure:"send_buffer_size"`
}

// Config is the top-level application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Game      GameConfig      `mapstructure:"game"`
	Player    PlayerConfig    `mapstructure:"player"`
	Protocol  ProtocolConfig  `mapstructure:"protocol"`
	Websocket WebsocketConfig `mapstructure:"websocket"`
}

// Validate checks every section and reports all violations at once
func (c Config) Validate() error {
	var errs []string
	errs = append(errs, validateServer(c.Server)...)
	errs = append(errs, validateLogging(c.Logging)...)
	errs = append(errs, validateStorage(c.Storage)...)
	errs = append(errs, validateGame(c.Game)...)
	errs = append(errs, validatePlayer(c.Player)...)
	errs = append(errs, validateWebsocket(c.Websocket)...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) []string {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout must not be negative")
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	return errs
}

func validateLogging(l LoggingConfig) []string {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	if l.Format != "json" && l.Format != "text" {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, text], got %q", l.Format))
	}
	return errs
}

func validateStorage(s StorageConfig) []string {
	switch s.Type {
	case "memory":
		return nil
	case "redis":
	default:
		return []string{fmt.Sprintf("storage.type must be one of [memory, redis], got %q", s.Type)}
	}

	var errs []string
	if s.Redis.URL == "" {
		errs = append(errs, "storage.redis.url must not be empty when storage.type is redis")
	}
	if s.Redis.PoolSize < 1 {
		errs = append(errs, fmt.Sprintf("storage.redis.pool_size must be >= 1, got %d", s.Redis.PoolSize))
	}
	if s.Redis.MinIdleConns < 0 || s.Redis.MinIdleConns > s.Redis.PoolSize {
		errs = append(errs, "storage.redis.min_idle_conns must be between 0 and storage.redis.pool_size")
	}
	if s.Redis.KeyPrefix == "" {
		errs = append(errs, "storage.redis.key_prefix must not be empty")
	}
	if s.Redis.TTL < 0 {
		errs = append(errs, "storage.redis.ttl must not be negative")
	}
	return errs
}

func validateGame(g GameConfig) []string {
	if g.FleetPolicy != "any" && g.FleetPolicy != "classic" {
		return []string{fmt.Sprintf("game.fleet_policy must be one of [any, classic], got %q", g.FleetPolicy)}
	}
	return nil
}

func validatePlayer(p PlayerConfig) []string {
	if p.BcryptCost < bcrypt.MinCost || p.BcryptCost > bcrypt.MaxCost {
		return []string{fmt.Sprintf("player.bcrypt_cost must be %d-%d, got %d", bcrypt.MinCost, bcrypt.MaxCost, p.BcryptCost)}
	}
	return nil
}

func validateWebsocket(w WebsocketConfig) []string {
	var errs []string
	if w.WriteWait <= 0 {
		errs = append(errs, "websocket.write_wait must be positive")
	}
	if w.PongWait <= 0 {
		errs = append(errs, "websocket.pong_wait must be positive")
	}
	if w.PingPeriod <= 0 || w.PingPeriod >= w.PongWait {
		errs = append(errs, "websocket.ping_period must be positive and less than websocket.pong_wait")
	}
	if w.MaxMessageSize < 1 {
		errs = append(errs, fmt.Sprintf("websocket.max_message_size must be >= 1, got %d", w.MaxMessageSize))
	}
	if w.SendBufferSize < 1 {
		errs = append(errs, fmt.Sprintf("websocket.send_buffer_size must be >= 1, got %d", w.SendBufferSize))
	}
	return errs
}

// Load builds a validated Config from defaults, the YAML file at path (skipped
// when path is empty) and environment overrides.
func Load(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and environment overrides applied
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a validated Config from an already-configured Viper instance
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := LoadFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.static_dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.redis.url", "redis://localhost:6379")
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.key_prefix", "bship")
	v.SetDefault("storage.redis.ttl", "24h")

	v.SetDefault("game.fleet_policy", "any")

	v.SetDefault("player.bcrypt_cost", bcrypt.DefaultCost)

	v.SetDefault("protocol.stringify_data", false)

	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.ping_period", "54s")
	v.SetDefault("websocket.max_message_size", 65536)
	v.SetDefault("websocket.send_buffer_size", 256)
}
