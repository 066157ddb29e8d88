package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// KeyPrefix namespaces every key written by this process. Session state is not
	// resumable, so each server start should use a fresh prefix.
	KeyPrefix string

	// TTL settings for different entity types
	PlayerTTL time.Duration
	RoomTTL   time.Duration
	GameTTL   time.Duration
	BoardTTL  time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		KeyPrefix:    "bship",
		PlayerTTL:    24 * time.Hour,
		RoomTTL:      24 * time.Hour,
		GameTTL:      24 * time.Hour,
		BoardTTL:     24 * time.Hour,
	}
}
