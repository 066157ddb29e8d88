package cli

import (
	"os"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Name      string
	Password  string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("BSHIP_SERVER", "http://localhost:3000"),
		Name:      os.Getenv("BSHIP_NAME"),
		Password:  os.Getenv("BSHIP_PASSWORD"),
		Output:    "text",
		Verbose:   false,
	}
}

// HasCredentials reports whether a player name and password are configured
func (c *Config) HasCredentials() bool {
	return c.Name != "" && c.Password != ""
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
