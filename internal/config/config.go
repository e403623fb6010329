package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds process-level lattice configuration: where the admin
// server listens and where the live-reload payload lives. The tunable
// engine parameters themselves live in params.Store, not here.
type Config struct {
	Server ServerConfig
	Reload ReloadConfig
}

type ServerConfig struct {
	Bind string
	Port int
}

type ReloadConfig struct {
	Path string // flat key→value payload; "" resolved via DefaultReloadPath
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37111,
		},
	}
}

// DefaultReloadPath returns the default config payload path:
// ~/.lattice/lattice.yaml
func DefaultReloadPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".lattice", "lattice.yaml"), nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
