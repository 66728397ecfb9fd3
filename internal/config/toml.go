// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game    GameConfig    `toml:"game"`
	Gateway GatewayConfig `toml:"gateway"`
}

// GameConfig maps play-related settings.
type GameConfig struct {
	Player     *string `toml:"player"`
	Difficulty *string `toml:"difficulty"`
	Corpus     *string `toml:"corpus"`
	WordList   *string `toml:"wordlist"`
}

// GatewayConfig maps the remote persistence gateway. An empty URL keeps
// sessions in the local database.
type GatewayConfig struct {
	URL     *string `toml:"url"`
	Timeout *string `toml:"timeout"`
}

// TimeoutDuration parses the gateway timeout; nil when unset.
func (g GatewayConfig) TimeoutDuration() (*time.Duration, error) {
	if g.Timeout == nil {
		return nil, nil
	}
	d, err := time.ParseDuration(*g.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway timeout %q: %w", *g.Timeout, err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("gateway timeout must be positive")
	}
	return &d, nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
