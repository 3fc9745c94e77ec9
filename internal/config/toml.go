// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game  GameConfig  `toml:"game"`
	Weak  WeakConfig  `toml:"weak"`
	Serve ServeConfig `toml:"serve"`
}

// GameConfig maps round settings.
type GameConfig struct {
	Alphabet  *int      `toml:"alphabet"`
	Sets      *[]string `toml:"sets"`
	TimeLimit *int      `toml:"time"`
	FocusWeak *bool     `toml:"focus-weak"`
	Catalogue *string   `toml:"catalogue"`
}

// WeakConfig maps weak-letter focus settings.
type WeakConfig struct {
	Top    *int     `toml:"top"`
	Factor *float64 `toml:"factor"`
	Window *int     `toml:"window"`
}

// ServeConfig maps HTTP API settings.
type ServeConfig struct {
	Addr    *string `toml:"addr"`
	BaseURL *string `toml:"base-url"`
	Watch   *bool   `toml:"watch"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
