// Package config loads optional persistent CLI flag defaults from
// $XDG_CONFIG_HOME/pdiffcopy/config.toml, following the pointer-field
// pattern of the teacher's internal/config/config.go (nil means "unset",
// distinguishing it from "set to the zero value") so the CLI can layer
// flags over config defaults the way cmd/beam/main.go does.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional pdiffcopy configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	BlockSize   *int64  `toml:"block_size"`
	HashMethod  *string `toml:"hash_method"`
	Concurrency *int    `toml:"concurrency"`
	BWLimit     *int64  `toml:"bwlimit"`
	Listen      *string `toml:"listen"`
}

// ConfigPath returns the resolved path to the config file.
func ConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pdiffcopy", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
