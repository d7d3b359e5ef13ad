// Package config loads runtime configuration for the cloudstorage CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file, given to LoadConfig (the CLI takes it from -c or
//     --config).
//  3. Command flags registered by the cli package, which override earlier
//     values.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "token_file": "/home/me/.cloudstorage/token",
//	  "timeout": "30s",
//	  "max_upload_bytes": 33554432
//	}
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the cloudstorage CLI.
type Config struct {
	ServerEndpointAddr string
	TokenFile          string
	Timeout            time.Duration
	MaxUploadBytes     int64
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.TokenFile = defaultTokenFile()
	c.Timeout = 30 * time.Second
	c.MaxUploadBytes = 32 << 20
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cloudstorage", "token")
}

// LoadConfig applies defaults and then the JSON file at path, if path is set.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
