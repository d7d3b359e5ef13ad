package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cloudstorage/internal/timex"
)

type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	TokenFile          string         `json:"token_file"`
	Timeout            timex.Duration `json:"timeout"`
	MaxUploadBytes     int64          `json:"max_upload_bytes"`
}

func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	if c.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = c.ServerEndpointAddr
	}
	if c.TokenFile != "" {
		cfg.TokenFile = c.TokenFile
	}
	if c.Timeout.Duration != 0 {
		cfg.Timeout = c.Timeout.Duration
	}
	if c.MaxUploadBytes != 0 {
		cfg.MaxUploadBytes = c.MaxUploadBytes
	}
	return nil
}
