package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cloudstorage/internal/flagx"
	"github.com/dmitrijs2005/cloudstorage/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration,
// so both "24h" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC        string         `json:"endpoint_addr_grpc"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	TokenTTL                timex.Duration `json:"token_ttl"`
	StorageBackend          string         `json:"storage_backend"`
	UploadDir               string         `json:"upload_dir"`
	MaxUploadBytes          int64          `json:"max_upload_bytes"`
	RevocationPruneInterval timex.Duration `json:"revocation_prune_interval"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON file named by -c or -config.
// Without either flag nothing is loaded. Keys missing from the file keep
// their current value.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
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

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.TokenTTL.Duration != 0 {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.RevocationPruneInterval.Duration != 0 {
		config.RevocationPruneInterval = c.RevocationPruneInterval.Duration
	}
	if c.MaxUploadBytes != 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
