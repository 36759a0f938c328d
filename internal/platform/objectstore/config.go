package objectstore

import (
	"errors"
	"strings"

	"github.com/sgmdata-labs/sgmsync-go/internal/platform/env"
)

// Config holds the structured file-store endpoint settings, sourced from
// the SGM_H5_* environment keys.
type Config struct {
	Endpoint string
	User     string
	Password string
	Region   string
	UseSSL   bool
	Bucket   string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("SGM_H5_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint: env.String("SGM_H5_ENDPOINT", "localhost:9000"),
		User:     env.String("SGM_H5_USER", "sgmlive"),
		Password: env.String("SGM_H5_PASSWORD", ""),
		Region:   env.String("SGM_H5_REGION", "us-east-1"),
		UseSSL:   useSSL,
		Bucket:   env.String("SGM_H5_BUCKET", "nexus"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("SGM_H5_ENDPOINT is required")
	}
	if strings.TrimSpace(c.User) == "" {
		return errors.New("SGM_H5_USER is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("SGM_H5_BUCKET is required")
	}
	return nil
}
