// Package config assembles the explicit run configuration from the
// environment, with an optional YAML overlay for pipeline tuning. There
// is no process-wide mutable config object; the struct is passed into
// constructors.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sgmdata-labs/sgmsync-go/internal/platform/env"
	"github.com/sgmdata-labs/sgmsync-go/internal/platform/objectstore"
	"github.com/sgmdata-labs/sgmsync-go/internal/platform/postgres"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/health"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/paths"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/preprocess"
)

// DefaultFileStoreHost is the host suffix of generated file-store
// domains.
const DefaultFileStoreHost = "vsrv-sgm-hdf5-01.clsi.ca"

// Config is the full explicit configuration of one pipeline process.
type Config struct {
	DB    postgres.Config
	Store objectstore.Config

	// User is the current account identity; Admin grants the elevated
	// namespace in resolved paths and allows acting on other users'
	// samples.
	User  string
	Admin bool

	DataRoot      string
	Mirrors       []string
	FileStoreHost string

	Health     health.Spec
	Resolution float64
}

// fileConfig is the YAML overlay shape. Only pipeline tuning lives in
// the file; credentials stay in the environment.
type fileConfig struct {
	DataRoot      string      `yaml:"data_root"`
	Mirrors       []string    `yaml:"mirrors"`
	FileStoreHost string      `yaml:"filestore_host"`
	Health        health.Spec `yaml:"health"`
	Resolution    float64     `yaml:"resolution"`
}

// FromEnv reads the recognized SGM_* environment keys.
func FromEnv() (Config, error) {
	db, err := postgres.ConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	store, err := objectstore.ConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	admin, err := env.Bool("SGM_ADMIN", false)
	if err != nil {
		return Config{}, err
	}
	resolution, err := env.Float64("SGM_RESOLUTION", preprocess.DefaultResolution)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		DB:            db,
		Store:         store,
		User:          env.String("SGM_USER", ""),
		Admin:         admin,
		DataRoot:      env.String("SGM_DATA_ROOT", ""),
		FileStoreHost: env.String("SGM_H5_HOST", DefaultFileStoreHost),
		Health:        health.DefaultSpec(),
		Resolution:    resolution,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyFile overlays pipeline tuning from a YAML file. Zero-valued
// fields in the file leave the current value alone.
func (c *Config) ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	if fc.DataRoot != "" {
		c.DataRoot = fc.DataRoot
	}
	if len(fc.Mirrors) > 0 {
		c.Mirrors = fc.Mirrors
	}
	if fc.FileStoreHost != "" {
		c.FileStoreHost = fc.FileStoreHost
	}
	if fc.Health.Continuity > 0 {
		c.Health.Continuity = fc.Health.Continuity
	}
	if fc.Health.Dropped > 0 {
		c.Health.Dropped = fc.Health.Dropped
	}
	if fc.Health.Saturation > 0 {
		c.Health.Saturation = fc.Health.Saturation
	}
	if fc.Health.SDDMax > 0 {
		c.Health.SDDMax = fc.Health.SDDMax
	}
	if fc.Resolution > 0 {
		c.Resolution = fc.Resolution
	}
	return c.Validate()
}

func (c Config) Validate() error {
	if err := c.DB.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.User) == "" {
		return errors.New("SGM_USER is required")
	}
	if strings.TrimSpace(c.FileStoreHost) == "" {
		return errors.New("filestore host is required")
	}
	if err := c.Health.Validate(); err != nil {
		return err
	}
	if c.Resolution <= 0 {
		return errors.New("resolution must be positive")
	}
	return nil
}

// Resolver builds the path resolver this configuration implies.
func (c Config) Resolver() *paths.Resolver {
	r := paths.NewResolver(c.Admin)
	if c.DataRoot != "" {
		r.Root = c.DataRoot
	}
	if len(c.Mirrors) > 0 {
		r.Mirrors = c.Mirrors
	}
	return r
}
