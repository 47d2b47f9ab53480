package cliconfig

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/meridian-labs/climecat/pkg/version"
)

// DefaultCatalogFile is the default name of the master table inside a
// version directory.
const DefaultCatalogFile = "metacatalog.csv"

// DefaultDatastoreName is the default stem of a per-experiment
// datastore pair.
const DefaultDatastoreName = "experiment_datastore"

// Config holds CLI configuration for climecat.
type Config struct {
	BuildBasePath string
	CatalogFile   string
	Version       string

	DatastoreName string
	Family        string

	Watch    bool
	Debounce time.Duration

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BuildBasePath: ".",
		CatalogFile:   DefaultCatalogFile,
		DatastoreName: DefaultDatastoreName,
		Debounce:      2 * time.Second,
		LogLevel:      "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.CatalogFile == "" {
		return fmt.Errorf("catalog-file is required")
	}

	if c.Version == "" {
		c.Version = string(version.Today())
	}
	if !strings.HasPrefix(c.Version, "v") {
		c.Version = "v" + c.Version
	}
	if _, err := version.Parse(c.Version); err != nil {
		return err
	}

	abs, err := filepath.Abs(c.BuildBasePath)
	if err != nil {
		return fmt.Errorf("resolve build-base-path: %w", err)
	}
	c.BuildBasePath = abs

	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}

	return nil
}

// VersionedPath returns the directory this build writes into.
func (c *Config) VersionedPath() string {
	return filepath.Join(c.BuildBasePath, c.Version)
}

// SourcePath returns the directory new datastores are written into.
func (c *Config) SourcePath() string {
	return filepath.Join(c.VersionedPath(), "source")
}

// CatalogPath returns the master table location for this build.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.VersionedPath(), c.CatalogFile)
}

// CatalogTemplate returns the reader-facing path template with the
// version placeholder in place of the concrete version directory.
func (c *Config) CatalogTemplate() string {
	return filepath.Join(c.BuildBasePath, version.Placeholder, c.CatalogFile)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
