package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (CLIMECAT_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("build-base-path", os.Getenv("CLIMECAT_BUILD_BASE_PATH"), &cfg.BuildBasePath)
	s.setString("catalog-file", os.Getenv("CLIMECAT_CATALOG_FILE"), &cfg.CatalogFile)
	s.setString("version", os.Getenv("CLIMECAT_VERSION"), &cfg.Version)
	s.setString("datastore-name", os.Getenv("CLIMECAT_DATASTORE_NAME"), &cfg.DatastoreName)
	s.setString("family", os.Getenv("CLIMECAT_FAMILY"), &cfg.Family)
	s.setString("log-level", os.Getenv("CLIMECAT_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("debounce", os.Getenv("CLIMECAT_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	s.setBoolFromString("watch", os.Getenv("CLIMECAT_WATCH"), &cfg.Watch)

	return nil
}
