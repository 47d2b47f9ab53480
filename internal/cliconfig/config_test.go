package cliconfig

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CatalogFile != DefaultCatalogFile {
		t.Errorf("catalog file: got %q", cfg.CatalogFile)
	}
	if cfg.DatastoreName != DefaultDatastoreName {
		t.Errorf("datastore name: got %q", cfg.DatastoreName)
	}
	if cfg.Debounce <= 0 {
		t.Errorf("debounce: got %v", cfg.Debounce)
	}
}

func TestValidateDefaultsVersionToToday(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !strings.HasPrefix(cfg.Version, "v2") {
		t.Fatalf("version not defaulted: %q", cfg.Version)
	}
}

func TestValidatePrependsV(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = "2024-01-01"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Version != "v2024-01-01" {
		t.Fatalf("version: got %q", cfg.Version)
	}
}

func TestValidateRejectsBadVersion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = "v2024-13-01"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for out-of-range month")
	}
}

func TestValidateRejectsEmptyCatalogFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CatalogFile = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty catalog file")
	}
}

func TestValidateResolvesBuildBasePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BuildBasePath = "."
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !filepath.IsAbs(cfg.BuildBasePath) {
		t.Fatalf("build base path not absolute: %q", cfg.BuildBasePath)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BuildBasePath = "/catalogs"
	cfg.Version = "v2024-01-01"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.VersionedPath(); got != "/catalogs/v2024-01-01" {
		t.Errorf("versioned path: got %q", got)
	}
	if got := cfg.SourcePath(); got != "/catalogs/v2024-01-01/source" {
		t.Errorf("source path: got %q", got)
	}
	if got := cfg.CatalogPath(); got != "/catalogs/v2024-01-01/metacatalog.csv" {
		t.Errorf("catalog path: got %q", got)
	}
	if got := cfg.CatalogTemplate(); got != "/catalogs/{{version}}/metacatalog.csv" {
		t.Errorf("catalog template: got %q", got)
	}
}

func TestConfigSetterRespectsChangedFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CatalogFile = "from-flag.csv"

	changed := map[string]bool{"catalog-file": true}
	fc := FileConfig{CatalogFile: "from-file.csv", DatastoreName: "from_file"}
	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}

	if cfg.CatalogFile != "from-flag.csv" {
		t.Errorf("changed flag overridden: got %q", cfg.CatalogFile)
	}
	if cfg.DatastoreName != "from_file" {
		t.Errorf("unchanged value not applied: got %q", cfg.DatastoreName)
	}
}

func TestApplyFileConfigDuration(t *testing.T) {
	cfg := DefaultConfig()
	fc := FileConfig{Debounce: "5s"}
	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if cfg.Debounce != 5*time.Second {
		t.Errorf("debounce: got %v", cfg.Debounce)
	}

	fc = FileConfig{Debounce: "soon"}
	if err := ApplyFileConfig(&cfg, fc, nil); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}

func TestApplyFileConfigBoolPointer(t *testing.T) {
	cfg := DefaultConfig()
	watch := true
	if err := ApplyFileConfig(&cfg, FileConfig{Watch: &watch}, nil); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if !cfg.Watch {
		t.Errorf("watch not applied")
	}

	// Absent pointer leaves the current value alone.
	cfg.Watch = true
	if err := ApplyFileConfig(&cfg, FileConfig{}, nil); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if !cfg.Watch {
		t.Errorf("absent value cleared the flag")
	}
}
