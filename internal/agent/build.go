package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meridian-labs/climecat/internal/metadata"
	"github.com/meridian-labs/climecat/pkg/builder"
	"github.com/meridian-labs/climecat/pkg/catalog"
	"github.com/meridian-labs/climecat/pkg/datastore"
	"github.com/meridian-labs/climecat/pkg/log"
	"github.com/meridian-labs/climecat/pkg/record"
	"github.com/meridian-labs/climecat/pkg/version"
)

// source is one fully resolved catalog input.
type source struct {
	family *builder.Family
	paths  []string
	meta   *metadata.Metadata
}

// BuildCatalog builds the version of the master catalog described by
// the agent's configuration from the given build configuration files.
// Every experiment's metadata is validated before any datastore is
// built, so a bad experiment fails the run early instead of half way.
func (a *Agent) BuildCatalog(ctx context.Context, configPaths []string) error {
	sources, err := a.resolveSources(configPaths)
	if err != nil {
		return err
	}

	built, err := version.Parse(a.cfg.Version)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.SourcePath(), 0o755); err != nil {
		return fmt.Errorf("agent: create build directory: %w", err)
	}

	// The pointer history only carries over when the catalog still
	// lives where the last build put it.
	rootFile := filepath.Join(a.cfg.BuildBasePath, "catalog.yaml")
	previous, err := version.LoadFile(rootFile)
	if err != nil {
		return err
	}
	moved := previous != nil && previous.Path != a.cfg.CatalogTemplate()

	cat, err := catalog.Load(a.cfg.CatalogPath())
	if err != nil {
		return err
	}

	var storagePaths []string
	storagePaths = append(storagePaths, a.cfg.BuildBasePath)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		storagePaths = append(storagePaths, src.paths...)

		records, yamlRef, err := a.sourceRecords(&src)
		if err != nil {
			return err
		}

		rows, err := catalog.NewDefaultTranslator(
			src.meta.Name, src.meta.Description, src.meta.Raw, records, yamlRef,
		).Translate(catalog.TranslatorGroupbyColumns)
		if err != nil {
			return err
		}
		if err := cat.AddBatch(rows); err != nil {
			return err
		}
		a.logger.Info("added experiment to catalog",
			log.String("name", src.meta.Name), log.Int("rows", len(rows)))
	}

	if err := cat.Save(a.cfg.CatalogPath()); err != nil {
		return err
	}

	siblings, err := version.ScanSiblings(a.cfg.BuildBasePath)
	if err != nil {
		return err
	}
	pointers := version.Pointers{}
	if previous != nil && !moved {
		pointers = previous.Versions
	}
	updated := pointers.Update(built, siblings, moved)

	root := &version.File{
		Path:     a.cfg.CatalogTemplate(),
		Mode:     "r",
		Storage:  version.StorageFlags(storagePaths),
		Versions: updated,
	}
	if err := version.SaveFile(rootFile, root); err != nil {
		return err
	}

	a.logger.Info("catalog build complete",
		log.String("version", string(built)),
		log.String("catalog", a.cfg.CatalogPath()),
		log.Int("entries", len(cat.Names())))
	return nil
}

// resolveSources loads every build configuration and experiment
// metadata document, then checks the batch as a whole.
func (a *Agent) resolveSources(configPaths []string) ([]source, error) {
	var sources []source
	var entries []*metadata.Metadata

	for _, configPath := range configPaths {
		cfg, err := LoadSourceConfig(configPath)
		if err != nil {
			return nil, err
		}

		var family *builder.Family
		if cfg.Builder != "" {
			family, err = builder.Lookup(cfg.Builder)
			if err != nil {
				return nil, err
			}
		}

		for _, spec := range cfg.Sources {
			meta, err := metadata.Load(spec.MetadataYaml)
			if err != nil {
				return nil, err
			}
			sources = append(sources, source{family: family, paths: spec.Path, meta: meta})
			entries = append(entries, meta)
		}
	}

	if err := metadata.CheckBatch(entries); err != nil {
		return nil, err
	}
	return sources, nil
}

// sourceRecords produces the record table of one source, either by
// building a fresh datastore into the version's source directory or
// by loading a pre-built pair.
func (a *Agent) sourceRecords(src *source) ([]record.FileRecord, string, error) {
	if src.family != nil {
		b := builder.New(src.family, src.paths, a.open, a.logger)
		if err := b.Build(); err != nil {
			return nil, "", err
		}
		description := src.meta.Description
		jsonPath, _, err := b.Save(src.meta.Name, description, a.cfg.SourcePath())
		if err != nil {
			return nil, "", err
		}
		return b.Records(), jsonPath, nil
	}

	if len(src.paths) != 1 {
		return nil, "", fmt.Errorf("agent: source %q: loading a pre-built datastore needs exactly one path, got %d",
			src.meta.Name, len(src.paths))
	}
	jsonPath := src.paths[0]
	stem := strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath))
	csvPath := stem + ".csv.gz"
	if _, err := os.Stat(csvPath); err != nil {
		csvPath = stem + ".csv"
	}
	info := datastore.Probe(jsonPath, csvPath)
	if !info.Valid {
		return nil, "", fmt.Errorf("agent: source %q: datastore %s is broken: %s",
			src.meta.Name, jsonPath, info.Cause)
	}
	records, err := datastore.ReadRecords(info.CSVHandle)
	if err != nil {
		return nil, "", err
	}
	return records, jsonPath, nil
}
