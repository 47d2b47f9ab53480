package agent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/meridian-labs/climecat/pkg/builder"
	"github.com/meridian-labs/climecat/pkg/datastore"
	"github.com/meridian-labs/climecat/pkg/log"
	"github.com/meridian-labs/climecat/pkg/manifest"
)

// UseDatastore makes sure catalogDir holds a valid, current datastore
// for the experiment and returns it. An existing pair is reused when
// it passes the integrity probe and its hash manifest still matches
// the files on disk; anything else triggers a rebuild. catalogDir
// defaults to the experiment directory.
func (a *Agent) UseDatastore(ctx context.Context, family *builder.Family, experimentDir, catalogDir string) (datastore.Info, bool, error) {
	if catalogDir == "" {
		catalogDir = experimentDir
	}

	info, err := datastore.Find(catalogDir)
	if err != nil {
		return datastore.Info{}, false, err
	}

	b := builder.New(family, []string{experimentDir}, a.open, a.logger)

	valid := info.Valid
	switch {
	case valid:
		a.logger.Info("datastore found, verifying integrity",
			log.String("dir", catalogDir), log.String("json", info.JSONHandle))
		if err := b.GetAssets(); err != nil {
			return datastore.Info{}, false, err
		}
		current := make(map[string]bool, len(b.Assets()))
		for _, asset := range b.Assets() {
			current[asset] = true
		}
		valid = manifest.IsCurrent(info, current, a.logger)
	case !info.IsZero():
		a.logger.Warn("datastore broken, regenerating",
			log.String("dir", catalogDir), log.String("cause", info.Cause.String()))
	default:
		a.logger.Info("no datastore found, generating", log.String("dir", experimentDir))
	}

	if valid {
		return info, false, nil
	}
	if err := ctx.Err(); err != nil {
		return datastore.Info{}, false, err
	}

	rebuilt, err := a.buildDatastore(b, experimentDir, catalogDir)
	if err != nil {
		return datastore.Info{}, false, err
	}
	return rebuilt, true, nil
}

func (a *Agent) buildDatastore(b *builder.Builder, experimentDir, catalogDir string) (datastore.Info, error) {
	a.logger.Info("building datastore", log.String("dir", experimentDir))
	if err := b.Build(); err != nil {
		return datastore.Info{}, err
	}
	if invalid := b.Invalid(); len(invalid) > 0 {
		a.logger.Warn("some assets could not be parsed",
			log.Int("invalid", len(invalid)), log.Int("parsed", len(b.Records())))
	}

	description := fmt.Sprintf("datastore for the model output in %q", experimentDir)
	jsonPath, csvPath, err := b.Save(a.cfg.DatastoreName, description, catalogDir)
	if err != nil {
		return datastore.Info{}, err
	}

	// Hash the assets so the next run can verify freshness without a
	// full reparse.
	m, err := manifest.Build(b.Assets())
	if err != nil {
		return datastore.Info{}, err
	}
	if err := m.Save(manifest.PathFor(jsonPath)); err != nil {
		return datastore.Info{}, err
	}

	a.logger.Info("datastore written",
		log.String("json", filepath.Base(jsonPath)),
		log.String("table", filepath.Base(csvPath)),
		log.Int("records", len(b.Records())))

	return datastore.Probe(jsonPath, csvPath), nil
}
