package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meridian-labs/climecat/pkg/datastore"
	"github.com/meridian-labs/climecat/pkg/log"
	"github.com/meridian-labs/climecat/pkg/ncfile"
	"github.com/meridian-labs/climecat/pkg/record"
)

// ErrParserBroken is returned when a crawl produces no single valid
// asset: the parser itself is broken, and silently producing an empty
// catalog would be worse than failing loudly.
var ErrParserBroken = errors.New("builder: parser returns no valid assets")

// ErrNoAssets is returned when Parse is called before GetAssets.
var ErrNoAssets = errors.New("builder: asset list is empty, run GetAssets first")

// Builder crawls experiment directories and parses assets into a
// record table, sequentially. Parallel crawling is a concern of an
// external job runner.
type Builder struct {
	family *Family
	paths  []string
	open   ncfile.Opener
	logger log.Logger

	assets  []string
	records []record.FileRecord
	invalid []record.InvalidAsset
}

// New creates a Builder for one family over one or more crawl roots.
func New(family *Family, paths []string, open ncfile.Opener, logger log.Logger) *Builder {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Builder{family: family, paths: paths, open: open, logger: logger}
}

// GetAssets crawls the configured paths, honoring the family's depth
// limit and include/exclude patterns.
func (b *Builder) GetAssets() error {
	b.assets = b.assets[:0]
	for _, root := range b.paths {
		rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if b.family.Depth > 0 &&
					strings.Count(filepath.Clean(path), string(filepath.Separator))-rootDepth > b.family.Depth {
					return fs.SkipDir
				}
				return nil
			}
			if b.matches(filepath.Base(path)) {
				b.assets = append(b.assets, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("builder: crawl %s: %w", root, err)
		}
	}
	sort.Strings(b.assets)
	b.logger.Info("crawled experiment directories",
		log.Int("assets", len(b.assets)), log.String("family", b.family.Name))
	return nil
}

func (b *Builder) matches(name string) bool {
	for _, pattern := range b.family.ExcludePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return false
		}
	}
	if len(b.family.IncludePatterns) == 0 {
		return true
	}
	for _, pattern := range b.family.IncludePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// ValidateParser runs the family parser until it produces one valid
// record, proving the parser works against this crawl at all.
func (b *Builder) ValidateParser() error {
	if len(b.assets) == 0 {
		return ErrNoAssets
	}
	for _, asset := range b.assets {
		if res := b.family.Parse(asset, b.open, b.logger); res.OK() {
			return nil
		}
	}
	return ErrParserBroken
}

// Parse maps every crawled asset to a record or an invalid-asset
// marker. Failures are surfaced in aggregate, never per file.
func (b *Builder) Parse() {
	b.records = b.records[:0]
	b.invalid = b.invalid[:0]
	for _, asset := range b.assets {
		res := b.family.Parse(asset, b.open, b.logger)
		if res.OK() {
			b.records = append(b.records, *res.Record)
		} else {
			b.invalid = append(b.invalid, *res.Invalid)
		}
	}
	if len(b.invalid) > 0 {
		b.logger.Warn("invalid assets found during crawl",
			log.Int("count", len(b.invalid)), log.String("family", b.family.Name))
		for _, inv := range b.invalid {
			b.logger.Debug("invalid asset", log.String("path", inv.Path),
				log.String("traceback", inv.Traceback))
		}
	}
}

// Build runs the full crawl-validate-parse pipeline.
func (b *Builder) Build() error {
	if err := b.GetAssets(); err != nil {
		return err
	}
	if err := b.ValidateParser(); err != nil {
		return err
	}
	b.Parse()
	return nil
}

// Assets returns the crawled asset paths.
func (b *Builder) Assets() []string {
	return b.assets
}

// Records returns the parsed record table.
func (b *Builder) Records() []record.FileRecord {
	return b.records
}

// Invalid returns the invalid-asset markers from the last parse.
func (b *Builder) Invalid() []record.InvalidAsset {
	return b.invalid
}

// Save writes the built record table as a datastore pair under dir.
func (b *Builder) Save(name, description, dir string) (jsonPath, csvPath string, err error) {
	if len(b.records) == 0 {
		return "", "", errors.New("builder: datastore has not been built yet, run Build first")
	}
	aggregations := []datastore.Aggregation{
		{
			Type:          "join_existing",
			AttributeName: "start_date",
			Options: map[string]any{
				"dim":     "time",
				"combine": "by_coords",
			},
		},
	}
	return datastore.Write(dir, name, description, b.family.GroupbyAttrs, aggregations, b.records)
}
