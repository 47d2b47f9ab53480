// Package builder turns directories of model output into datastore
// record tables. Each supported model family is a strategy: a crawl
// profile plus a pure parse function composed from the shared
// filename-redaction and time-extraction primitives.
package builder

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/meridian-labs/climecat/pkg/filename"
	"github.com/meridian-labs/climecat/pkg/log"
	"github.com/meridian-labs/climecat/pkg/ncfile"
	"github.com/meridian-labs/climecat/pkg/record"
	"github.com/meridian-labs/climecat/pkg/timeinfo"
)

// ParserFunc maps one asset path to a parse result. Implementations
// never let a panic or error escape: every failure becomes an
// InvalidAsset so a single malformed file cannot abort a bulk crawl.
type ParserFunc func(path string, open ncfile.Opener, logger log.Logger) record.ParseResult

// Family describes one model family's conventions.
type Family struct {
	Name            string
	Depth           int
	IncludePatterns []string
	ExcludePatterns []string
	GroupbyAttrs    []string
	Parse           ParserFunc
}

// Families is the registry of supported model families.
var Families = map[string]*Family{
	"AccessOm2":   accessOm2,
	"AccessEsm15": accessEsm15,
	"AccessCm2":   accessCm2,
}

// Lookup returns the named family.
func Lookup(name string) (*Family, error) {
	f, ok := Families[name]
	if !ok {
		names := make([]string, 0, len(Families))
		for n := range Families {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("builder: unknown family %q (supported: %s)", name, strings.Join(names, ", "))
	}
	return f, nil
}

var accessOm2 = &Family{
	Name:            "AccessOm2",
	Depth:           3,
	ExcludePatterns: []string{"*restart*", "*o2i.nc"},
	IncludePatterns: []string{"*.nc"},
	GroupbyAttrs:    []string{"file_id", "frequency"},
	Parse:           guard(parseAccessOm2),
}

var accessEsm15 = &Family{
	Name:            "AccessEsm15",
	Depth:           3,
	ExcludePatterns: []string{"*restart*"},
	IncludePatterns: []string{"*.nc*"},
	GroupbyAttrs:    []string{"file_id", "frequency"},
	Parse:           guard(parseAccessEsm15),
}

// accessCm2 shares the Esm15 layout conventions.
var accessCm2 = &Family{
	Name:            "AccessCm2",
	Depth:           3,
	ExcludePatterns: []string{"*restart*"},
	IncludePatterns: []string{"*.nc*"},
	GroupbyAttrs:    []string{"file_id", "frequency"},
	Parse:           guard(parseAccessEsm15),
}

// guard converts panics and errors from a fallible parser into the
// InvalidAsset result variant, capturing a diagnostic for the
// aggregate report.
func guard(parse func(path string, open ncfile.Opener, logger log.Logger) (*record.FileRecord, error)) ParserFunc {
	return func(path string, open ncfile.Opener, logger log.Logger) (result record.ParseResult) {
		defer func() {
			if r := recover(); r != nil {
				result = record.Failed(path, fmt.Sprintf("panic: %v\n%s", r, debug.Stack()))
			}
		}()
		rec, err := parse(path, open, logger)
		if err != nil {
			return record.Failed(path, err.Error())
		}
		if err := rec.Validate(); err != nil {
			return record.Failed(path, err.Error())
		}
		return record.Valid(rec)
	}
}

var om2PathPattern = regexp.MustCompile(`/([^/]*)/([^/]*)/output\d+/([^/]*)/[^/]+$`)

// parseAccessOm2 derives the realm from the third path segment of the
// .../<config>/<experiment>/outputNNN/<realm>/ layout.
func parseAccessOm2(path string, open ncfile.Opener, logger log.Logger) (*record.FileRecord, error) {
	m := om2PathPattern.FindStringSubmatch(path)
	if m == nil {
		return nil, fmt.Errorf("builder: path %q does not match the AccessOm2 layout", path)
	}
	realm := m[3]
	if realm == "ice" {
		realm = "seaIce"
	}

	rec, err := parseFile(path, open, logger)
	if err != nil {
		return nil, err
	}
	rec.Realm = realm
	return rec, nil
}

var esm15PathPattern = regexp.MustCompile(`/([^/]*)/history/([^/]*)/[^/]+$`)

var esm15RealmMapping = map[string]string{
	"atm": "atmos",
	"ocn": "ocean",
	"ice": "seaIce",
}

// parseAccessEsm15 derives realm and ensemble member from the
// .../<experiment>/history/<realm>/ layout. The experiment id is
// stripped from the file id so members group into one dataset.
func parseAccessEsm15(path string, open ncfile.Opener, logger log.Logger) (*record.FileRecord, error) {
	m := esm15PathPattern.FindStringSubmatch(path)
	if m == nil {
		return nil, fmt.Errorf("builder: path %q does not match the AccessEsm15 layout", path)
	}
	expID := m[1]
	realm, ok := esm15RealmMapping[m[2]]
	if !ok {
		return nil, fmt.Errorf("builder: unknown realm directory %q in %q", m[2], path)
	}

	rec, err := parseFile(path, open, logger)
	if err != nil {
		return nil, err
	}
	rec.Realm = realm
	rec.Member = expID
	rec.FileID = strings.Trim(strings.ReplaceAll(rec.FileID, expID, ""), "_")
	return rec, nil
}

// parseFile extracts the family-independent record fields: filename
// identifiers, temporal metadata and variable attributes.
func parseFile(path string, open ncfile.Opener, logger log.Logger) (*record.FileRecord, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, ".nc")
	if idx := strings.Index(stem, ".nc"); idx >= 0 {
		// Numbered extensions like .nc-0000 also strip.
		stem = stem[:idx]
	}

	fileID, timestamp, nameFreq := filename.Parse(stem, filename.DefaultPatterns, filename.DefaultFrequencies, 'X')

	ds, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("builder: open %s: %w", path, err)
	}

	vars := ds.Variables()
	rec := &record.FileRecord{
		Path:              path,
		Filename:          base,
		FileID:            fileID,
		FilenameTimestamp: timestamp,
	}
	for _, v := range vars {
		if v.LongName == "" {
			// Variables without a descriptive long_name are excluded.
			continue
		}
		rec.Variables = append(rec.Variables, v.Name)
		rec.VariableLongNames = append(rec.VariableLongNames, v.LongName)
		rec.VariableStandardNames = append(rec.VariableStandardNames, v.StandardName)
		rec.VariableCellMethods = append(rec.VariableCellMethods, v.CellMethods)
		rec.VariableUnits = append(rec.VariableUnits, v.Units)
	}

	// Get releases the dataset handle on every exit path.
	info, err := timeinfo.Get(ds, "time", nameFreq, logger)
	if err != nil {
		return nil, err
	}
	rec.StartDate = info.StartDate
	rec.EndDate = info.EndDate
	rec.Frequency = info.Frequency

	return rec, nil
}
