package datastore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Cause identifies why a probed datastore is invalid. Checks run in a
// fixed order and the first failure wins.
type Cause int

const (
	NoIssue Cause = iota
	MismatchName
	JSONCorrupted
	PathMismatch
	CatalogMismatch
	ColumnMismatch
)

// String returns the human-readable description of the cause.
func (c Cause) String() string {
	switch c {
	case NoIssue:
		return ""
	case MismatchName:
		return "mismatch between json and csv.gz file names"
	case JSONCorrupted:
		return "datastore JSON corrupted"
	case PathMismatch:
		return "path in JSON does not match csv.gz"
	case CatalogMismatch:
		return "catalog_file in JSON does not match csv.gz filename"
	case ColumnMismatch:
		return "columns specified in JSON do not match csv.gz file"
	}
	return "unknown issue"
}

// Info describes one probed datastore pair. It is constructed fresh on
// each probe, never mutated afterwards, and discarded once the caller
// has decided between reuse and rebuild.
type Info struct {
	JSONHandle string
	CSVHandle  string
	Valid      bool
	Cause      Cause
}

// IsZero reports whether the info is the degenerate empty value,
// meaning no datastore was found at all.
func (i Info) IsZero() bool {
	return i.JSONHandle == "" && i.CSVHandle == "" && !i.Valid && i.Cause == NoIssue
}

var localFileScheme = regexp.MustCompile(`^file://(/.+)$`)

// Probe runs the consistency checks over a datastore pair. A degenerate
// input (both handles empty) short-circuits to the zero Info without
// running any check.
func Probe(jsonPath, csvPath string) Info {
	if jsonPath == "" && csvPath == "" {
		return Info{}
	}

	info := Info{JSONHandle: jsonPath, CSVHandle: csvPath, Valid: true}
	invalid := func(cause Cause) Info {
		info.Valid = false
		info.Cause = cause
		return info
	}

	// 1. The metadata stem must match the table name with its whole
	// compound suffix removed.
	jsonStem := strings.TrimSuffix(filepath.Base(jsonPath), filepath.Ext(jsonPath))
	if jsonStem != trimSuffixes(filepath.Base(csvPath)) {
		return invalid(MismatchName)
	}

	// 2. The metadata document must be well-formed.
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return invalid(JSONCorrupted)
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return invalid(JSONCorrupted)
	}

	// 3. A local-file self-reference must exactly equal the table's
	// absolute path. Index writers that prepend a mapper root corrupt
	// the reference while leaving the bare filename intact, so a name
	// comparison alone would miss it.
	if m := localFileScheme.FindStringSubmatch(spec.CatalogFile); m != nil {
		abs, err := filepath.Abs(csvPath)
		if err != nil || m[1] != abs {
			return invalid(PathMismatch)
		}
	}

	// 4. The referenced file's base name must match the table's.
	if filepath.Base(spec.CatalogFile) != filepath.Base(csvPath) {
		return invalid(CatalogMismatch)
	}

	// 5. The table columns must equal the declared attributes plus the
	// implicit path column.
	columns, err := ReadColumns(csvPath)
	if err != nil {
		return invalid(ColumnMismatch)
	}
	want := map[string]bool{PathColumn: true}
	for _, attr := range spec.Attributes {
		want[attr.ColumnName] = true
	}
	got := map[string]bool{}
	for _, col := range columns {
		got[col] = true
	}
	if len(got) != len(want) {
		return invalid(ColumnMismatch)
	}
	for col := range want {
		if !got[col] {
			return invalid(ColumnMismatch)
		}
	}

	return info
}

// trimSuffixes removes every extension from a file name, so
// "name.csv.gz" reduces to "name".
func trimSuffixes(name string) string {
	for {
		ext := filepath.Ext(name)
		if ext == "" || ext == name {
			return name
		}
		name = strings.TrimSuffix(name, ext)
	}
}
