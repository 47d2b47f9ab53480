package datastore

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrMultipleDatastores is returned when a directory holds more than
// one JSON/CSV pair; the caller must remove duplicates before a
// rebuild decision can be made.
type ErrMultipleDatastores struct {
	Dir   string
	Count int
}

func (e *ErrMultipleDatastores) Error() string {
	return fmt.Sprintf("datastore: %d datastores found in %s, remove duplicates", e.Count, e.Dir)
}

// Find locates the datastore pair under dir: a .json file and a
// sibling .csv or .csv.gz file sharing its stem. Zero pairs yields the
// zero Info; more than one pair is an error.
func Find(dir string) (Info, error) {
	var jsonFiles, csvFiles []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".json"):
			jsonFiles = append(jsonFiles, path)
		case strings.HasSuffix(path, ".csv"), strings.HasSuffix(path, ".csv.gz"):
			csvFiles = append(csvFiles, path)
		}
		return nil
	})
	if err != nil {
		return Info{}, fmt.Errorf("datastore: scan %s: %w", dir, err)
	}

	type pair struct{ jsonPath, csvPath string }
	var pairs []pair
	for _, jsonPath := range jsonFiles {
		stem := strings.TrimSuffix(filepath.Base(jsonPath), ".json")
		for _, csvPath := range csvFiles {
			if filepath.Dir(jsonPath) == filepath.Dir(csvPath) &&
				trimSuffixes(filepath.Base(csvPath)) == stem {
				pairs = append(pairs, pair{jsonPath, csvPath})
			}
		}
	}

	switch len(pairs) {
	case 0:
		return Info{}, nil
	case 1:
		return Probe(pairs[0].jsonPath, pairs[0].csvPath), nil
	default:
		return Info{}, &ErrMultipleDatastores{Dir: dir, Count: len(pairs)}
	}
}
