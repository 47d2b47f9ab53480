// Package version tracks the date-stamped build directories of a
// catalog root and the {min, max, default} pointers advertised to
// catalog readers.
package version

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Placeholder marks where a version identifier slots into a catalog
// path template.
const Placeholder = "{{version}}"

// ID is a validated version identifier of the form vYYYY-MM-DD. The
// fixed width makes lexical order equal chronological order.
type ID string

var idPattern = regexp.MustCompile(`^v(\d{4})-(\d{2})-(\d{2})$`)

// Parse validates a version identifier. Years before 2000 predate any
// catalog build and are rejected along with malformed months and days.
func Parse(s string) (ID, error) {
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("version: %q does not match vYYYY-MM-DD", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if year < 2000 {
		return "", fmt.Errorf("version: year %04d in %q is before 2000", year, s)
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("version: month %02d in %q is out of range", month, s)
	}
	if day < 1 || day > 31 {
		return "", fmt.Errorf("version: day %02d in %q is out of range", day, s)
	}
	return ID(s), nil
}

// Today returns the identifier for a build started now.
func Today() ID {
	return ID(time.Now().Format("v2006-01-02"))
}

// Pointers is the version bookkeeping of one catalog location.
// Default is always the most recent build; Min and Max bracket every
// version directory known to exist at the location.
type Pointers struct {
	Min     ID `yaml:"min"`
	Max     ID `yaml:"max"`
	Default ID `yaml:"default"`
}

// Update folds a finished build into the pointer set. siblings are
// the version directories found at the catalog root. When the catalog
// location itself moved since the last build the history there does
// not apply, so the pointers reset to the built version alone.
func (p Pointers) Update(built ID, siblings []ID, moved bool) Pointers {
	if moved {
		return Pointers{Min: built, Max: built, Default: built}
	}
	min, max := built, built
	if p.Min != "" && p.Min < min {
		min = p.Min
	}
	if p.Max != "" && p.Max > max {
		max = p.Max
	}
	for _, s := range siblings {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return Pointers{Min: min, Max: max, Default: built}
}

// ScanSiblings lists the version-stamped directories under root,
// sorted ascending. A missing root is an empty history, not an error.
func ScanSiblings(root string) ([]ID, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("version: scan %s: %w", root, err)
	}
	var ids []ID
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := Parse(entry.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
