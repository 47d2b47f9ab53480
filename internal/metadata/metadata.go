// Package metadata loads and validates the experiment description
// files that accompany model output. A build refuses to start until
// every experiment's metadata passes, with all problems reported at
// once.
package metadata

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FileName is the conventional name of the document inside an
// experiment directory.
const FileName = "metadata.yaml"

// Metadata is one experiment description. Raw keeps every document
// field for the catalog translator; date-like values stay strings.
type Metadata struct {
	Name            string
	ExperimentUUID  string
	Description     string
	LongDescription string
	Raw             map[string]any
}

// CheckError aggregates every validation problem found in one build
// invocation so authors fix their metadata in one round.
type CheckError struct {
	Problems []string
}

func (e *CheckError) Error() string {
	lines := make([]string, 0, len(e.Problems)+1)
	lines = append(lines, fmt.Sprintf("metadata: %d problem(s) found:", len(e.Problems)))
	for i, p := range e.Problems {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, p))
	}
	return strings.Join(lines, "\n")
}

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_-]*$`)

// Load reads and validates one metadata document.
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: read %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("metadata: parse %s: %w", path, err)
	}
	normalizeDates(raw)

	m := &Metadata{
		Name:            stringField(raw, "name"),
		ExperimentUUID:  stringField(raw, "experiment_uuid"),
		Description:     stringField(raw, "description"),
		LongDescription: stringField(raw, "long_description"),
		Raw:             raw,
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metadata) validate(path string) error {
	var problems []string
	if m.Name == "" {
		problems = append(problems, fmt.Sprintf("%s: required field %q is missing or empty", path, "name"))
	} else if !namePattern.MatchString(m.Name) {
		problems = append(problems, fmt.Sprintf("%s: name %q may only contain letters, digits, underscores and hyphens", path, m.Name))
	}
	if m.ExperimentUUID == "" {
		problems = append(problems, fmt.Sprintf("%s: required field %q is missing or empty", path, "experiment_uuid"))
	} else if _, err := uuid.Parse(m.ExperimentUUID); err != nil {
		problems = append(problems, fmt.Sprintf("%s: experiment_uuid %q is not a valid UUID", path, m.ExperimentUUID))
	}
	if m.Description == "" {
		problems = append(problems, fmt.Sprintf("%s: required field %q is missing or empty", path, "description"))
	}
	if m.LongDescription == "" {
		problems = append(problems, fmt.Sprintf("%s: required field %q is missing or empty", path, "long_description"))
	}
	if len(problems) > 0 {
		return &CheckError{Problems: problems}
	}
	return nil
}

// CheckBatch rejects a build whose experiments collide on name or
// uuid. Either would silently overwrite another experiment's rows in
// the master table.
func CheckBatch(entries []*Metadata) error {
	var problems []string

	byName := make(map[string][]string)
	byUUID := make(map[string][]string)
	for _, m := range entries {
		byName[m.Name] = append(byName[m.Name], m.Name)
		byUUID[m.ExperimentUUID] = append(byUUID[m.ExperimentUUID], m.Name)
	}

	var nameDupes []string
	for name, hits := range byName {
		if len(hits) > 1 {
			nameDupes = append(nameDupes, name)
		}
	}
	sort.Strings(nameDupes)
	if len(nameDupes) > 0 {
		problems = append(problems, fmt.Sprintf("experiments with the same name: %s", strings.Join(nameDupes, ", ")))
	}

	var uuidDupes []string
	for _, names := range byUUID {
		if len(names) > 1 {
			sort.Strings(names)
			uuidDupes = append(uuidDupes, strings.Join(names, ", "))
		}
	}
	sort.Strings(uuidDupes)
	if len(uuidDupes) > 0 {
		problems = append(problems, fmt.Sprintf("experiments with the same experiment_uuid: %s", strings.Join(uuidDupes, "; ")))
	}

	if len(problems) > 0 {
		return &CheckError{Problems: problems}
	}
	return nil
}

// normalizeDates rewrites any timestamp the YAML decoder resolved
// into a time value back to its date string. Created dates and
// similar fields are opaque labels here, not instants.
func normalizeDates(raw map[string]any) {
	for key, value := range raw {
		switch v := value.(type) {
		case time.Time:
			raw[key] = v.Format("2006-01-02")
		case map[string]any:
			normalizeDates(v)
		case []any:
			for i, item := range v {
				if ts, ok := item.(time.Time); ok {
					v[i] = ts.Format("2006-01-02")
				}
			}
		}
	}
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}
