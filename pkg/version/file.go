package version

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the root document a catalog reader starts from: a path
// template locating the versioned table, the storage flags needed to
// reach the data, and the version pointers.
type File struct {
	Path     string   `yaml:"path"`
	Mode     string   `yaml:"mode"`
	Storage  string   `yaml:"storage"`
	Versions Pointers `yaml:"version"`
}

// Root returns the template prefix before the version placeholder,
// which is the directory the version builds live under.
func (f *File) Root() (string, error) {
	idx := strings.Index(f.Path, Placeholder)
	if idx < 0 {
		return "", fmt.Errorf("version: catalog path %q has no %s placeholder", f.Path, Placeholder)
	}
	return strings.TrimRight(f.Path[:idx], "/"), nil
}

// Resolve substitutes an identifier into the path template.
func (f *File) Resolve(id ID) string {
	return strings.ReplaceAll(f.Path, Placeholder, string(id))
}

// LoadFile reads a catalog root document. A missing file returns nil
// so a first build can detect that no history exists.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("version: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("version: parse %s: %w", path, err)
	}
	return &f, nil
}

// SaveFile writes the catalog root document atomically.
func SaveFile(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("version: encode %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("version: write %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

var projectPattern = regexp.MustCompile(`^/g/data/([^/]+)/`)

// StorageFlags summarizes which storage projects a set of paths
// touches, as the sorted "+"-joined gdata flag string catalog readers
// pass to their scheduler.
func StorageFlags(paths []string) string {
	projects := make(map[string]bool)
	for _, p := range paths {
		if m := projectPattern.FindStringSubmatch(p); m != nil {
			projects[m[1]] = true
		}
	}
	flags := make([]string, 0, len(projects))
	for proj := range projects {
		flags = append(flags, "gdata/"+proj)
	}
	sort.Strings(flags)
	return strings.Join(flags, "+")
}
