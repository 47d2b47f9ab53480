// Package manifest records a content hash per cataloged asset so
// datastore staleness can be detected without re-reading scientific
// data: a cheap path-set comparison first, content hashing only when
// the path sets already match.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// Format tags the manifest file format.
const Format = "climecat-manifest/1"

// HashName identifies the content hash function in use.
const HashName = "binhash"

// Entry is one asset's manifest record.
type Entry struct {
	Fullpath string            `yaml:"fullpath"`
	Hashes   map[string]string `yaml:"hashes"`
}

// Manifest maps each asset's resolved path to its content hash.
type Manifest struct {
	Format string           `yaml:"format"`
	Data   map[string]Entry `yaml:"data"`
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{Format: Format, Data: map[string]Entry{}}
}

// PathFor derives the manifest location from a datastore's metadata
// handle: a hidden sibling named .{stem}.hash.
func PathFor(jsonHandle string) string {
	stem := strings.TrimSuffix(filepath.Base(jsonHandle), filepath.Ext(jsonHandle))
	return filepath.Join(filepath.Dir(jsonHandle), "."+stem+".hash")
}

// Build hashes every file and returns the populated manifest. Paths
// are resolved to absolute form before recording.
func Build(files []string) (*Manifest, error) {
	m := New()
	for _, file := range files {
		full, err := filepath.Abs(file)
		if err != nil {
			return nil, fmt.Errorf("manifest: resolve %s: %w", file, err)
		}
		sum, err := HashFile(full)
		if err != nil {
			return nil, err
		}
		m.Data[full] = Entry{
			Fullpath: full,
			Hashes:   map[string]string{HashName: sum},
		}
	}
	return m, nil
}

// HashFile returns the content hash of one file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("manifest: open %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("manifest: hash %s: %w", path, err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Load reads a manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	if m.Data == nil {
		m.Data = map[string]Entry{}
	}
	return &m, nil
}

// Save writes the manifest atomically.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// Files returns the set of recorded asset paths.
func (m *Manifest) Files() map[string]bool {
	files := make(map[string]bool, len(m.Data))
	for _, entry := range m.Data {
		files[entry.Fullpath] = true
	}
	return files
}

// Equals reports whether both manifests record the same files with the
// same content hashes.
func (m *Manifest) Equals(other *Manifest) bool {
	if len(m.Data) != len(other.Data) {
		return false
	}
	for key, entry := range m.Data {
		theirs, ok := other.Data[key]
		if !ok {
			return false
		}
		if entry.Hashes[HashName] != theirs.Hashes[HashName] {
			return false
		}
	}
	return true
}
