package version

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"v2024-01-01", true},
		{"v2026-12-31", true},
		{"v1999-01-01", false},
		{"v2024-13-01", false},
		{"v2024-00-01", false},
		{"v2024-01-32", false},
		{"v2024-01-00", false},
		{"2024-01-01", false},
		{"v2024-1-1", false},
		{"v2024-01-01-rc1", false},
		{"", false},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		if (err == nil) != tt.valid {
			t.Errorf("Parse(%q): err = %v, want valid = %v", tt.in, err, tt.valid)
		}
	}
}

func TestIDOrdering(t *testing.T) {
	if !(ID("v2024-01-02") > ID("v2024-01-01")) {
		t.Fatalf("lexical order must equal chronological order")
	}
	if !(ID("v2025-01-01") > ID("v2024-12-31")) {
		t.Fatalf("lexical order must equal chronological order across years")
	}
}

func TestPointersUpdate(t *testing.T) {
	tests := []struct {
		name     string
		old      Pointers
		built    ID
		siblings []ID
		moved    bool
		want     Pointers
	}{
		{
			name:  "first build",
			built: "v2024-01-01",
			want:  Pointers{Min: "v2024-01-01", Max: "v2024-01-01", Default: "v2024-01-01"},
		},
		{
			name:  "newer build expands max",
			old:   Pointers{Min: "v2024-01-01", Max: "v2024-01-01", Default: "v2024-01-01"},
			built: "v2024-06-01",
			want:  Pointers{Min: "v2024-01-01", Max: "v2024-06-01", Default: "v2024-06-01"},
		},
		{
			name:     "siblings expand the bracket",
			old:      Pointers{Min: "v2024-03-01", Max: "v2024-03-01", Default: "v2024-03-01"},
			built:    "v2024-06-01",
			siblings: []ID{"v2024-01-01", "v2024-03-01", "v2025-01-01"},
			want:     Pointers{Min: "v2024-01-01", Max: "v2025-01-01", Default: "v2024-06-01"},
		},
		{
			name:  "rebuild of an older version keeps max",
			old:   Pointers{Min: "v2024-01-01", Max: "v2024-06-01", Default: "v2024-06-01"},
			built: "v2024-03-01",
			want:  Pointers{Min: "v2024-01-01", Max: "v2024-06-01", Default: "v2024-03-01"},
		},
		{
			name:     "moved location resets history",
			old:      Pointers{Min: "v2024-01-01", Max: "v2024-06-01", Default: "v2024-06-01"},
			built:    "v2024-07-01",
			siblings: []ID{"v2024-01-01"},
			moved:    true,
			want:     Pointers{Min: "v2024-07-01", Max: "v2024-07-01", Default: "v2024-07-01"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.old.Update(tt.built, tt.siblings, tt.moved)
			if got != tt.want {
				t.Fatalf("Update: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScanSiblings(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"v2024-01-01", "v2023-06-01", "vNOT-AV-ER", "source"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	// Files matching the pattern are not version directories.
	if err := os.WriteFile(filepath.Join(dir, "v2025-01-01"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ids, err := ScanSiblings(dir)
	if err != nil {
		t.Fatalf("ScanSiblings: %v", err)
	}
	if want := []ID{"v2023-06-01", "v2024-01-01"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("siblings: got %v, want %v", ids, want)
	}
}

func TestScanSiblingsMissingRoot(t *testing.T) {
	ids, err := ScanSiblings(filepath.Join(t.TempDir(), "nope"))
	if err != nil || ids != nil {
		t.Fatalf("missing root: got (%v, %v), want empty history", ids, err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	f := &File{
		Path:    "/g/data/xp65/catalogs/{{version}}/metacatalog.csv",
		Mode:    "r",
		Storage: "gdata/ik11+gdata/xp65",
		Versions: Pointers{
			Min:     "v2024-01-01",
			Max:     "v2024-06-01",
			Default: "v2024-06-01",
		},
	}
	if err := SaveFile(path, f); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !reflect.DeepEqual(got, f) {
		t.Fatalf("round trip mismatch:\nsaved  %+v\nloaded %+v", f, got)
	}
}

func TestLoadFileMissing(t *testing.T) {
	got, err := LoadFile(filepath.Join(t.TempDir(), "catalog.yaml"))
	if err != nil || got != nil {
		t.Fatalf("missing file: got (%v, %v), want (nil, nil)", got, err)
	}
}

func TestFileRootAndResolve(t *testing.T) {
	f := &File{Path: "/base/catalogs/{{version}}/metacatalog.csv"}
	root, err := f.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root != "/base/catalogs" {
		t.Fatalf("root: got %q", root)
	}
	if got := f.Resolve("v2024-01-01"); got != "/base/catalogs/v2024-01-01/metacatalog.csv" {
		t.Fatalf("resolve: got %q", got)
	}

	if _, err := (&File{Path: "/no/placeholder.csv"}).Root(); err == nil {
		t.Fatalf("expected error for a template without the placeholder")
	}
}

func TestStorageFlags(t *testing.T) {
	paths := []string{
		"/g/data/ik11/outputs/access-om2/exp1",
		"/g/data/xp65/catalogs",
		"/g/data/ik11/outputs/access-om2/exp2",
		"/scratch/tm70/elsewhere",
	}
	if got := StorageFlags(paths); got != "gdata/ik11+gdata/xp65" {
		t.Fatalf("storage flags: got %q", got)
	}
	if got := StorageFlags(nil); got != "" {
		t.Fatalf("empty input: got %q", got)
	}
}
