package ncfile

import (
	"strings"
	"testing"
)

// The decoder registry is package-level state, so the no-decoder case has
// to run before anything registers.
func TestDecoderRegistry(t *testing.T) {
	open := DefaultOpener()
	if _, err := open("/data/file.nc"); err == nil || !strings.Contains(err.Error(), "no decoder registered") {
		t.Fatalf("expected no-decoder error, got %v", err)
	}

	Register("memtest", func(path string) (Dataset, error) {
		return &MemDataset{}, nil
	})

	got, err := Lookup("memtest")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	ds, err := got("/data/file.nc")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := Lookup("absent"); err == nil {
		t.Fatalf("expected error for unknown decoder")
	}

	names := Decoders()
	if len(names) != 1 || names[0] != "memtest" {
		t.Fatalf("Decoders() = %v", names)
	}

	// With exactly one decoder registered it becomes the default.
	dflt := DefaultOpener()
	if _, err := dflt("/data/file.nc"); err != nil {
		t.Fatalf("default opener: %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	Register("duptest", func(path string) (Dataset, error) { return &MemDataset{}, nil })
	Register("duptest", func(path string) (Dataset, error) { return &MemDataset{}, nil })
}
