package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMetadata(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

const validDoc = `name: cj50_exp
experiment_uuid: 214e8e6d-3bc5-4353-98b3-b9e9a0b9bbbd
description: quarter degree control run
long_description: >-
  0.25 degree ACCESS-OM2 control run forced by repeat-year JRA55-do.
model:
  - ACCESS-OM2
created: 2023-02-23
contact: null
`

func TestLoad(t *testing.T) {
	m, err := Load(writeMetadata(t, validDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != "cj50_exp" {
		t.Fatalf("name: got %q", m.Name)
	}
	if m.ExperimentUUID != "214e8e6d-3bc5-4353-98b3-b9e9a0b9bbbd" {
		t.Fatalf("uuid: got %q", m.ExperimentUUID)
	}
	if m.Description == "" || m.LongDescription == "" {
		t.Fatalf("descriptions not carried: %+v", m)
	}
}

func TestLoadKeepsDatesAsStrings(t *testing.T) {
	m, err := Load(writeMetadata(t, validDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	created, ok := m.Raw["created"].(string)
	if !ok {
		t.Fatalf("created: got %T (%v), want string", m.Raw["created"], m.Raw["created"])
	}
	if created != "2023-02-23" {
		t.Fatalf("created: got %q", created)
	}
}

func TestLoadAggregatesProblems(t *testing.T) {
	doc := `name: "bad name!"
experiment_uuid: not-a-uuid
`
	_, err := Load(writeMetadata(t, doc))
	var cerr *CheckError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CheckError, got %v", err)
	}
	// name pattern, uuid syntax, missing description, missing long_description
	if len(cerr.Problems) != 4 {
		t.Fatalf("problems: got %d:\n%v", len(cerr.Problems), cerr)
	}
	if !strings.Contains(cerr.Error(), "1.") || !strings.Contains(cerr.Error(), "4.") {
		t.Fatalf("report not numbered:\n%v", cerr)
	}
}

func TestLoadMissingRequiredFields(t *testing.T) {
	_, err := Load(writeMetadata(t, "contact: someone\n"))
	var cerr *CheckError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CheckError, got %v", err)
	}
	if len(cerr.Problems) != 4 {
		t.Fatalf("problems: got %d:\n%v", len(cerr.Problems), cerr)
	}
}

func TestCheckBatch(t *testing.T) {
	a := &Metadata{Name: "exp_a", ExperimentUUID: "214e8e6d-3bc5-4353-98b3-b9e9a0b9bbbd"}
	b := &Metadata{Name: "exp_b", ExperimentUUID: "7b90eab6-4b5f-4c5f-9ebf-07bdcbcb2c26"}
	if err := CheckBatch([]*Metadata{a, b}); err != nil {
		t.Fatalf("distinct entries must pass: %v", err)
	}

	dupName := &Metadata{Name: "exp_a", ExperimentUUID: "3e1f7e6e-98c9-4a45-9fd7-5b421fbbb1ac"}
	err := CheckBatch([]*Metadata{a, b, dupName})
	if err == nil || !strings.Contains(err.Error(), "same name") {
		t.Fatalf("duplicate name not reported: %v", err)
	}
	if !strings.Contains(err.Error(), "exp_a") {
		t.Fatalf("offending name missing from report: %v", err)
	}

	dupUUID := &Metadata{Name: "exp_c", ExperimentUUID: a.ExperimentUUID}
	err = CheckBatch([]*Metadata{a, b, dupUUID})
	if err == nil || !strings.Contains(err.Error(), "same experiment_uuid") {
		t.Fatalf("duplicate uuid not reported: %v", err)
	}
	if !strings.Contains(err.Error(), "exp_c") {
		t.Fatalf("offending names missing from report: %v", err)
	}
}

func TestCheckBatchBothProblems(t *testing.T) {
	a := &Metadata{Name: "exp", ExperimentUUID: "214e8e6d-3bc5-4353-98b3-b9e9a0b9bbbd"}
	b := &Metadata{Name: "exp", ExperimentUUID: "214e8e6d-3bc5-4353-98b3-b9e9a0b9bbbd"}
	err := CheckBatch([]*Metadata{a, b})
	var cerr *CheckError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CheckError, got %v", err)
	}
	if len(cerr.Problems) != 2 {
		t.Fatalf("problems: got %d, want name and uuid reports:\n%v", len(cerr.Problems), cerr)
	}
}
