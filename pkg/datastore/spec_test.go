package datastore

import (
	"reflect"
	"testing"

	"github.com/meridian-labs/climecat/pkg/record"
)

func TestReadRecordsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := sampleRecords()
	want = append(want, record.FileRecord{
		Path:                  "/data/exp/output000/ice/iceh.1958-01.nc",
		Filename:              "iceh.1958-01.nc",
		FileID:                "iceh_XXXX_XX",
		Realm:                 "seaIce",
		Frequency:             "1mon",
		StartDate:             "1958-01-01, 00:00:00",
		EndDate:               "1958-02-01, 00:00:00",
		Variables:             []string{"aice", "hi"},
		VariableLongNames:     []string{"ice area", "ice thickness"},
		VariableStandardNames: []string{"sea_ice_area_fraction", "sea_ice_thickness"},
		VariableCellMethods:   []string{"time: mean", "time: mean"},
		VariableUnits:         []string{"1", "m"},
	})

	_, csvPath, err := Write(dir, "experiment_datastore", "test datastore",
		[]string{"file_id", "frequency"}, nil, want)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := ReadRecords(csvPath)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("records differ:\n got %+v\nwant %+v", got, want)
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	if _, err := ReadRecords("/nonexistent/table.csv.gz"); err == nil {
		t.Fatalf("expected error for missing table")
	}
}
