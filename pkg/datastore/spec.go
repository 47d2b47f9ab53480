// Package datastore reads, writes and validates the paired files that
// describe one model family's assets: a structured-metadata JSON
// document and a gzip-compressed CSV table.
package datastore

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meridian-labs/climecat/pkg/record"
)

// PathColumn is the implicit column holding asset locations.
const PathColumn = "path"

// VariableColumn holds the per-asset variable list.
const VariableColumn = "variable"

// specVersion tags the structured-metadata document format.
const specVersion = "0.0.1"

// Attribute declares one metadata column of the tabular file.
type Attribute struct {
	ColumnName string `json:"column_name"`
}

// Aggregation describes how records sharing a groupby key combine.
type Aggregation struct {
	Type          string         `json:"type"`
	AttributeName string         `json:"attribute_name"`
	Options       map[string]any `json:"options,omitempty"`
}

// AggregationControl is the aggregation block of the metadata document.
type AggregationControl struct {
	VariableColumnName string        `json:"variable_column_name"`
	GroupbyAttrs       []string      `json:"groupby_attrs"`
	Aggregations       []Aggregation `json:"aggregations,omitempty"`
}

// Spec is the structured-metadata document of a datastore.
type Spec struct {
	ESMCatVersion      string             `json:"esmcat_version"`
	ID                 string             `json:"id"`
	Description        string             `json:"description"`
	CatalogFile        string             `json:"catalog_file"`
	Attributes         []Attribute        `json:"attributes"`
	AggregationControl AggregationControl `json:"aggregation_control"`
}

// recordColumns is the fixed column order of the tabular file, path
// first, then the metadata attributes.
var recordColumns = []string{
	PathColumn,
	"realm",
	VariableColumn,
	"frequency",
	"start_date",
	"end_date",
	"variable_long_name",
	"variable_standard_name",
	"variable_cell_methods",
	"variable_units",
	"filename",
	"file_id",
}

// Write saves the datastore pair for name under dir and returns the
// two paths. groupbyAttrs and aggregations describe how time slices of
// one logical dataset combine when loaded.
func Write(dir, name, description string, groupbyAttrs []string, aggregations []Aggregation, records []record.FileRecord) (jsonPath, csvPath string, err error) {
	if len(records) == 0 {
		return "", "", errors.New("datastore: no records to save, run the build first")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", "", fmt.Errorf("datastore: resolve directory: %w", err)
	}
	jsonPath = filepath.Join(absDir, name+".json")
	csvPath = filepath.Join(absDir, name+".csv.gz")

	if err := writeTable(csvPath, records); err != nil {
		return "", "", err
	}

	attrs := make([]Attribute, 0, len(recordColumns)-1)
	for _, col := range recordColumns {
		if col == PathColumn {
			continue
		}
		attrs = append(attrs, Attribute{ColumnName: col})
	}

	spec := Spec{
		ESMCatVersion: specVersion,
		ID:            name,
		Description:   description,
		CatalogFile:   "file://" + csvPath,
		Attributes:    attrs,
		AggregationControl: AggregationControl{
			VariableColumnName: VariableColumn,
			GroupbyAttrs:       groupbyAttrs,
			Aggregations:       aggregations,
		},
	}
	if err := writeSpec(jsonPath, &spec); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}

func writeSpec(path string, spec *Spec) error {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("datastore: encode metadata: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("datastore: write metadata: %w", err)
	}
	return os.Rename(tmp, path)
}

func writeTable(path string, records []record.FileRecord) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("datastore: create table: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	w := csv.NewWriter(zw)

	if err := w.Write(recordColumns); err != nil {
		return fmt.Errorf("datastore: write header: %w", err)
	}
	for i := range records {
		if err := w.Write(recordRow(&records[i])); err != nil {
			return fmt.Errorf("datastore: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("datastore: flush table: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("datastore: close gzip: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("datastore: close table: %w", err)
	}
	return os.Rename(tmp, path)
}

func recordRow(r *record.FileRecord) []string {
	return []string{
		r.Path,
		r.Realm,
		encodeList(r.Variables),
		r.Frequency,
		r.StartDate,
		r.EndDate,
		encodeList(r.VariableLongNames),
		encodeList(r.VariableStandardNames),
		encodeList(r.VariableCellMethods),
		encodeList(r.VariableUnits),
		r.Filename,
		r.FileID,
	}
}

// encodeList serializes a multi-valued cell as a JSON array.
func encodeList(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

// ReadSpec parses the structured-metadata document at path.
func ReadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datastore: read metadata: %w", err)
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("datastore: parse metadata: %w", err)
	}
	return &spec, nil
}

// ReadColumns returns the header columns of the tabular file,
// decompressing by extension.
func ReadColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datastore: open table: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("datastore: open gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	header, err := csv.NewReader(r).Read()
	if err != nil {
		return nil, fmt.Errorf("datastore: read header: %w", err)
	}
	return header, nil
}

// ReadPaths returns the values of the path column, one per row.
func ReadPaths(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datastore: open table: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("datastore: open gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("datastore: read header: %w", err)
	}
	pathIdx := -1
	for i, col := range header {
		if col == PathColumn {
			pathIdx = i
			break
		}
	}
	if pathIdx < 0 {
		return nil, fmt.Errorf("datastore: table has no %q column", PathColumn)
	}

	var paths []string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("datastore: read row: %w", err)
		}
		paths = append(paths, row[pathIdx])
	}
	sort.Strings(paths)
	return paths, nil
}

// decodeList parses a multi-valued cell written by encodeList. Plain
// cells pass through as single-element lists.
func decodeList(cell string) []string {
	if strings.HasPrefix(cell, "[") {
		var values []string
		if err := json.Unmarshal([]byte(cell), &values); err == nil {
			return values
		}
	}
	if cell == "" {
		return nil
	}
	return []string{cell}
}

// ReadRecords parses the full tabular file back into records,
// decompressing by extension.
func ReadRecords(path string) ([]record.FileRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datastore: open table: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("datastore: open gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("datastore: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []record.FileRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("datastore: read row: %w", err)
		}
		records = append(records, record.FileRecord{
			Path:                  cell(row, PathColumn),
			Realm:                 cell(row, "realm"),
			Variables:             decodeList(cell(row, VariableColumn)),
			Frequency:             cell(row, "frequency"),
			StartDate:             cell(row, "start_date"),
			EndDate:               cell(row, "end_date"),
			VariableLongNames:     decodeList(cell(row, "variable_long_name")),
			VariableStandardNames: decodeList(cell(row, "variable_standard_name")),
			VariableCellMethods:   decodeList(cell(row, "variable_cell_methods")),
			VariableUnits:         decodeList(cell(row, "variable_units")),
			Filename:              cell(row, "filename"),
			FileID:                cell(row, "file_id"),
		})
	}
	return records, nil
}
