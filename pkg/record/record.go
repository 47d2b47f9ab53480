// Package record defines the structured metadata extracted from one
// model output asset, and the explicit success/failure result used by
// the per-family parsers.
package record

import (
	"errors"
	"fmt"
)

// FileRecord is the parsed metadata of one asset. FileID plus
// Frequency is the grouping key that decides which records aggregate
// into one logical dataset.
type FileRecord struct {
	Path              string
	Filename          string
	FileID            string
	FilenameTimestamp string
	Realm             string
	Frequency         string
	StartDate         string
	EndDate           string
	Member            string

	// The variable_* sequences are parallel: one entry per variable
	// that carries a descriptive long_name attribute.
	Variables             []string
	VariableLongNames     []string
	VariableStandardNames []string
	VariableCellMethods   []string
	VariableUnits         []string
}

// ErrNoVariables marks a record with no described variables.
var ErrNoVariables = errors.New("record: no variables with a long_name attribute")

// Validate checks the record's required fields and the parallel
// variable sequence invariant.
func (r *FileRecord) Validate() error {
	switch {
	case r.Path == "":
		return errors.New("record: path is required")
	case r.FileID == "":
		return errors.New("record: file_id is required")
	case r.Realm == "":
		return errors.New("record: realm is required")
	case r.Frequency == "":
		return errors.New("record: frequency is required")
	case r.StartDate == "":
		return errors.New("record: start_date is required")
	case r.EndDate == "":
		return errors.New("record: end_date is required")
	}
	if len(r.Variables) == 0 {
		return ErrNoVariables
	}
	n := len(r.Variables)
	if len(r.VariableLongNames) != n ||
		len(r.VariableStandardNames) != n ||
		len(r.VariableCellMethods) != n ||
		len(r.VariableUnits) != n {
		return fmt.Errorf("record: variable attribute sequences must all have length %d", n)
	}
	return nil
}

// InvalidAsset is the failure variant of a parse: the asset could not
// be turned into a FileRecord, with a captured diagnostic so a bulk
// crawl can report it in aggregate instead of aborting.
type InvalidAsset struct {
	Path      string
	Traceback string
}

// ParseResult carries exactly one of Record or Invalid.
type ParseResult struct {
	Record  *FileRecord
	Invalid *InvalidAsset
}

// OK reports whether the parse produced a valid record.
func (r ParseResult) OK() bool {
	return r.Record != nil
}

// Valid wraps a FileRecord as a successful result.
func Valid(rec *FileRecord) ParseResult {
	return ParseResult{Record: rec}
}

// Failed wraps a path and diagnostic as a failed result.
func Failed(path, traceback string) ParseResult {
	return ParseResult{Invalid: &InvalidAsset{Path: path, Traceback: traceback}}
}
