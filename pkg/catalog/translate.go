package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meridian-labs/climecat/pkg/record"
)

// TranslateError reports a column that could not be carried from a
// datastore into the master table.
type TranslateError struct {
	Column string
	Msg    string
}

func (e *TranslateError) Error() string {
	return fmt.Sprintf("catalog: translate column %q: %s", e.Column, e.Msg)
}

// Translator turns one datastore (its records plus the experiment
// metadata) into master-table rows. Column values resolve in order:
// the record table, the source attributes (name, description), then
// the experiment metadata.
type Translator struct {
	name        string
	description string
	metadata    map[string]any
	records     []record.FileRecord
	yamlRef     string
}

// NewDefaultTranslator builds the standard translator for a built or
// loaded datastore. yamlRef is stored in the yaml column and points a
// catalog reader back at the datastore pair.
func NewDefaultTranslator(name, description string, metadata map[string]any, records []record.FileRecord, yamlRef string) *Translator {
	return &Translator{
		name:        name,
		description: description,
		metadata:    metadata,
		records:     records,
		yamlRef:     yamlRef,
	}
}

// Translate produces one row per distinct combination of the groupby
// columns, unioning the set-valued columns within each group. Scalar
// columns must agree across a group or the merge fails with a
// diagnostic naming the column.
func (t *Translator) Translate(groupby []string) ([]Row, error) {
	model, err := t.model()
	if err != nil {
		return nil, err
	}
	if err := t.checkScalars(); err != nil {
		return nil, err
	}

	perRecord := make([]Row, 0, len(t.records))
	for i := range t.records {
		rec := &t.records[i]
		row := Row{
			Name:        t.name,
			Model:       model,
			Description: t.description,
			Realm:       []string{rec.Realm},
			Frequency:   []string{translateFrequency(rec.Frequency)},
			Variable:    rec.Variables,
			Yaml:        t.yamlRef,
		}
		row.normalize()
		perRecord = append(perRecord, row)
	}
	if len(groupby) == 0 {
		return perRecord, nil
	}

	groups := make(map[string]*Row)
	var keys []string
	for i := range perRecord {
		row := &perRecord[i]
		key, err := groupKey(row, groupby)
		if err != nil {
			return nil, err
		}
		merged, ok := groups[key]
		if !ok {
			clone := *row
			groups[key] = &clone
			keys = append(keys, key)
			continue
		}
		if err := mergeInto(merged, row); err != nil {
			return nil, err
		}
	}

	sort.Strings(keys)
	rows := make([]Row, 0, len(groups))
	for _, key := range keys {
		row := groups[key]
		row.normalize()
		rows = append(rows, *row)
	}
	return rows, nil
}

// model resolves the model column from the experiment metadata. The
// field holds a single value or a list of values.
func (t *Translator) model() ([]string, error) {
	v, ok := t.metadata[ModelColumn]
	if !ok {
		return nil, &TranslateError{Column: ModelColumn, Msg: "not present in the experiment metadata"}
	}
	values, ok := asStrings(v)
	if !ok || len(values) == 0 {
		return nil, &TranslateError{Column: ModelColumn,
			Msg: fmt.Sprintf("metadata value %v is not a string or list of strings", v)}
	}
	return values, nil
}

// checkScalars rejects list-shaped metadata in columns the saved
// table stores as single values, i.e. every core column that is not
// set-valued.
func (t *Translator) checkScalars() error {
	for _, column := range CoreColumns {
		if isIterable(column) {
			continue
		}
		v, ok := t.metadata[column]
		if !ok {
			continue
		}
		if _, isList := v.([]any); isList {
			return &TranslateError{Column: column,
				Msg: "the experiment metadata holds a list but the saved table stores this column as a single value"}
		}
	}
	return nil
}

func translateFrequency(freq string) string {
	if canonical, ok := FrequencyTranslations[freq]; ok {
		return canonical
	}
	return freq
}

func groupKey(row *Row, groupby []string) (string, error) {
	parts := make([]string, 0, len(groupby))
	for _, column := range groupby {
		switch column {
		case ModelColumn:
			parts = append(parts, encodeSet(row.Model))
		case RealmColumn:
			parts = append(parts, encodeSet(row.Realm))
		case FrequencyColumn:
			parts = append(parts, encodeSet(row.Frequency))
		case NameColumn:
			parts = append(parts, row.Name)
		default:
			return "", &TranslateError{Column: column, Msg: "cannot be used as a groupby column"}
		}
	}
	return strings.Join(parts, "\x1f"), nil
}

// mergeInto folds src into dst. The set-valued columns union; the
// rest must already agree because rows in one group come from one
// translated datastore.
func mergeInto(dst, src *Row) error {
	if dst.Name != src.Name {
		return &TranslateError{Column: NameColumn,
			Msg: fmt.Sprintf("contains multiple values within a merged group (%q, %q); only set-valued columns can merge", dst.Name, src.Name)}
	}
	if dst.Description != src.Description {
		return &TranslateError{Column: DescriptionColumn,
			Msg: "contains multiple values within a merged group; only set-valued columns can merge"}
	}
	dst.Model = append(dst.Model, src.Model...)
	dst.Realm = append(dst.Realm, src.Realm...)
	dst.Frequency = append(dst.Frequency, src.Frequency...)
	dst.Variable = append(dst.Variable, src.Variable...)
	return nil
}

func asStrings(v any) ([]string, bool) {
	switch val := v.(type) {
	case string:
		return []string{val}, true
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
