// Package catalog maintains the master metadata table that indexes
// every built datastore: name-keyed rows with set-valued metadata
// columns, merged and re-versioned across incremental builds.
package catalog

// Column names of the master table. NameColumn is the row identity
// key, YamlColumn carries the opener reference for the row's
// datastore.
const (
	NameColumn        = "name"
	ModelColumn       = "model"
	DescriptionColumn = "description"
	RealmColumn       = "realm"
	FrequencyColumn   = "frequency"
	VariableColumn    = "variable"
	YamlColumn        = "yaml"
)

// CoreColumns is the fixed column order of the saved table, yaml last.
var CoreColumns = []string{
	NameColumn,
	ModelColumn,
	DescriptionColumn,
	RealmColumn,
	FrequencyColumn,
	VariableColumn,
}

// IterableColumns hold order-insensitive sets: cells union on merge
// instead of needing to agree.
var IterableColumns = []string{
	ModelColumn,
	RealmColumn,
	FrequencyColumn,
	VariableColumn,
}

// TranslatorGroupbyColumns are the identity columns a translated
// datastore is merged over: rows agreeing on all three collapse into
// one catalog row.
var TranslatorGroupbyColumns = []string{
	ModelColumn,
	RealmColumn,
	FrequencyColumn,
}

// FrequencyTranslations maps upstream frequency vocabularies onto the
// canonical {N}{unit} form used in the catalog.
var FrequencyTranslations = map[string]string{
	"monthly-averaged-by-hour": "1hr",
	"monthly-averaged-by-day":  "1hr",
	"3hrPt":                    "3hr",
	"6hrPt":                    "6hr",
	"daily":                    "1day",
	"day":                      "1day",
	"mon":                      "1mon",
	"monthly-averaged":         "1mon",
	"monC":                     "1mon",
	"monClim":                  "1mon",
	"monPt":                    "1mon",
	"sem":                      "3mon",
	"subhrPt":                  "subhr",
	"yr":                       "1yr",
	"yrPt":                     "1yr",
}

func isIterable(column string) bool {
	for _, c := range IterableColumns {
		if c == column {
			return true
		}
	}
	return false
}
