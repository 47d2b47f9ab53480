package filename

import "regexp"

// FrequencyRule maps one filename regex fragment to a canonical
// frequency string of the form "{N}{unit}" or "fx".
type FrequencyRule struct {
	Pattern   *regexp.Regexp
	Frequency string
}

// FrequencyTable is an ordered rule list; the first rule whose pattern
// matches the raw filename wins.
type FrequencyTable []FrequencyRule

// Match returns the frequency of the first matching rule, or "" when
// no rule matches. An unresolved frequency is not an error.
func (t FrequencyTable) Match(name string) string {
	for _, rule := range t {
		if rule.Pattern.MatchString(name) {
			return rule.Frequency
		}
	}
	return ""
}

// DefaultFrequencies covers the filename conventions seen across the
// supported model families.
var DefaultFrequencies = FrequencyTable{
	{regexp.MustCompile(`daily`), "1day"},
	{regexp.MustCompile(`_dai$`), "1day"},
	{regexp.MustCompile(`month`), "1mon"},
	{regexp.MustCompile(`_mon$`), "1mon"},
	{regexp.MustCompile(`yearly`), "1yr"},
	{regexp.MustCompile(`_ann$`), "1yr"},
	{regexp.MustCompile(`(^|_)fx($|_)`), "fx"},
}
