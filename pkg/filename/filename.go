// Package filename derives canonical file identifiers from model output
// filenames by redacting date/time tokens, and infers nominal output
// frequency from filename conventions.
package filename

import "regexp"

// Pattern is a compiled filename pattern with exactly one capturing
// group bounding the date/time token.
type Pattern = *regexp.Regexp

// DefaultPatterns match bare date tokens, longest form first. The
// greedy leading .* pins the capture to the rightmost occurrence,
// which is where model output puts its time stamps.
var DefaultPatterns = []Pattern{
	regexp.MustCompile(`^.*(\d{4}[-_]\d{2}[-_]\d{2})`),
	regexp.MustCompile(`^.*(\d{4}[-_]\d{2})`),
	regexp.MustCompile(`^.*(\d{8})`),
	regexp.MustCompile(`^.*(\d{6})`),
	regexp.MustCompile(`^.*(\d{4})`),
	regexp.MustCompile(`^.*(\d{3})`),
	regexp.MustCompile(`^.*(\d{2})`),
}

var (
	nonIdentifier = regexp.MustCompile(`[-.]`)
	repeatedScore = regexp.MustCompile(`_+`)
	digit         = regexp.MustCompile(`\d`)
)

// Parse derives (fileID, timestamp, frequency) from a filename whose
// extension has already been stripped.
//
// The fileID is the filename with the first matched date token redacted
// to fill characters and non-identifier characters normalized to
// underscores. timestamp is the raw matched token, or "" when no
// pattern matched. frequency is looked up in freqs against the raw
// filename; "" when unresolved. A filename with no digits is a
// legitimate static file and never fails.
func Parse(name string, patterns []Pattern, freqs FrequencyTable, fill byte) (fileID, timestamp, frequency string) {
	frequency = freqs.Match(name)

	fileID = name
	for _, pattern := range patterns {
		loc := pattern.FindStringSubmatchIndex(fileID)
		if loc == nil {
			continue
		}
		start, end := loc[2], loc[3]
		timestamp = fileID[start:end]
		redacted := digit.ReplaceAllString(timestamp, string(fill))
		fileID = fileID[:start] + redacted + fileID[end:]
		break
	}

	fileID = normalize(fileID)
	return fileID, timestamp, frequency
}

// normalize replaces "-" and "." with "_", collapses runs of "_" and
// strips any leading/trailing "_".
func normalize(s string) string {
	s = nonIdentifier.ReplaceAllString(s, "_")
	s = repeatedScore.ReplaceAllString(s, "_")
	for len(s) > 0 && s[0] == '_' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '_' {
		s = s[:len(s)-1]
	}
	return s
}
