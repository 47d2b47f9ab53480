package timeinfo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Frequency units, coarsest first.
const (
	UnitYear   = "yr"
	UnitMonth  = "mon"
	UnitDay    = "day"
	UnitHour   = "hr"
	UnitSubHr  = "subhr"
	UnitStatic = "fx"
)

// Frequency is a canonical output interval: a magnitude and a unit.
// Static data uses the "fx" unit; sub-hourly data has no magnitude.
type Frequency struct {
	N    int
	Unit string
}

// Static is the sentinel frequency for time-invariant data.
var Static = Frequency{Unit: UnitStatic}

// String renders the "{N}{unit}" form, with bare "fx" and "subhr".
func (f Frequency) String() string {
	if f.Unit == UnitStatic || f.Unit == UnitSubHr || f.N == 0 {
		return f.Unit
	}
	return fmt.Sprintf("%d%s", f.N, f.Unit)
}

// IsStatic reports whether f is the static sentinel.
func (f Frequency) IsStatic() bool {
	return f.Unit == UnitStatic
}

var frequencyPattern = regexp.MustCompile(`^(\d*)(yr|mon|day|hr|subhr|fx)$`)

// ParseFrequency parses a canonical frequency string.
func ParseFrequency(s string) (Frequency, error) {
	m := frequencyPattern.FindStringSubmatch(s)
	if m == nil {
		return Frequency{}, fmt.Errorf("timeinfo: invalid frequency %q", s)
	}
	n := 0
	if m[1] != "" {
		n, _ = strconv.Atoi(m[1])
	}
	return Frequency{N: n, Unit: m[2]}, nil
}

// inferFrequency buckets a duration between adjacent time steps into a
// canonical frequency. Thresholds are checked in strictly descending
// order (365 days, 28 days, 1 day, 1 hour) so no duration matches two
// buckets.
func inferFrequency(seconds int64) Frequency {
	days := seconds / 86400
	switch {
	case days >= 365:
		return Frequency{N: int(math.Round(float64(days) / 365)), Unit: UnitYear}
	case days >= 28:
		return Frequency{N: int(math.Round(float64(days) / 30)), Unit: UnitMonth}
	case days >= 1:
		return Frequency{N: int(days), Unit: UnitDay}
	case seconds >= 3600:
		return Frequency{N: int(seconds / 3600), Unit: UnitHour}
	default:
		return Frequency{Unit: UnitSubHr}
	}
}
