// Package timeinfo derives start date, end date and output frequency
// from the time coordinate of a model output file, reconciling the
// result against any frequency inferred from the filename.
package timeinfo

import (
	"fmt"

	"github.com/meridian-labs/climecat/pkg/log"
	"github.com/meridian-labs/climecat/pkg/ncfile"
)

// NoDate is the sentinel recorded when a dataset has no time
// dimension at all. Static data that still carries a time coordinate
// keeps its decoded dates.
const NoDate = "none"

// EmptyFileError marks a dataset that declares a time dimension with
// no data points: a malformed asset, not a static one.
type EmptyFileError struct {
	Dim string
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("timeinfo: time dimension %q is present but empty", e.Dim)
}

// Info is the temporal metadata of one file.
type Info struct {
	StartDate string
	EndDate   string
	Frequency string
}

// Get extracts time metadata from ds. filenameFrequency is the
// canonical frequency inferred from the filename, or "" when none was
// recognized; when it disagrees with the content-derived frequency the
// content wins unless the content says static. The dataset handle is
// released on every exit path.
func Get(ds ncfile.Dataset, timeDim, filenameFrequency string, logger log.Logger) (Info, error) {
	defer ds.Close()

	axis, err := ds.TimeAxis(timeDim)
	if err != nil {
		return Info{}, fmt.Errorf("timeinfo: resolve time axis: %w", err)
	}

	freq := Static
	var start, end Time
	hasTime := axis != nil
	hasBounds := false

	if hasTime {
		if len(axis.Values) == 0 {
			return Info{}, &EmptyFileError{Dim: timeDim}
		}

		cal, err := ParseCalendar(axis.Calendar)
		if err != nil {
			return Info{}, err
		}
		scale, epoch, err := ParseUnits(axis.Units, cal)
		if err != nil {
			return Info{}, err
		}
		todate := func(v float64) Time { return Decode(v, scale, epoch) }

		hasBounds = len(axis.Bounds) > 0
		if hasBounds {
			start = todate(axis.Bounds[0][0])
			end = todate(axis.Bounds[len(axis.Bounds)-1][1])
		} else {
			start = todate(axis.Values[0])
			end = todate(axis.Values[len(axis.Values)-1])
		}

		if len(axis.Values) > 1 || hasBounds {
			var next Time
			if hasBounds {
				next = todate(axis.Bounds[0][1])
			} else {
				next = todate(axis.Values[1])
			}
			freq = inferFrequency(next.Sub(start))
		}
	}

	if filenameFrequency != "" && filenameFrequency != freq.String() {
		if freq.IsStatic() {
			parsed, err := ParseFrequency(filenameFrequency)
			if err != nil {
				return Info{}, fmt.Errorf("timeinfo: frequency from filename: %w", err)
			}
			logger.Warn("frequency from filename does not match file contents, using filename value",
				log.String("filename_frequency", filenameFrequency),
				log.String("content_frequency", freq.String()))
			freq = parsed
		} else {
			logger.Warn("frequency from filename does not match file contents, using contents value",
				log.String("filename_frequency", filenameFrequency),
				log.String("content_frequency", freq.String()))
		}
	}

	if !hasTime {
		return Info{StartDate: NoDate, EndDate: NoDate, Frequency: freq.String()}, nil
	}

	if !hasBounds && !freq.IsStatic() {
		if freq.Unit == UnitSubHr {
			logger.Warn("cannot infer start and end times for subhourly frequencies")
		} else {
			start, end = inferBounds(start, end, freq)
		}
	}
	return Info{StartDate: start.Format(), EndDate: end.Format(), Frequency: freq.String()}, nil
}

// inferBounds widens an instantaneous-sample time range by half a
// period on each side, so a single sample is treated as representative
// of its interval. Month and year frequencies shift on calendar
// boundaries rather than by a fixed day count.
func inferBounds(start, end Time, freq Frequency) (Time, Time) {
	switch freq.Unit {
	case UnitYear:
		return Midpoint(start.AddMonths(-12*freq.N), start), Midpoint(end, end.AddMonths(12*freq.N))
	case UnitMonth:
		return Midpoint(start.AddMonths(-freq.N), start), Midpoint(end, end.AddMonths(freq.N))
	case UnitDay:
		half := int64(freq.N) * 86400 / 2
		return start.AddSeconds(-half), end.AddSeconds(half)
	case UnitHour:
		half := int64(freq.N) * 3600 / 2
		return start.AddSeconds(-half), end.AddSeconds(half)
	default:
		return start, end
	}
}
