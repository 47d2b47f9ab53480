package timeinfo

import (
	"errors"
	"strings"
	"testing"

	"github.com/meridian-labs/climecat/pkg/log"
	"github.com/meridian-labs/climecat/pkg/ncfile"
)

// warnLogger records warning messages for assertion.
type warnLogger struct {
	log.NoopLogger
	warnings []string
}

func (l *warnLogger) Warn(msg string, fields ...log.Field) {
	l.warnings = append(l.warnings, msg)
}

func daysAxis(values []float64, bounds [][2]float64) *ncfile.Axis {
	return &ncfile.Axis{
		Values:   values,
		Units:    "days since 1900-01-01",
		Calendar: "GREGORIAN",
		Bounds:   bounds,
	}
}

func dataset(axis *ncfile.Axis) *ncfile.MemDataset {
	axes := map[string]*ncfile.Axis{}
	if axis != nil {
		axes["time"] = axis
	}
	return &ncfile.MemDataset{Axes: axes}
}

func TestGetBoundedDaily(t *testing.T) {
	ds := dataset(daysAxis([]float64{0.5}, [][2]float64{{0.0, 1.0}}))
	info, err := Get(ds, "time", "", log.NewNoopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.StartDate != "1900-01-01, 00:00:00" {
		t.Fatalf("start: got %q", info.StartDate)
	}
	if info.EndDate != "1900-01-02, 00:00:00" {
		t.Fatalf("end: got %q", info.EndDate)
	}
	if info.Frequency != "1day" {
		t.Fatalf("frequency: got %q", info.Frequency)
	}
	if !ds.Closed() {
		t.Fatalf("dataset handle not released")
	}
}

func TestGetNoTimeDimension(t *testing.T) {
	ds := dataset(nil)
	info, err := Get(ds, "time", "", log.NewNoopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Frequency != "fx" || info.StartDate != "none" || info.EndDate != "none" {
		t.Fatalf("static dataset: got %+v", info)
	}
	if !ds.Closed() {
		t.Fatalf("dataset handle not released")
	}
}

func TestGetStaticWithTimeAxisKeepsDates(t *testing.T) {
	// A single unbounded sample and no filename frequency reads as
	// static, but the decoded dates are still real and must be kept.
	ds := dataset(daysAxis([]float64{0.5}, nil))
	info, err := Get(ds, "time", "", log.NewNoopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Frequency != "fx" {
		t.Fatalf("frequency: got %q", info.Frequency)
	}
	if info.StartDate != "1900-01-01, 12:00:00" || info.EndDate != "1900-01-01, 12:00:00" {
		t.Fatalf("dates discarded for static file with resolvable time axis: %q .. %q",
			info.StartDate, info.EndDate)
	}
}

func TestGetSubhourlyKeepsSampleDates(t *testing.T) {
	// Sub-hourly data has no magnitude to widen the sample range by;
	// the samples stand as the dates and the skipped inference is
	// reported as a warning.
	logger := &warnLogger{}
	ds := dataset(daysAxis([]float64{0, 0.01}, nil))
	info, err := Get(ds, "time", "", logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Frequency != "subhr" {
		t.Fatalf("frequency: got %q", info.Frequency)
	}
	if info.StartDate != "1900-01-01, 00:00:00" || info.EndDate != "1900-01-01, 00:14:24" {
		t.Fatalf("dates: got %q .. %q", info.StartDate, info.EndDate)
	}
	found := false
	for _, w := range logger.warnings {
		if strings.Contains(w, "cannot infer start and end times") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing sub-hourly inference warning, got %v", logger.warnings)
	}
}

func TestGetEmptyTimeAxis(t *testing.T) {
	ds := dataset(daysAxis(nil, nil))
	_, err := Get(ds, "time", "", log.NewNoopLogger())
	var emptyErr *EmptyFileError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyFileError, got %v", err)
	}
	if !ds.Closed() {
		t.Fatalf("dataset handle not released on error path")
	}
}

func TestGetFrequencyBuckets(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{"yearly", []float64{0, 365, 730}, "1yr"},
		{"decadal", []float64{0, 3652}, "10yr"},
		{"monthly", []float64{0, 31, 59}, "1mon"},
		{"three monthly", []float64{0, 90}, "3mon"},
		{"daily", []float64{0, 1, 2}, "1day"},
		{"six hourly", []float64{0, 0.25}, "6hr"},
		{"sub hourly", []float64{0, 0.01}, "subhr"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds := dataset(daysAxis(tc.values, nil))
			info, err := Get(ds, "time", "", log.NewNoopLogger())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.Frequency != tc.want {
				t.Fatalf("frequency: got %q, want %q", info.Frequency, tc.want)
			}
		})
	}
}

func TestGetInferredBoundsDaily(t *testing.T) {
	// Two instantaneous daily samples at noon: bounds are implied half
	// a period either side.
	ds := dataset(daysAxis([]float64{0.5, 1.5}, nil))
	info, err := Get(ds, "time", "", log.NewNoopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.StartDate != "1900-01-01, 00:00:00" {
		t.Fatalf("start: got %q", info.StartDate)
	}
	if info.EndDate != "1900-01-03, 00:00:00" {
		t.Fatalf("end: got %q", info.EndDate)
	}
}

func TestGetInferredBoundsMonthly(t *testing.T) {
	// Mid-month samples in Jan and Feb 1900: the implied start is
	// halfway back toward mid-December, on calendar months rather than
	// a fixed day count.
	ds := dataset(daysAxis([]float64{15, 45}, nil))
	info, err := Get(ds, "time", "", log.NewNoopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Frequency != "1mon" {
		t.Fatalf("frequency: got %q", info.Frequency)
	}
	// Start sample is 1900-01-16 00:00:00; one month back is
	// 1899-12-16, so the implied lower bound is 1899-12-31 12:00:00.
	if info.StartDate != "1899-12-31, 12:00:00" {
		t.Fatalf("start: got %q", info.StartDate)
	}
}

func TestGetSingleSampleWithFilenameFrequency(t *testing.T) {
	// A single unbounded sample reads as static; the filename value
	// wins and implies bounds.
	ds := dataset(daysAxis([]float64{0.5}, nil))
	info, err := Get(ds, "time", "1day", log.NewNoopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Frequency != "1day" {
		t.Fatalf("frequency: got %q, want filename value", info.Frequency)
	}
	if info.StartDate != "1900-01-01, 00:00:00" || info.EndDate != "1900-01-02, 00:00:00" {
		t.Fatalf("bounds: got %q .. %q", info.StartDate, info.EndDate)
	}
}

func TestGetContentFrequencyWins(t *testing.T) {
	ds := dataset(daysAxis([]float64{0, 1}, nil))
	info, err := Get(ds, "time", "1mon", log.NewNoopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Frequency != "1day" {
		t.Fatalf("frequency: got %q, want content-derived 1day", info.Frequency)
	}
}

func TestInferFrequencyMonotonic(t *testing.T) {
	// Every duration lands in exactly one bucket: re-bucketing with
	// the matched bucket excluded must give a different answer.
	for _, seconds := range []int64{400 * 86400, 365 * 86400, 30 * 86400, 28 * 86400, 5 * 86400, 86400, 7200, 3600, 60} {
		first := inferFrequency(seconds)
		if first.Unit == "" {
			t.Fatalf("no bucket for %d seconds", seconds)
		}
		// The same input always yields the same bucket.
		if second := inferFrequency(seconds); second != first {
			t.Fatalf("bucketing not deterministic for %d seconds", seconds)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    Frequency
		wantErr bool
	}{
		{"1day", Frequency{N: 1, Unit: UnitDay}, false},
		{"3mon", Frequency{N: 3, Unit: UnitMonth}, false},
		{"10yr", Frequency{N: 10, Unit: UnitYear}, false},
		{"fx", Frequency{Unit: UnitStatic}, false},
		{"subhr", Frequency{Unit: UnitSubHr}, false},
		{"fortnightly", Frequency{}, true},
	}
	for _, tc := range tests {
		got, err := ParseFrequency(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseFrequency(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseFrequency(%q) = %+v, %v", tc.in, got, err)
		}
	}
}
