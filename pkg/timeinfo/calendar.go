package timeinfo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Calendar identifies the date arithmetic used by a time axis.
type Calendar int

const (
	// CalendarGregorian is the proleptic Gregorian calendar. The
	// "standard" and "julian" CF calendars are mapped here; the
	// distinction only matters for dates before 1582, which no
	// supported model output reaches.
	CalendarGregorian Calendar = iota
	// CalendarNoLeap has fixed 365-day years.
	CalendarNoLeap
	// CalendarAllLeap has fixed 366-day years.
	CalendarAllLeap
	// Calendar360Day has twelve 30-day months.
	Calendar360Day
)

// ParseCalendar maps a CF calendar attribute to a Calendar. An empty
// attribute defaults to Gregorian.
func ParseCalendar(s string) (Calendar, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "gregorian", "proleptic_gregorian", "julian":
		return CalendarGregorian, nil
	case "noleap", "365_day":
		return CalendarNoLeap, nil
	case "all_leap", "366_day":
		return CalendarAllLeap, nil
	case "360_day":
		return Calendar360Day, nil
	}
	return CalendarGregorian, fmt.Errorf("timeinfo: unsupported calendar %q", s)
}

var (
	monthDaysNoLeap  = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	monthDaysAllLeap = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
)

func isGregorianLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func daysInMonth(cal Calendar, y, m int) int {
	switch cal {
	case Calendar360Day:
		return 30
	case CalendarAllLeap:
		return monthDaysAllLeap[m-1]
	case CalendarNoLeap:
		return monthDaysNoLeap[m-1]
	default:
		if m == 2 && isGregorianLeap(y) {
			return 29
		}
		return monthDaysNoLeap[m-1]
	}
}

// daysFromCivil converts a calendar date to a day number. The epoch is
// arbitrary but fixed per calendar; day numbers are only ever compared
// within one calendar.
func daysFromCivil(cal Calendar, y, m, d int) int64 {
	switch cal {
	case Calendar360Day:
		return int64(y-1)*360 + int64(m-1)*30 + int64(d-1)
	case CalendarNoLeap, CalendarAllLeap:
		days := int64(y-1) * 365
		if cal == CalendarAllLeap {
			days = int64(y-1) * 366
		}
		table := monthDaysNoLeap
		if cal == CalendarAllLeap {
			table = monthDaysAllLeap
		}
		for i := 0; i < m-1; i++ {
			days += int64(table[i])
		}
		return days + int64(d-1)
	default:
		return gregorianDays(y, m, d)
	}
}

// gregorianDays returns days since 1970-01-01 for a proleptic
// Gregorian date (Howard Hinnant's days_from_civil).
func gregorianDays(y, m, d int) int64 {
	yy := int64(y)
	if m <= 2 {
		yy--
	}
	era := yy / 400
	if yy < 0 && yy%400 != 0 {
		era--
	}
	yoe := yy - era*400
	doy := (153*int64((m+9)%12)+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// civilFromDays is the inverse of daysFromCivil.
func civilFromDays(cal Calendar, days int64) (y, m, d int) {
	switch cal {
	case Calendar360Day:
		y = int(floorDiv(days, 360)) + 1
		rem := int(days - int64(y-1)*360)
		return y, rem/30 + 1, rem%30 + 1
	case CalendarNoLeap, CalendarAllLeap:
		yearLen := int64(365)
		table := monthDaysNoLeap
		if cal == CalendarAllLeap {
			yearLen = 366
			table = monthDaysAllLeap
		}
		y = int(floorDiv(days, yearLen)) + 1
		rem := int(days - int64(y-1)*yearLen)
		m = 1
		for rem >= table[m-1] {
			rem -= table[m-1]
			m++
		}
		return y, m, rem + 1
	default:
		return gregorianCivil(days)
	}
}

// gregorianCivil is Hinnant's civil_from_days.
func gregorianCivil(days int64) (y, m, d int) {
	z := days + 719468
	era := z / 146097
	if z < 0 && z%146097 != 0 {
		era--
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	yy := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d = int(doy - (153*mp+2)/5 + 1)
	m = int((mp+2)%12 + 1)
	if m <= 2 {
		yy++
	}
	return int(yy), m, d
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Time is an instant on a specific calendar, with second resolution.
type Time struct {
	cal Calendar
	sec int64
}

// Date constructs a Time from civil components.
func Date(cal Calendar, y, m, d, hh, mm, ss int) Time {
	days := daysFromCivil(cal, y, m, d)
	return Time{cal: cal, sec: days*86400 + int64(hh)*3600 + int64(mm)*60 + int64(ss)}
}

// Civil returns the civil components of t.
func (t Time) Civil() (y, m, d, hh, mm, ss int) {
	days := floorDiv(t.sec, 86400)
	rem := int(t.sec - days*86400)
	y, m, d = civilFromDays(t.cal, days)
	return y, m, d, rem / 3600, (rem / 60) % 60, rem % 60
}

// Format renders t as "YYYY-MM-DD, HH:MM:SS", the fixed date format
// used in file records.
func (t Time) Format() string {
	y, m, d, hh, mm, ss := t.Civil()
	return fmt.Sprintf("%04d-%02d-%02d, %02d:%02d:%02d", y, m, d, hh, mm, ss)
}

// AddSeconds returns t shifted by s seconds.
func (t Time) AddSeconds(s int64) Time {
	return Time{cal: t.cal, sec: t.sec + s}
}

// AddMonths returns t shifted by n calendar months, clamping the day
// of month to the target month's length.
func (t Time) AddMonths(n int) Time {
	y, m, d, hh, mm, ss := t.Civil()
	total := y*12 + (m - 1) + n
	ny := total / 12
	nm := total%12 + 1
	if total < 0 && total%12 != 0 {
		ny--
		nm = total%12 + 12 + 1
	}
	if max := daysInMonth(t.cal, ny, nm); d > max {
		d = max
	}
	return Date(t.cal, ny, nm, d, hh, mm, ss)
}

// Sub returns t - u in seconds. Both times must share a calendar.
func (t Time) Sub(u Time) int64 {
	return t.sec - u.sec
}

// Midpoint returns the instant halfway between a and b, floored to the
// second.
func Midpoint(a, b Time) Time {
	return Time{cal: a.cal, sec: a.sec + (b.sec-a.sec)/2}
}

var unitsPattern = regexp.MustCompile(
	`^\s*([A-Za-z]+)\s+since\s+(-?\d{1,5})-(\d{1,2})-(\d{1,2})(?:[ T](\d{1,2}):(\d{1,2})(?::(\d{1,2}(?:\.\d+)?))?)?`)

// ParseUnits parses a CF time units attribute such as
// "days since 1900-01-01 00:00:00" into a per-unit scale in seconds
// and the epoch instant on the given calendar.
func ParseUnits(units string, cal Calendar) (scale float64, epoch Time, err error) {
	m := unitsPattern.FindStringSubmatch(units)
	if m == nil {
		return 0, Time{}, fmt.Errorf("timeinfo: cannot parse time units %q", units)
	}

	switch strings.ToLower(m[1]) {
	case "second", "seconds", "sec", "secs", "s":
		scale = 1
	case "minute", "minutes", "min", "mins":
		scale = 60
	case "hour", "hours", "hr", "hrs", "h":
		scale = 3600
	case "day", "days", "d":
		scale = 86400
	default:
		return 0, Time{}, fmt.Errorf("timeinfo: unsupported time unit %q", m[1])
	}

	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	y, mo, d := atoi(m[2]), atoi(m[3]), atoi(m[4])
	var hh, mm, ss int
	if m[5] != "" {
		hh, mm = atoi(m[5]), atoi(m[6])
		if m[7] != "" {
			f, _ := strconv.ParseFloat(m[7], 64)
			ss = int(math.Round(f))
		}
	}
	return scale, Date(cal, y, mo, d, hh, mm, ss), nil
}

// Decode converts a numeric time-axis value to an instant.
func Decode(value float64, scale float64, epoch Time) Time {
	return epoch.AddSeconds(int64(math.Round(value * scale)))
}
