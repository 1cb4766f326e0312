// Package dates normalizes the heterogeneous date strings found in schedule
// exports into calendar days.
//
// All values are date-only. Time-of-day and zone information in the source
// text is discarded once the calendar day has been determined, so every
// comparison and day count operates on whole days.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
)

// TwoDigitYearPivot splits two-digit years: values below it land in the
// 2000s, the rest in the 1900s.
const TwoDigitYearPivot = 50

var (
	weekdayPrefix = regexp.MustCompile(`(?i)^(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s+`)
	isoDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDate     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)
)

// Date is a calendar day. The zero value is the absent date.
type Date struct {
	day   civil.Date
	valid bool
}

// Of returns the date for the given calendar fields, or the absent date if
// they do not name a real day.
func Of(year int, month time.Month, day int) Date {
	d := civil.Date{Year: year, Month: month, Day: day}
	if !d.IsValid() {
		return Date{}
	}
	return Date{day: d, valid: true}
}

// FromTime returns the calendar day of t in t's location.
func FromTime(t time.Time) Date {
	return Date{day: civil.DateOf(t), valid: true}
}

// IsZero reports whether d is the absent date.
func (d Date) IsZero() bool { return !d.valid }

// Before reports whether d is strictly earlier than o. Absent dates are never
// before or after anything.
func (d Date) Before(o Date) bool {
	return d.valid && o.valid && d.day.Before(o.day)
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return d.valid && o.valid && d.day.After(o.day)
}

// Equal reports whether both dates are present and name the same day.
func (d Date) Equal(o Date) bool {
	return d.valid && o.valid && d.day == o.day
}

// OnOrAfter reports whether d >= o, both present.
func (d Date) OnOrAfter(o Date) bool {
	return d.valid && o.valid && !d.day.Before(o.day)
}

// AddDays returns d moved by n days. The absent date stays absent.
func (d Date) AddDays(n int) Date {
	if !d.valid {
		return d
	}
	return Date{day: d.day.AddDays(n), valid: true}
}

// String returns the canonical YYYY-MM-DD form, or "" when absent.
func (d Date) String() string { return Canonical(d) }

// Parse converts schedule text into a Date. It never fails: unparseable or
// impossible input yields the absent date.
//
// Accepted, in order:
//  1. an optional leading weekday token ("Mon 1/8/24", "Tuesday, ...")
//  2. ISO YYYY-MM-DD
//  3. M/D/YYYY or M/D/YY (two-digit years pivot at TwoDigitYearPivot)
//  4. anything dateparse understands in the local zone
func Parse(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	if rest := strings.TrimSpace(weekdayPrefix.ReplaceAllString(s, "")); rest != "" {
		s = rest
	}

	if isoDate.MatchString(s) {
		d, err := civil.ParseDate(s)
		if err != nil || !d.IsValid() {
			return Date{}
		}
		return Date{day: d, valid: true}
	}

	if m := slashDate.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			if year < TwoDigitYearPivot {
				year += 2000
			} else {
				year += 1900
			}
		}
		return Of(year, time.Month(month), day)
	}

	t, err := dateparse.ParseLocal(s)
	if err != nil || t.Year() < 1 {
		return Date{}
	}
	return FromTime(t.In(time.Local))
}

// Canonical renders the sortable YYYY-MM-DD form. Absent renders as "".
func Canonical(d Date) string {
	if !d.valid {
		return ""
	}
	return d.day.String()
}

// Display renders the short M/D/YY form without zero-padding month or day.
// Absent renders as "".
func Display(d Date) string {
	if !d.valid {
		return ""
	}
	return fmt.Sprintf("%d/%d/%02d", int(d.day.Month), d.day.Day, d.day.Year%100)
}

// DayDifference returns the whole days from a to b (b - a). It is 0 when
// either date is absent.
func DayDifference(a, b Date) int {
	if !a.valid || !b.valid {
		return 0
	}
	return b.day.DaysSince(a.day)
}

// Today returns the current local calendar day.
func Today() Date {
	return FromTime(time.Now())
}
