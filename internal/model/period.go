package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period")

var periodPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Period is an ISO-8601 calendar week, e.g. 2024-W50.
type Period struct {
	Year int
	Week int
}

// ParsePeriod parses a "YYYY-Www" identifier.
func ParsePeriod(s string) (Period, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("%w: %q must look like 2024-W50", ErrInvalidPeriod, s)
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])

	if week < 1 || week > WeeksInYear(year) {
		return Period{}, fmt.Errorf("%w: %q has no week %d", ErrInvalidPeriod, s, week)
	}
	return Period{Year: year, Week: week}, nil
}

// MustParsePeriod is ParsePeriod for constants and tests.
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PeriodOf returns the ISO week containing t (evaluated in UTC).
func PeriodOf(t time.Time) Period {
	y, w := t.UTC().ISOWeek()
	return Period{Year: y, Week: w}
}

// WeeksInYear returns 52 or 53. December 28th always falls in the last ISO week.
func WeeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// Start is Monday 00:00 UTC of the week.
func (p Period) Start() time.Time {
	jan4 := time.Date(p.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	firstMonday := jan4.AddDate(0, 0, -offset)
	return firstMonday.AddDate(0, 0, (p.Week-1)*7)
}

// End is the exclusive upper bound, the following Monday 00:00 UTC.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 0, 7)
}

func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && t.Before(p.End())
}

func (p Period) Previous() Period {
	return PeriodOf(p.Start().AddDate(0, 0, -7))
}

func (p Period) Next() Period {
	return PeriodOf(p.End())
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-W%02d", p.Year, p.Week)
}
