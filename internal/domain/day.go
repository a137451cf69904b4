package domain

import (
	"fmt"
	"time"
)

// DayLayout is the ISO calendar date layout used for snapshot keys.
const DayLayout = "2006-01-02"

// Day is a UTC calendar date in YYYY-MM-DD form. The zero value marks a
// legacy undated snapshot. Days compare chronologically as strings.
type Day string

// DayOf returns the UTC calendar date of t.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(DayLayout))
}

// ParseDay validates an ISO calendar date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns midnight UTC of the day. It panics on a malformed Day, which
// can only be built by bypassing DayOf and ParseDay.
func (d Day) Time() time.Time {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		panic(fmt.Sprintf("domain: malformed day %q", string(d)))
	}
	return t
}

// AddDays returns the day n calendar days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

func (d Day) String() string { return string(d) }
