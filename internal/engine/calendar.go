package engine

import "time"

// MonthDay is a calendar day without a year.
type MonthDay struct {
	Month time.Month `yaml:"month"`
	Day   int        `yaml:"day"`
}

// Calendar recognizes the placeholder ship dates upstream systems use for
// orders without a real commitment date.
type Calendar struct {
	Year int
	Days []MonthDay
}

// DefaultCalendar pins 07-04 and 12-31 to 2099.
func DefaultCalendar() Calendar {
	return Calendar{
		Year: 2099,
		Days: []MonthDay{{Month: time.July, Day: 4}, {Month: time.December, Day: 31}},
	}
}

func (c Calendar) matches(t time.Time) bool {
	for _, md := range c.Days {
		if t.Month() == md.Month && t.Day() == md.Day {
			return true
		}
	}
	return false
}

// Pin moves a placeholder-looking date onto the placeholder year.
func (c Calendar) Pin(t time.Time) time.Time {
	if t.IsZero() || !c.matches(t) {
		return t
	}
	return time.Date(c.Year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsPlaceholder reports whether t is a provisional date rather than a real commitment.
func (c Calendar) IsPlaceholder(t time.Time) bool {
	return !t.IsZero() && t.Year() == c.Year && c.matches(t)
}

// Day truncates t to midnight UTC of its own calendar day.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
