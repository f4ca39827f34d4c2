package core

import (
	"fmt"
	"time"
)

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the window is unset, meaning "no time filter".
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// DayWindow covers the calendar day of t in loc.
func DayWindow(t time.Time, loc *time.Location) Window {
	t = t.In(loc)
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return Window{From: from, To: from.AddDate(0, 0, 1)}
}

// MonthWindow covers a whole calendar month in loc.
func MonthWindow(year, month int, loc *time.Location) (Window, error) {
	if err := validateYear(year); err != nil {
		return Window{}, err
	}
	if month < 1 || month > 12 {
		return Window{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return Window{From: from, To: from.AddDate(0, 1, 0)}, nil
}

// YearWindow covers a whole calendar year in loc.
func YearWindow(year int, loc *time.Location) (Window, error) {
	if err := validateYear(year); err != nil {
		return Window{}, err
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return Window{From: from, To: from.AddDate(1, 0, 0)}, nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func validateYear(year int) error {
	if year < 2000 || year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	return nil
}
