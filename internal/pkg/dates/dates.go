// Package dates holds the calendar-date helpers shared by the engines. Due dates,
// lease dates and transaction dates are civil dates kept as YYYY-MM-DD strings,
// which compare correctly as plain strings.
package dates

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jinzhu/now"

	apperrors "propertyhub/internal/pkg/errors"
)

const Layout = "2006-01-02"

// Today truncates t to midnight UTC of its calendar day.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// Valid checks that s is a YYYY-MM-DD date and reports the failure against field.
func Valid(field, s string) error {
	if _, err := Parse(s); err != nil {
		return apperrors.NewValidationError(field, err.Error())
	}
	return nil
}

// Nullable binds an optional date to a nullable column.
func Nullable(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// FromNull converts a nullable text column.
func FromNull(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	v := ns.String
	return &v
}

// AddDays shifts a YYYY-MM-DD date.
func AddDays(s string, days int) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, days)), nil
}

// MonthRange returns [first day of month, first day of next month).
func MonthRange(month, year int) (time.Time, time.Time) {
	start := now.With(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)).BeginningOfMonth()
	return start, start.AddDate(0, 1, 0)
}

// DayInMonth builds year-month-day, clamping day to the month's last day
// (due day 31 in February becomes the 28th or 29th).
func DayInMonth(year, month, day int) time.Time {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := now.With(first).EndOfMonth().Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// MonthLabel renders "February 2024".
func MonthLabel(month, year int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String(), year)
}
