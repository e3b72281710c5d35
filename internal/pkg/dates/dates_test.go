package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2, 2024)
	assert.Equal(t, "2024-02-01", Format(start))
	assert.Equal(t, "2024-03-01", Format(end))

	start, end = MonthRange(12, 2023)
	assert.Equal(t, "2023-12-01", Format(start))
	assert.Equal(t, "2024-01-01", Format(end))
}

func TestDayInMonth_ClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, "2024-02-29", Format(DayInMonth(2024, 2, 31)))
	assert.Equal(t, "2023-02-28", Format(DayInMonth(2023, 2, 30)))
	assert.Equal(t, "2024-04-30", Format(DayInMonth(2024, 4, 31)))
	assert.Equal(t, "2024-02-01", Format(DayInMonth(2024, 2, 1)))
}

func TestToday(t *testing.T) {
	ts := time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Today(ts))
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "February 2024", MonthLabel(2, 2024))
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2024-02-28", 2)
	assert.NoError(t, err)
	assert.Equal(t, "2024-03-01", got)

	_, err = AddDays("28/02/2024", 1)
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.NoError(t, Valid("due_date", "2024-02-01"))
	assert.Error(t, Valid("due_date", "2024-13-01"))
}
