package deadline

import (
	"regexp"
	"strconv"
	"time"
)

// Day is one unit of calendar or business duration.
const Day = 24 * time.Hour

// WorkingCalendar classifies days as working or not.
type WorkingCalendar interface {
	IsWorkingDay(t time.Time) bool
}

// Calculator adds business durations to dates using an injected calendar.
type Calculator struct {
	Calendar WorkingCalendar
}

// BusinessDate adds duration to start.
//
// A positive accelerator divides duration and ignores the calendar. With
// workingDays unset duration is added as is. Otherwise whole days are counted
// on working days only; a non-working start is moved to the next working
// midnight and never consumes duration.
func (c Calculator) BusinessDate(start time.Time, duration time.Duration, accelerator int, workingDays bool) time.Time {
	if accelerator > 0 {
		return start.Add(duration / time.Duration(accelerator))
	}
	if !workingDays {
		return start.Add(duration)
	}
	days := int(duration / Day)
	if days < 0 {
		days = -days
	}
	date := start
	if duration > 0 && !c.Calendar.IsWorkingDay(date) {
		date = NormalizedDate(date, false).AddDate(0, 0, 1)
		for !c.Calendar.IsWorkingDay(date) {
			date = date.AddDate(0, 0, 1)
		}
	}
	step := 1
	if duration < 0 {
		step = -1
	}
	for days > 0 {
		date = date.AddDate(0, 0, step)
		if c.Calendar.IsWorkingDay(date) {
			days--
		}
	}
	return date
}

// NormalizedBusinessDate is BusinessDate rounded up to midnight.
func (c Calculator) NormalizedBusinessDate(start time.Time, duration time.Duration, accelerator int, workingDays bool) time.Time {
	return NormalizedDate(c.BusinessDate(start, duration, accelerator, workingDays), true)
}

// NormalizedDate truncates t to midnight, or rounds it up to the next
// midnight when ceil is set and t is not already midnight.
func NormalizedDate(t time.Time, ceil bool) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if ceil && !midnight.Equal(t) {
		return midnight.AddDate(0, 0, 1)
	}
	return midnight
}

var acceleratorRe = regexp.MustCompile(`accelerator=(\d+)`)

// ParseAccelerator extracts the accelerator from monitoring details.
func ParseAccelerator(details string) int {
	m := acceleratorRe.FindStringSubmatch(details)
	if m == nil {
		return 0
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return v
}
