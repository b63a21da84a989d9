package calendar

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const isoDate = "2006-01-02"

// Calendar is an immutable working-day table.
//
// A date mapped to true is a holiday even on a weekday. A weekend date mapped
// to false is a transferred working day. Dates absent from the table follow
// the Monday-Friday rule.
type Calendar struct {
	version string
	days    map[string]bool
	short   map[string]bool
}

// File is the on-disk YAML layout of a calendar table.
type File struct {
	Version string          `yaml:"version"`
	Days    map[string]bool `yaml:"days"`
	Short   []string        `yaml:"short"`
}

// New builds a calendar from a date-to-holiday table.
func New(version string, days map[string]bool, short []string) (*Calendar, error) {
	c := &Calendar{
		version: version,
		days:    make(map[string]bool, len(days)),
		short:   make(map[string]bool, len(short)),
	}
	for d, holiday := range days {
		if _, err := time.Parse(isoDate, d); err != nil {
			return nil, fmt.Errorf("calendar day %q: %w", d, err)
		}
		c.days[d] = holiday
	}
	for _, d := range short {
		if _, err := time.Parse(isoDate, d); err != nil {
			return nil, fmt.Errorf("calendar short day %q: %w", d, err)
		}
		c.short[d] = true
	}
	return c, nil
}

// Weekends returns a calendar with no holidays.
func Weekends() *Calendar {
	c, _ := New("weekends", nil, nil)
	return c
}

// FromYAML parses a calendar table.
func FromYAML(data []byte) (*Calendar, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	return New(f.Version, f.Days, f.Short)
}

// Load reads a calendar table from path.
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Version identifies the table the calendar was built from.
func (c *Calendar) Version() string {
	return c.version
}

// IsHoliday reports whether t falls on a non-working day.
func (c *Calendar) IsHoliday(t time.Time) bool {
	key := t.Format(isoDate)
	flag, listed := c.days[key]
	if isWeekend(t) {
		return !listed || flag
	}
	return listed && flag
}

// IsWorkingDay reports whether t falls on a working day.
func (c *Calendar) IsWorkingDay(t time.Time) bool {
	return !c.IsHoliday(t)
}

// IsFullWorkingDay reports whether t is a working day with regular hours.
func (c *Calendar) IsFullWorkingDay(t time.Time) bool {
	return c.IsWorkingDay(t) && !c.short[t.Format(isoDate)]
}

// Holidays lists non-working weekdays and working weekend days between from and to inclusive.
func (c *Calendar) Holidays(from, to time.Time) []Day {
	var res []Day
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(isoDate)
		if _, listed := c.days[key]; !listed && !c.short[key] {
			continue
		}
		res = append(res, Day{
			Date:    key,
			Working: c.IsWorkingDay(d),
			Full:    c.IsFullWorkingDay(d),
		})
	}
	return res
}

// Day is a calendar entry for listing.
type Day struct {
	Date    string `json:"date"`
	Working bool   `json:"working"`
	Full    bool   `json:"full"`
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
