// Package timeparse interprets free-text dates and vague times of day.
// All functions are pure and total: unrecognized input yields a false
// second return, never an error.
package timeparse

import (
	"strings"
	"time"
)

// HourRange is a half-open [Start, End) hour interval within a day.
type HourRange struct {
	StartHour int
	EndHour   int
}

// Contains reports whether the hour falls inside the range.
func (r HourRange) Contains(hour int) bool {
	return hour >= r.StartHour && hour < r.EndHour
}

// ParseTimeOfDay maps vague time-of-day words to hour ranges.
// "morning" → [9,12), "afternoon" → [12,16), "evening" → [16,19).
func ParseTimeOfDay(text string) (HourRange, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "morning"):
		return HourRange{StartHour: 9, EndHour: 12}, true
	case strings.Contains(lower, "afternoon"):
		return HourRange{StartHour: 12, EndHour: 16}, true
	case strings.Contains(lower, "evening"):
		return HourRange{StartHour: 16, EndHour: 19}, true
	}
	return HourRange{}, false
}

// Ordered so the earliest weekday mentioned wins deterministically when
// a message names more than one.
var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"sunday", time.Sunday},
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
}

// ParseDate resolves free text to a calendar date (start of day in loc).
// Recognized: "today", "tomorrow", weekday names ("friday" = next
// upcoming Friday, "next friday" = next week's Friday), and ISO dates
// (2026-03-01).
func ParseDate(text string, now time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	today := startOfDay(now.In(loc))

	if strings.Contains(lower, "today") {
		return today, true
	}
	if strings.Contains(lower, "tomorrow") {
		return today.AddDate(0, 0, 1), true
	}

	for _, wd := range weekdayNames {
		if !strings.Contains(lower, wd.name) {
			continue
		}
		days := int(wd.day-today.Weekday()+7) % 7
		if days == 0 {
			days = 7 // bare weekday never means today
		}
		// "next monday" means next week's Monday even when one is sooner.
		if strings.Contains(lower, "next "+wd.name) && days < 7 {
			days += 7
		}
		return today.AddDate(0, 0, days), true
	}

	// ISO calendar date anywhere in the message.
	for _, field := range strings.Fields(lower) {
		if d, err := time.ParseInLocation("2006-01-02", strings.Trim(field, ".,!?"), loc); err == nil {
			return d, true
		}
	}

	return time.Time{}, false
}

// FormatSlot renders a slot start time for display, e.g.
// "Monday, March 2 at 10:00 AM".
func FormatSlot(t time.Time) string {
	return t.Format("Monday, January 2 at 3:04 PM")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
