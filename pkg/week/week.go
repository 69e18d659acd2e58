// Package week implements the ISO-8601 week arithmetic used to bucket
// weekly status reports. All calculations are UTC based; the organization
// runs on a single week definition regardless of user timezone.
package week

import (
	"fmt"
	"time"
)

// Week identifies one ISO week by its canonical key and start date.
type Week struct {
	Key   string    `json:"weekKey"`
	Start time.Time `json:"weekStartDate"`
	Label string    `json:"label"`
}

// Key returns the "YYYY-WW" identifier for the ISO week containing t.
// The ISO year is determined by the Thursday of t's week.
func Key(t time.Time) string {
	d := midnightUTC(t)
	wd := isoWeekday(d)
	thursday := d.AddDate(0, 0, 4-wd)
	startOfYear := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(thursday.Sub(startOfYear) / (24 * time.Hour))
	weekNo := days/7 + 1
	return fmt.Sprintf("%04d-%02d", thursday.Year(), weekNo)
}

// Start returns the Monday of the ISO week containing t, at midnight UTC.
func Start(t time.Time) time.Time {
	d := midnightUTC(t)
	return d.AddDate(0, 0, 1-isoWeekday(d))
}

// Calendar carries the retention configuration so that cutoff and range
// calculations never reach into the process environment.
type Calendar struct {
	RetentionMonths int
}

// DefaultRetentionMonths is used when no retention is configured.
const DefaultRetentionMonths = 6

// NewCalendar returns a Calendar for the given retention window.
// Non-positive values fall back to the default.
func NewCalendar(retentionMonths int) Calendar {
	if retentionMonths <= 0 {
		retentionMonths = DefaultRetentionMonths
	}
	return Calendar{RetentionMonths: retentionMonths}
}

// Cutoff returns the retention horizon: now minus the retention window,
// normalized to midnight UTC. Reports starting before the cutoff are
// expired.
func (c Calendar) Cutoff(now time.Time) time.Time {
	return midnightUTC(now.UTC().AddDate(0, -c.RetentionMonths, 0))
}

// Range enumerates the weeks from now's week back to the retention
// cutoff, most recent first. If max > 0 the result is truncated to at
// most max weeks. Used to build fixed-width trend and heatmap columns.
func (c Calendar) Range(now time.Time, max int) []Week {
	cutoff := c.Cutoff(now)
	var weeks []Week
	for cursor := Start(now); !cursor.Before(cutoff); cursor = cursor.AddDate(0, 0, -7) {
		weeks = append(weeks, Week{
			Key:   Key(cursor),
			Start: cursor,
			Label: label(cursor),
		})
		if max > 0 && len(weeks) >= max {
			break
		}
	}
	return weeks
}

// label renders the history-selector caption, e.g. "09 Feb – 15 Feb 2026".
func label(start time.Time) string {
	end := start.AddDate(0, 0, 6)
	return start.Format("02 Jan") + " – " + end.Format("02 Jan 2006")
}

// isoWeekday maps time.Weekday to ISO numbering: Monday=1 .. Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
