// Package schedule computes when a system is next due for assessment.
package schedule

import "time"

// DateLayout formats due dates.
const DateLayout = "2006-01-02"

// HighAutonomyThreshold is the composite score at which the longer interval
// applies.
const HighAutonomyThreshold = 128

// A month is counted as 30 days.
const daysPerMonth = 30

// Interval returns the reassessment interval for a composite score: six
// months at or above the high-autonomy threshold, three months otherwise.
func Interval(composite int) time.Duration {
	return time.Duration(intervalDays(composite)) * 24 * time.Hour
}

// NextDue returns the due date after at, as YYYY-MM-DD.
func NextDue(composite int, at time.Time) string {
	return NextDueTime(composite, at).Format(DateLayout)
}

// NextDueTime returns the due instant after at.
func NextDueTime(composite int, at time.Time) time.Time {
	return at.AddDate(0, 0, intervalDays(composite))
}

func intervalDays(composite int) int {
	if composite >= HighAutonomyThreshold {
		return 6 * daysPerMonth
	}
	return 3 * daysPerMonth
}
