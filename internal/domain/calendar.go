// Package domain holds the types and helpers shared by the decision core.
package domain

import "time"

// KST is Korea Standard Time. It has no daylight saving, so a fixed zone
// avoids depending on the tz database.
var KST = time.FixedZone("KST", 9*60*60)

// Layouts for calendar bucket keys.
const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

// SecondsPerDay is the cooldown day length.
const SecondsPerDay = 86400

// DayKey returns the KST calendar day of t, e.g. "2026-10-17".
func DayKey(t time.Time) string {
	return t.In(KST).Format(DayLayout)
}

// MonthKey returns the KST calendar month of t, e.g. "2026-10".
func MonthKey(t time.Time) string {
	return t.In(KST).Format(MonthLayout)
}

// AddDays returns the KST day key that is days after t's KST day.
func AddDays(t time.Time, days int) string {
	k := t.In(KST)
	midnight := time.Date(k.Year(), k.Month(), k.Day(), 0, 0, 0, 0, KST)
	return midnight.AddDate(0, 0, days).Format(DayLayout)
}
