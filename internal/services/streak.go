package services

import (
	"math"
	"time"
)

// NextStreak applies the calendar-day streak rule at session completion:
// same day as the last activity leaves the streak unchanged, exactly the
// previous day increments it, anything else (including first-ever activity)
// resets it to 1. Callers must invoke it at most once per completion.
func NextStreak(current int, lastActive *time.Time, now time.Time) int {
	if lastActive == nil {
		return 1
	}
	switch calendarDaysBetween(*lastActive, now) {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

// calendarDaysBetween counts calendar-day boundaries crossed between a and b,
// evaluated in b's location. Rounding absorbs DST-shortened or -lengthened
// days.
func calendarDaysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, b.Location())
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, b.Location())
	return int(math.Round(db.Sub(da).Hours() / 24))
}
