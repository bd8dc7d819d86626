package credits

import "time"

// Billing cycles are anchored to the day-of-month the subscription started.
// An anchor on the 31st falls on the last valid day of shorter months.

// clampDay returns day clamped to the number of days in the given month.
func clampDay(year int, month time.Month, day int) int {
	// Day zero of the next month is the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

// CycleStart returns the start of the billing cycle containing now, for a
// subscription anchored at anchor: the most recent occurrence of the anchor's
// day-of-month at or before now, at midnight UTC.
func CycleStart(anchor, now time.Time) time.Time {
	anchorDay := anchor.Day()
	now = now.UTC()

	year, month := now.Year(), now.Month()
	candidate := time.Date(year, month, clampDay(year, month, anchorDay), 0, 0, 0, 0, time.UTC)
	if candidate.After(now) {
		prev := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		year, month = prev.Year(), prev.Month()
		candidate = time.Date(year, month, clampDay(year, month, anchorDay), 0, 0, 0, 0, time.UTC)
	}
	return candidate
}

// NextRenewal returns the cycle boundary following the one containing from.
// Month arithmetic clamps to the anchor's day-of-month instead of spilling
// into the next month the way AddDate on Jan 31 would.
func NextRenewal(anchor, from time.Time) time.Time {
	start := CycleStart(anchor, from)
	next := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return time.Date(next.Year(), next.Month(), clampDay(next.Year(), next.Month(), anchor.Day()), 0, 0, 0, 0, time.UTC)
}

// Due reports whether a monthly renewal is owed at now. The decision compares
// the persisted last-renewal timestamp against the current cycle's start
// (rather than "day of month matches"), which is what keeps repeated runs on
// the anchor day from renewing twice.
func Due(anchor time.Time, lastRenewed *time.Time, now time.Time) bool {
	now = now.UTC()
	if now.Before(anchor) {
		return false
	}
	if lastRenewed == nil {
		// Never renewed: due once the first full cycle has elapsed. Credits
		// for the first cycle are granted at activation, not by the sweep.
		return !now.Before(NextRenewal(anchor, anchor))
	}
	return lastRenewed.UTC().Before(CycleStart(anchor, now))
}
