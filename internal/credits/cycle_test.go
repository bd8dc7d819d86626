package credits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCycleStart(t *testing.T) {
	anchor := date(2025, time.January, 15)

	t.Run("mid cycle", func(t *testing.T) {
		got := CycleStart(anchor, date(2025, time.March, 20))
		assert.Equal(t, date(2025, time.March, 15), got)
	})

	t.Run("before anchor day rolls back a month", func(t *testing.T) {
		got := CycleStart(anchor, date(2025, time.March, 10))
		assert.Equal(t, date(2025, time.February, 15), got)
	})

	t.Run("on anchor day", func(t *testing.T) {
		got := CycleStart(anchor, date(2025, time.March, 15).Add(8*time.Hour))
		assert.Equal(t, date(2025, time.March, 15), got)
	})
}

func TestCycleStartClampsShortMonths(t *testing.T) {
	anchor := date(2025, time.January, 31)

	// February 2025 has 28 days; the cycle that contains Feb 28 starts on
	// the clamped anchor day, not on March 3.
	got := CycleStart(anchor, date(2025, time.February, 28).Add(12*time.Hour))
	assert.Equal(t, date(2025, time.February, 28), got)

	// Leap year February clamps to the 29th.
	got = CycleStart(anchor, date(2024, time.March, 1))
	assert.Equal(t, date(2024, time.February, 29), got)

	// 30-day month clamps to the 30th.
	got = CycleStart(anchor, date(2025, time.April, 30).Add(time.Hour))
	assert.Equal(t, date(2025, time.April, 30), got)
}

func TestNextRenewal(t *testing.T) {
	anchor := date(2025, time.January, 31)

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"jan to feb clamps to 28", date(2025, time.February, 10), date(2025, time.February, 28)},
		{"feb to mar recovers the 31st", date(2025, time.March, 10), date(2025, time.March, 31)},
		{"mar to apr clamps to 30", date(2025, time.April, 10), date(2025, time.April, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextRenewal(anchor, tt.from))
		})
	}
}

func TestDue(t *testing.T) {
	anchor := date(2025, time.January, 15)

	t.Run("before anchor never due", func(t *testing.T) {
		assert.False(t, Due(anchor, nil, date(2025, time.January, 10)))
	})

	t.Run("never renewed, first cycle still running", func(t *testing.T) {
		// Activation granted the first cycle's credits; the sweep must not
		// grant them again on day one.
		assert.False(t, Due(anchor, nil, date(2025, time.January, 16)))
		assert.False(t, Due(anchor, nil, date(2025, time.February, 14)))
	})

	t.Run("never renewed, first cycle elapsed", func(t *testing.T) {
		assert.True(t, Due(anchor, nil, date(2025, time.February, 15)))
	})

	t.Run("renewed this cycle is not due again", func(t *testing.T) {
		last := date(2025, time.March, 15).Add(3 * time.Hour)
		assert.False(t, Due(anchor, &last, date(2025, time.March, 15).Add(9*time.Hour)))
		assert.False(t, Due(anchor, &last, date(2025, time.April, 14)))
	})

	t.Run("renewed last cycle is due", func(t *testing.T) {
		last := date(2025, time.March, 15)
		assert.True(t, Due(anchor, &last, date(2025, time.April, 15).Add(time.Hour)))
	})

	t.Run("missed cycles are due on the next sweep", func(t *testing.T) {
		last := date(2025, time.January, 15)
		assert.True(t, Due(anchor, &last, date(2025, time.April, 20)))
	})
}

func TestDueEndOfMonthAnchor(t *testing.T) {
	anchor := date(2025, time.January, 31)

	// Renewed on the clamped Feb 28 boundary; due again on March 31, not
	// before.
	last := date(2025, time.February, 28).Add(3 * time.Hour)
	assert.False(t, Due(anchor, &last, date(2025, time.March, 30)))
	assert.True(t, Due(anchor, &last, date(2025, time.March, 31).Add(time.Hour)))
}
