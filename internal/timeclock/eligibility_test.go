package timeclock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

func TestCanClockIn(t *testing.T) {
	e := newEngine()

	job := newJob(newShift("monday-day", []string{"A"}, map[string]*domain.ScheduleEntry{
		"monday": entry("09:00", "17:00", domain.Roster{}),
	}))
	job.EarlyClockInMinutes = 15

	tests := []struct {
		name    string
		instant string
		want    bool
	}{
		{name: "exactly at the early boundary", instant: "2024-06-10 08:45:00", want: true},
		{name: "one second before the early boundary", instant: "2024-06-10 08:44:59", want: false},
		{name: "during the shift", instant: "2024-06-10 12:00:00", want: true},
		{name: "exactly at the end", instant: "2024-06-10 17:00:00", want: true},
		{name: "after the end", instant: "2024-06-10 17:00:01", want: false},
		{name: "another weekday", instant: "2024-06-11 09:00:00", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.CanClockIn(job, "A", at(tt.instant), nil))
		})
	}

	t.Run("unset allowance means no early clock in", func(t *testing.T) {
		strict := *job
		strict.EarlyClockInMinutes = 0
		assert.False(t, e.CanClockIn(&strict, "A", at("2024-06-10 08:59:59"), nil))
		assert.True(t, e.CanClockIn(&strict, "A", at("2024-06-10 09:00:00"), nil))
	})

	t.Run("overnight window from yesterday is also checked", func(t *testing.T) {
		both := newJob(
			newShift("sunday-night", []string{"A"}, map[string]*domain.ScheduleEntry{
				"sunday": entry("22:00", "06:00", domain.Roster{}),
			}),
			newShift("monday-day", []string{"A"}, map[string]*domain.ScheduleEntry{
				"monday": entry("09:00", "17:00", domain.Roster{}),
			}),
		)
		assert.True(t, e.CanClockIn(both, "A", at("2024-06-10 05:00:00"), nil))
		assert.False(t, e.CanClockIn(both, "A", at("2024-06-10 07:00:00"), nil))
	})
}

func TestMinutesUntilEligible(t *testing.T) {
	e := newEngine()

	job := newJob(newShift("monday-day", []string{"A"}, map[string]*domain.ScheduleEntry{
		"monday": entry("09:00", "17:00", domain.Roster{}),
	}))
	job.EarlyClockInMinutes = 15

	t.Run("counts whole minutes until the early boundary", func(t *testing.T) {
		minutes, ok := e.MinutesUntilEligible(job, "A", at("2024-06-10 08:00:00"), nil)
		assert.True(t, ok)
		assert.Equal(t, 45, minutes)
	})

	t.Run("rounds partial minutes up", func(t *testing.T) {
		minutes, ok := e.MinutesUntilEligible(job, "A", at("2024-06-10 08:44:30"), nil)
		assert.True(t, ok)
		assert.Equal(t, 1, minutes)
	})

	t.Run("zero when already eligible", func(t *testing.T) {
		minutes, ok := e.MinutesUntilEligible(job, "A", at("2024-06-10 10:00:00"), nil)
		assert.True(t, ok)
		assert.Equal(t, 0, minutes)
	})

	t.Run("floored at zero after the shift ended", func(t *testing.T) {
		minutes, ok := e.MinutesUntilEligible(job, "A", at("2024-06-10 18:00:00"), nil)
		assert.True(t, ok)
		assert.Equal(t, 0, minutes)
	})

	t.Run("no window at all", func(t *testing.T) {
		_, ok := e.MinutesUntilEligible(job, "A", at("2024-06-11 08:00:00"), nil)
		assert.False(t, ok)
	})
}

func TestEligibilityWithSeveralShiftsOnOneDay(t *testing.T) {
	e := newEngine()

	// early 排在 day 之前，08:00 结束后 day 才开始
	job := newJob(
		newShift("early", []string{"A"}, map[string]*domain.ScheduleEntry{
			"monday": entry("06:00", "08:00", domain.Roster{}),
		}),
		newShift("day", []string{"A"}, map[string]*domain.ScheduleEntry{
			"monday": entry("09:00", "17:00", domain.Roster{}),
		}),
	)
	job.EarlyClockInMinutes = 15

	t.Run("admitting window is the later shift", func(t *testing.T) {
		w, ok := e.AdmittingWindow(job, "A", at("2024-06-10 08:50:00"), nil)
		assert.True(t, ok)
		assert.Equal(t, "day", w.ShiftSlug)
		assert.True(t, w.Start.Equal(at("2024-06-10 09:00:00")))
	})

	t.Run("waits for the next shift instead of the ended one", func(t *testing.T) {
		minutes, ok := e.MinutesUntilEligible(job, "A", at("2024-06-10 08:30:00"), nil)
		assert.True(t, ok)
		assert.Equal(t, 15, minutes)
	})

	t.Run("takes the nearest upcoming shift", func(t *testing.T) {
		minutes, ok := e.MinutesUntilEligible(job, "A", at("2024-06-10 05:00:00"), nil)
		assert.True(t, ok)
		assert.Equal(t, 45, minutes)
	})

	t.Run("no admitting window between shifts", func(t *testing.T) {
		_, ok := e.AdmittingWindow(job, "A", at("2024-06-10 08:30:00"), nil)
		assert.False(t, ok)
	})
}
