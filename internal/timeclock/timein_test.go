package timeclock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

func TestCalculateTimeIn(t *testing.T) {
	e := newEngine()

	newMondayJob := func() *domain.Job {
		job := newJob(newShift("monday-day", []string{"A"}, map[string]*domain.ScheduleEntry{
			"monday": entry("2024-01-01T09:00:00+08:00", "2024-01-01T17:00:00+08:00", domain.Roster{}),
		}))
		job.EarlyClockInMinutes = 10
		job.AutoAdjustEarlyClockIn = true
		return job
	}

	t.Run("early clock in is snapped to the shift start", func(t *testing.T) {
		job := newMondayJob()
		instant := at("2024-06-10 08:55:00")

		assert.True(t, e.CanClockIn(job, "A", instant, nil))
		assert.True(t, e.CalculateTimeIn(job, "A", instant, nil).Equal(at("2024-06-10 09:00:00")))
	})

	t.Run("without auto adjust the raw instant is kept", func(t *testing.T) {
		job := newMondayJob()
		job.AutoAdjustEarlyClockIn = false
		instant := at("2024-06-10 08:55:00")
		assert.True(t, e.CalculateTimeIn(job, "A", instant, nil).Equal(instant))
	})

	t.Run("late clock in keeps the raw instant", func(t *testing.T) {
		instant := at("2024-06-10 09:07:00")
		assert.True(t, e.CalculateTimeIn(newMondayJob(), "A", instant, nil).Equal(instant))
	})

	t.Run("before the early window keeps the raw instant", func(t *testing.T) {
		instant := at("2024-06-10 08:49:59")
		assert.True(t, e.CalculateTimeIn(newMondayJob(), "A", instant, nil).Equal(instant))
	})

	t.Run("no applicable shift keeps the raw instant", func(t *testing.T) {
		instant := at("2024-06-11 08:55:00")
		assert.True(t, e.CalculateTimeIn(newMondayJob(), "A", instant, nil).Equal(instant))
	})

	t.Run("snaps to the shift that admits the clock in", func(t *testing.T) {
		job := newJob(
			newShift("early", []string{"A"}, map[string]*domain.ScheduleEntry{
				"monday": entry("06:00", "08:00", domain.Roster{}),
			}),
			newShift("day", []string{"A"}, map[string]*domain.ScheduleEntry{
				"monday": entry("09:00", "17:00", domain.Roster{}),
			}),
		)
		job.EarlyClockInMinutes = 15
		job.AutoAdjustEarlyClockIn = true

		assert.True(t, e.CalculateTimeIn(job, "A", at("2024-06-10 08:50:00"), nil).Equal(at("2024-06-10 09:00:00")))
		assert.True(t, e.CalculateTimeIn(job, "A", at("2024-06-10 05:50:00"), nil).Equal(at("2024-06-10 06:00:00")))
	})
}

func TestHasAbandonedPunch(t *testing.T) {
	e := newEngine()

	job := newJob(
		newShift("monday-day", []string{"A"}, map[string]*domain.ScheduleEntry{
			"monday": entry("09:00", "17:00", domain.Roster{}),
		}),
		newShift("monday-early", []string{"B"}, map[string]*domain.ScheduleEntry{
			"monday": entry("06:00", "14:00", domain.Roster{}),
		}),
	)

	t.Run("open punch after every shift ended is abandoned", func(t *testing.T) {
		punch := openPunch("p1", "A", "2024-06-10 09:00:00")
		assert.True(t, e.HasAbandonedPunch(job, punch, at("2024-06-10 18:00:00")))
	})

	t.Run("open punch while a shift is still running is not abandoned", func(t *testing.T) {
		punch := openPunch("p1", "A", "2024-06-10 09:00:00")
		assert.False(t, e.HasAbandonedPunch(job, punch, at("2024-06-10 16:00:00")))
	})

	t.Run("closed punch is never abandoned", func(t *testing.T) {
		punch := closedPunch("p1", "A", "2024-06-10 09:00:00", "2024-06-10 17:00:00")
		assert.False(t, e.HasAbandonedPunch(job, punch, at("2024-06-11 18:00:00")))
	})

	t.Run("overnight shift ending the next morning keeps the punch alive", func(t *testing.T) {
		night := newJob(newShift("monday-night", []string{"A"}, map[string]*domain.ScheduleEntry{
			"monday": entry("23:00", "02:00", domain.Roster{}),
		}))
		punch := openPunch("p1", "A", "2024-06-10 23:00:00")
		assert.False(t, e.HasAbandonedPunch(night, punch, at("2024-06-11 01:30:00")))
		assert.True(t, e.HasAbandonedPunch(night, punch, at("2024-06-11 02:30:00")))
	})

	t.Run("late clock in after midnight on yesterday's overnight shift", func(t *testing.T) {
		night := newJob(newShift("sunday-night", []string{"A"}, map[string]*domain.ScheduleEntry{
			"sunday": entry("22:00", "06:00", domain.Roster{}),
		}))
		punch := openPunch("p1", "A", "2024-06-10 01:00:00")
		assert.False(t, e.HasAbandonedPunch(night, punch, at("2024-06-10 05:00:00")))
		assert.True(t, e.HasAbandonedPunch(night, punch, at("2024-06-10 07:00:00")))
	})
}

func TestGoverningShiftEnd(t *testing.T) {
	e := newEngine()

	job := newJob(
		newShift("monday-day", []string{"A"}, map[string]*domain.ScheduleEntry{
			"monday": entry("09:00", "17:00", domain.Roster{}),
		}),
		newShift("monday-evening", []string{"A"}, map[string]*domain.ScheduleEntry{
			"monday": entry("18:00", "22:00", domain.Roster{}),
		}),
	)

	t.Run("earliest end after the time in", func(t *testing.T) {
		end, ok := e.GoverningShiftEnd(job, openPunch("p1", "A", "2024-06-10 09:00:00"))
		require.True(t, ok)
		assert.True(t, end.Equal(at("2024-06-10 17:00:00")))
	})

	t.Run("the punch's own shift wins", func(t *testing.T) {
		punch := openPunch("p1", "A", "2024-06-10 09:00:00")
		punch.ShiftSlug = "monday-evening"
		end, ok := e.GoverningShiftEnd(job, punch)
		require.True(t, ok)
		assert.True(t, end.Equal(at("2024-06-10 22:00:00")))
	})

	t.Run("nothing ends after the time in", func(t *testing.T) {
		_, ok := e.GoverningShiftEnd(job, openPunch("p1", "A", "2024-06-10 23:00:00"))
		assert.False(t, ok)
	})
}
