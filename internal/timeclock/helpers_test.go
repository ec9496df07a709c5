package timeclock

import (
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

var cst = time.FixedZone("CST", 8*60*60)

// at 解析 CST 时区下的 "2006-01-02 15:04:05"
func at(s string) time.Time {
	t, err := time.ParseInLocation(time.DateTime, s, cst)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T {
	return &v
}

func entry(start, end string, roster domain.Roster) *domain.ScheduleEntry {
	return &domain.ScheduleEntry{Start: start, End: end, Roster: roster}
}

func newShift(slug string, applicants []string, schedule map[string]*domain.ScheduleEntry) domain.Shift {
	return domain.Shift{
		ID:              slug,
		Slug:            slug,
		Name:            slug,
		ShiftStartDate:  "2024-01-01",
		ShiftEndDate:    "2024-12-31",
		DefaultSchedule: schedule,
		ShiftRoster:     applicants,
	}
}

func newJob(shifts ...domain.Shift) *domain.Job {
	return &domain.Job{
		ID:     "job-1",
		Title:  "前台",
		Shifts: shifts,
	}
}

func newEngine() *Engine {
	return New(cst)
}
