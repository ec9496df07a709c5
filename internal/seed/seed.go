// Package seed 生成用于本地开发的演示数据
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/timeclock"
)

// Applicants 生成 n 个申请人 ID
func Applicants(n int) []string {
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, fmt.Sprintf("applicant-%02d", i))
	}
	return ids
}

// pick 从 ids 中随机选出最多 k 个
func pick(r *rand.Rand, ids []string, k int) []string {
	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	if k > len(shuffled) {
		k = len(shuffled)
	}
	return shuffled[:k]
}

// DemoJob 生成一个前台值班工作：
// 工作日白班使用旧格式名单，晚班使用新格式名单，周五周六有跨午夜的夜班
func DemoJob(r *rand.Rand, applicants []string, from time.Time, weeks int) *domain.Job {
	startDate := from.Format(time.DateOnly)
	endDate := from.AddDate(0, 0, 7*weeks).Format(time.DateOnly)

	day := domain.Shift{
		Slug:            "day",
		Name:            "白班",
		ShiftStartDate:  startDate,
		ShiftEndDate:    endDate,
		DefaultSchedule: map[string]*domain.ScheduleEntry{},
	}
	evening := domain.Shift{
		Slug:            "evening",
		Name:            "晚班",
		ShiftStartDate:  startDate,
		ShiftEndDate:    endDate,
		DefaultSchedule: map[string]*domain.ScheduleEntry{},
	}
	night := domain.Shift{
		Slug:            "night",
		Name:            "夜班",
		ShiftStartDate:  startDate,
		ShiftEndDate:    endDate,
		DefaultSchedule: map[string]*domain.ScheduleEntry{},
	}

	for _, wd := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
		key := domain.WeekdayKey(wd)
		day.DefaultSchedule[key] = &domain.ScheduleEntry{
			Start:  "09:00",
			End:    "17:00",
			Roster: domain.NewFlatRoster(pick(r, applicants, 3)...),
		}

		// 晚班名单中既有每周重复的项，也有指定日期的项和待审批的项
		entries := []domain.RosterEntry{}
		for i, id := range pick(r, applicants, 3) {
			entry := domain.RosterEntry{EmployeeID: id, AssignedPosition: "前台"}
			switch i {
			case 1:
				entry.Date = nextWeekday(from, wd).Format(time.DateOnly)
				entry.Status = domain.RosterStatusApproved
			case 2:
				entry.Status = domain.RosterStatusPending
			}
			entries = append(entries, entry)
		}
		evening.DefaultSchedule[key] = &domain.ScheduleEntry{
			Start:  "18:00",
			End:    "21:30",
			Roster: domain.NewStructuredRoster(entries...),
		}
	}

	for _, wd := range []time.Weekday{time.Friday, time.Saturday} {
		night.DefaultSchedule[domain.WeekdayKey(wd)] = &domain.ScheduleEntry{
			Start:  "22:00",
			End:    "06:00",
			Roster: domain.NewFlatRoster(pick(r, applicants, 2)...),
		}
	}

	for _, s := range []*domain.Shift{&day, &evening, &night} {
		seen := map[string]struct{}{}
		for _, entry := range s.DefaultSchedule {
			for _, id := range entry.Roster.IDs {
				seen[id] = struct{}{}
			}
			for _, e := range entry.Roster.Entries {
				seen[e.EmployeeID] = struct{}{}
			}
		}
		for id := range seen {
			s.ShiftRoster = append(s.ShiftRoster, id)
		}
	}

	return &domain.Job{
		Title:               "网络中心前台值班",
		Description:         "演示数据",
		EarlyClockInMinutes: 10,
		Geofence: domain.Geofence{
			Enabled:      true,
			Latitude:     23.0967,
			Longitude:    113.2985,
			RadiusMeters: 200,
		},
		AutoClockoutShiftEnd: true,
		Shifts:               []domain.Shift{day, evening, night},
	}
}

// nextWeekday 返回 from 当天或之后第一个星期 wd
func nextWeekday(from time.Time, wd time.Weekday) time.Time {
	diff := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, diff)
}

// History 为每个申请人生成过去 days 天内已经下班的打卡记录
// 每人每天最多一条，只使用当天开始的班次，尚未结束的班次跳过
func History(r *rand.Rand, e *timeclock.Engine, job *domain.Job, applicants []string, now time.Time, days int) []*domain.Punch {
	var punches []*domain.Punch

	now = now.In(e.Location())
	for d := days; d >= 1; d-- {
		noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, e.Location()).AddDate(0, 0, -d)
		for _, applicantID := range applicants {
			for _, w := range e.ResolveShiftWindows(job, applicantID, noon, nil) {
				if w.FromPreviousDay || w.End.After(now) {
					continue
				}

				timeIn := w.Start.Add(time.Duration(r.Intn(15)-5) * time.Minute)
				timeOut := w.End.Add(time.Duration(r.Intn(10)) * time.Minute)
				punches = append(punches, &domain.Punch{
					ID:          uuid.NewString(),
					ApplicantID: applicantID,
					JobID:       job.ID,
					ShiftSlug:   w.ShiftSlug,
					TimeIn:      timeIn,
					TimeOut:     &timeOut,
					Status:      domain.PunchStatusClosed,
					CloseReason: domain.CloseReasonClockOut,
				})
				break
			}
		}
	}

	return punches
}
