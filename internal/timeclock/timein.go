package timeclock

import (
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

// CalculateTimeIn 计算实际记录的上班时间
// 提前打卡（落在 [开始 - 提前量, 开始] 内）且 job 开启了自动调整时记为班次开始时间，其余情况记为 instant。
// 使用的是允许此刻打卡的那个时间段，而不是第一个匹配的班次。
func (e *Engine) CalculateTimeIn(job *domain.Job, applicantID string, instant time.Time, shift *domain.Shift) time.Time {
	if job == nil || !job.AutoAdjustEarlyClockIn {
		return instant
	}

	w, ok := e.AdmittingWindow(job, applicantID, instant, shift)
	if !ok {
		return instant
	}

	if !instant.Before(w.Start.Add(-EarlyAllowance(job))) && !instant.After(w.Start) {
		return w.Start
	}

	return instant
}

type projectedEnd struct {
	slug string
	end  time.Time
}

// shiftEnds 返回打卡当天所有班次投影后的结束时间，包括前一天跨午夜延续到当天的班次
func (e *Engine) shiftEnds(job *domain.Job, punch *domain.Punch) []projectedEnd {
	if job == nil {
		return nil
	}

	day := punch.TimeIn.In(e.loc)
	yesterday := day.AddDate(0, 0, -1)

	ends := make([]projectedEnd, 0, len(job.Shifts))
	for i := range job.Shifts {
		shift := &job.Shifts[i]

		if start, end, ok := e.entryTimes(shift.EntryFor(day.Weekday())); ok {
			ends = append(ends, projectedEnd{slug: shift.Slug, end: ProjectToDay(end, day, &start)})
		}
		if start, end, ok := e.entryTimes(shift.EntryFor(yesterday.Weekday())); ok && RollsOver(start, end) {
			ends = append(ends, projectedEnd{slug: shift.Slug, end: ProjectToDay(end, yesterday, &start)})
		}
	}

	return ends
}

// HasAbandonedPunch 判断一条未结束的打卡记录是否已被遗忘
// 只要打卡当天还有任意班次的结束时间晚于 instant，就不算遗忘
func (e *Engine) HasAbandonedPunch(job *domain.Job, punch *domain.Punch, instant time.Time) bool {
	if punch == nil || punch.TimeOut != nil {
		return false
	}

	for _, pe := range e.shiftEnds(job, punch) {
		if pe.end.After(instant) {
			return false
		}
	}

	return true
}

// GoverningShiftEnd 返回自动下班打卡时使用的结束时间
// 优先使用打卡记录所属班次的结束时间，否则取上班之后最早结束的班次
func (e *Engine) GoverningShiftEnd(job *domain.Job, punch *domain.Punch) (time.Time, bool) {
	if punch == nil {
		return time.Time{}, false
	}

	var best time.Time
	found := false

	for _, pe := range e.shiftEnds(job, punch) {
		if !pe.end.After(punch.TimeIn) {
			continue
		}
		if punch.ShiftSlug != "" && pe.slug == punch.ShiftSlug {
			return pe.end, true
		}
		if !found || pe.end.Before(best) {
			best = pe.end
			found = true
		}
	}

	return best, found
}
