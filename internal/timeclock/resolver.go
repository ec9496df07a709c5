package timeclock

import (
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

// candidateShifts 选出申请人所在的班次
// 指定了 shift 时只考虑这一个班次（申请人必须在它的总名单中）
func (e *Engine) candidateShifts(job *domain.Job, applicantID string, shift *domain.Shift) []*domain.Shift {
	if shift != nil {
		if shift.HasApplicant(applicantID) {
			return []*domain.Shift{shift}
		}
		return nil
	}

	if job == nil {
		return nil
	}

	shifts := make([]*domain.Shift, 0, len(job.Shifts))
	for i := range job.Shifts {
		if job.Shifts[i].HasApplicant(applicantID) {
			shifts = append(shifts, &job.Shifts[i])
		}
	}
	return shifts
}

// inValidityRange 判断 day 是否在班次的有效期之内，缺失的边界视为不限制
func (e *Engine) inValidityRange(shift *domain.Shift, day time.Time) bool {
	key := e.DayKey(day)

	if shift.ShiftStartDate != "" {
		startKey, ok := e.ParseDateKey(shift.ShiftStartDate)
		if !ok || key < startKey {
			return false
		}
	}
	if shift.ShiftEndDate != "" {
		endKey, ok := e.ParseDateKey(shift.ShiftEndDate)
		if !ok || key > endKey {
			return false
		}
	}

	return true
}

// entryTimes 解析某天排班的开始和结束时刻，格式错误时返回 false
func (e *Engine) entryTimes(entry *domain.ScheduleEntry) (TimeOfDay, TimeOfDay, bool) {
	if entry == nil || entry.Start == "" || entry.End == "" {
		return TimeOfDay{}, TimeOfDay{}, false
	}

	start, err := e.ParseTimeOfDay(entry.Start)
	if err != nil {
		return TimeOfDay{}, TimeOfDay{}, false
	}
	end, err := e.ParseTimeOfDay(entry.End)
	if err != nil {
		return TimeOfDay{}, TimeOfDay{}, false
	}

	return start, end, true
}

// windowOn 检查班次在 day 这一天是否对申请人生效，生效时返回投影到 day 的时间段
func (e *Engine) windowOn(shift *domain.Shift, applicantID string, day time.Time) (Window, bool) {
	if shift.DefaultSchedule == nil {
		return Window{}, false
	}
	if !e.inValidityRange(shift, day) {
		return Window{}, false
	}

	entry := shift.EntryFor(day.Weekday())
	start, end, ok := e.entryTimes(entry)
	if !ok {
		return Window{}, false
	}

	// 当天名单为空时对总名单中的所有人开放
	if !entry.Roster.IsEmpty() && !e.IsScheduled(entry.Roster, applicantID, &day) {
		return Window{}, false
	}

	return Window{
		Start:     ProjectToDay(start, day, nil),
		End:       ProjectToDay(end, day, &start),
		ShiftSlug: shift.Slug,
		Overnight: RollsOver(start, end),
	}, true
}

// overnightFrom 检查班次在 yesterday 这一天是否有跨午夜的排班
func (e *Engine) overnightFrom(shift *domain.Shift, applicantID string, yesterday time.Time) (Window, bool) {
	w, ok := e.windowOn(shift, applicantID, yesterday)
	if !ok || !w.Overnight {
		return Window{}, false
	}

	w.FromPreviousDay = true
	return w, true
}

// ResolveShiftWindow 找出申请人在 instant 这一天适用的班次时间段
//
// 先检查 instant 当天的排班，找不到时再检查前一天跨午夜延续到今天的排班。
// 多个班次同时匹配时取第一个，需要区分时调用方应当传入具体的 shift。
func (e *Engine) ResolveShiftWindow(job *domain.Job, applicantID string, instant time.Time, shift *domain.Shift) (Window, bool) {
	day := instant.In(e.loc)
	candidates := e.candidateShifts(job, applicantID, shift)

	for _, s := range candidates {
		if w, ok := e.windowOn(s, applicantID, day); ok {
			return w, true
		}
	}

	yesterday := day.AddDate(0, 0, -1)
	for _, s := range candidates {
		if w, ok := e.overnightFrom(s, applicantID, yesterday); ok {
			return w, true
		}
	}

	return Window{}, false
}

// ResolveShiftWindows 返回所有可能适用的时间段：当天的排班在前，前一天跨午夜的排班在后
func (e *Engine) ResolveShiftWindows(job *domain.Job, applicantID string, instant time.Time, shift *domain.Shift) []Window {
	day := instant.In(e.loc)
	yesterday := day.AddDate(0, 0, -1)
	candidates := e.candidateShifts(job, applicantID, shift)

	windows := make([]Window, 0, len(candidates))
	for _, s := range candidates {
		if w, ok := e.windowOn(s, applicantID, day); ok {
			windows = append(windows, w)
		}
	}
	for _, s := range candidates {
		if w, ok := e.overnightFrom(s, applicantID, yesterday); ok {
			windows = append(windows, w)
		}
	}

	return windows
}
