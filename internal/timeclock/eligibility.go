package timeclock

import (
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

// EarlyAllowance 返回允许提前打卡的时长，未设置时为 0
func EarlyAllowance(job *domain.Job) time.Duration {
	if job == nil || job.EarlyClockInMinutes <= 0 {
		return 0
	}
	return time.Duration(job.EarlyClockInMinutes) * time.Minute
}

// AdmittingWindow 返回此刻允许上班打卡的时间段
// 按 ResolveShiftWindows 的顺序取第一个允许的，当天的排班优先
func (e *Engine) AdmittingWindow(job *domain.Job, applicantID string, instant time.Time, shift *domain.Shift) (Window, bool) {
	allowance := EarlyAllowance(job)

	for _, w := range e.ResolveShiftWindows(job, applicantID, instant, shift) {
		if w.Admits(instant, allowance) {
			return w, true
		}
	}

	return Window{}, false
}

// CanClockIn 判断申请人此刻能否上班打卡
// 当天的排班和前一天跨午夜的排班都会检查，任意一个允许即可
func (e *Engine) CanClockIn(job *domain.Job, applicantID string, instant time.Time, shift *domain.Shift) bool {
	_, ok := e.AdmittingWindow(job, applicantID, instant, shift)
	return ok
}

// MinutesUntilEligible 返回距离可以打卡还有多少分钟（向上取整，最小为 0）
// 有多个班次时取最早可以打卡的那个；没有任何适用的班次时第二个返回值为 false
func (e *Engine) MinutesUntilEligible(job *domain.Job, applicantID string, instant time.Time, shift *domain.Shift) (int, bool) {
	windows := e.ResolveShiftWindows(job, applicantID, instant, shift)
	if len(windows) == 0 {
		return 0, false
	}

	allowance := EarlyAllowance(job)
	var wait time.Duration
	for _, w := range windows {
		if w.Admits(instant, allowance) {
			return 0, true
		}

		d := w.Start.Add(-allowance).Sub(instant)
		if d > 0 && (wait == 0 || d < wait) {
			wait = d
		}
	}

	return int((wait + time.Minute - 1) / time.Minute), true
}
