package timeclock

import (
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

// IsImplausibleDuration 判断一段打卡时长是否明显不合理（结束早于开始，或超过最大时长）
//
// 这只是一个识别录入错误的经验规则，并不是正确性要求：
// 被判定为不合理的已有记录不参与重叠检测，新记录则由调用方拒绝。
func (e *Engine) IsImplausibleDuration(start, end time.Time) bool {
	if end.Before(start) {
		return true
	}
	return e.maxPunchDuration > 0 && end.Sub(start) > e.maxPunchDuration
}

// effectiveEnd 未结束的记录视为 [start, now)，now 不晚于 start 时时长为 0
func effectiveEnd(start time.Time, end *time.Time, now time.Time) time.Time {
	if end != nil {
		return *end
	}
	if now.After(start) {
		return now
	}
	return start
}

// HasOverlap 判断候选时间段 [start, end) 是否与申请人已有的打卡记录冲突
//
//   - 两段时间的交集长度必须大于 0 才算冲突，首尾相接不算
//   - 两条都未结束的记录一定冲突（不能重复上班打卡）
//   - excludePunchID 用于编辑已有记录时排除它自己
//
// existing 可以只包含候选时间段附近的记录，但必须包含申请人所有未结束的记录。
func (e *Engine) HasOverlap(existing []*domain.Punch, applicantID string, start time.Time, end *time.Time, excludePunchID string, now time.Time) bool {
	candidateEnd := effectiveEnd(start, end, now)

	for _, p := range existing {
		if p == nil || p.ApplicantID != applicantID {
			continue
		}
		if excludePunchID != "" && p.ID == excludePunchID {
			continue
		}

		if end == nil && p.TimeOut == nil {
			return true
		}

		if p.TimeOut != nil && e.IsImplausibleDuration(p.TimeIn, *p.TimeOut) {
			continue
		}

		existingEnd := effectiveEnd(p.TimeIn, p.TimeOut, now)
		if start.Before(existingEnd) && p.TimeIn.Before(candidateEnd) {
			return true
		}
	}

	return false
}

// OverlapSearchRange 返回查询候选记录时使用的时间范围
// 存储层应返回 time_out 晚于 from 且 time_in 早于 to 的记录，以及所有未结束的记录
func OverlapSearchRange(start time.Time, end *time.Time, now time.Time) (time.Time, time.Time) {
	return start, effectiveEnd(start, end, now)
}
