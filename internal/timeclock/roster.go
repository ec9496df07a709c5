package timeclock

import (
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

// IsScheduled 判断申请人是否在名单上
//
// 旧格式只做成员判断，与日期无关。
// 新格式中 pending 的项一律不算；targetDate 为空时只要有任意一项匹配即可，
// 否则需要日期键相同，没有日期的项视为每周重复，匹配任意日期。
// 缺少 employeeId 或日期无法解析的项直接跳过。
func (e *Engine) IsScheduled(roster domain.Roster, applicantID string, targetDate *time.Time) bool {
	if !roster.IsStructured() {
		return slices.Contains(roster.IDs, applicantID)
	}

	var targetKey string
	if targetDate != nil {
		targetKey = e.DayKey(*targetDate)
	}

	for _, entry := range roster.Entries {
		if entry.EmployeeID == "" || entry.EmployeeID != applicantID {
			continue
		}
		if entry.Status == domain.RosterStatusPending {
			continue
		}
		if targetDate == nil || entry.Date == "" {
			return true
		}

		entryKey, ok := e.ParseDateKey(entry.Date)
		if !ok {
			continue
		}
		if entryKey == targetKey {
			return true
		}
	}

	return false
}
