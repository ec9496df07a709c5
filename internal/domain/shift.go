package domain

import (
	"slices"
	"strings"
	"time"
)

// Weekdays 为 defaultSchedule 中使用的键，顺序与 time.Weekday 一致
var Weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// WeekdayKey 将 time.Weekday 转换为 defaultSchedule 中的键
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ScheduleEntry 表示某个星期几的班次时间
// Start 和 End 是 ISO-8601 时间戳（也接受 "15:04" / "15:04:05"），只有其中的时刻部分有意义
type ScheduleEntry struct {
	Start  string `json:"start" bson:"start"`
	End    string `json:"end" bson:"end"`
	Roster Roster `json:"roster" bson:"roster"`
}

type Shift struct {
	ID              string                    `json:"id" bson:"id"`
	Slug            string                    `json:"slug" bson:"slug"`
	Name            string                    `json:"name" bson:"name"`
	ShiftStartDate  string                    `json:"shiftStartDate" bson:"shift_start_date"` // YYYY-MM-DD
	ShiftEndDate    string                    `json:"shiftEndDate" bson:"shift_end_date"`     // YYYY-MM-DD
	DefaultSchedule map[string]*ScheduleEntry `json:"defaultSchedule" bson:"default_schedule"`
	ShiftRoster     []string                  `json:"shiftRoster" bson:"shift_roster"`
}

// HasApplicant 判断申请人是否在班次的总名单中
func (s *Shift) HasApplicant(applicantID string) bool {
	return slices.Contains(s.ShiftRoster, applicantID)
}

// EntryFor 返回某个星期几的排班，不存在时返回 nil
func (s *Shift) EntryFor(d time.Weekday) *ScheduleEntry {
	if s.DefaultSchedule == nil {
		return nil
	}
	return s.DefaultSchedule[WeekdayKey(d)]
}
