package timeclock

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay 是去掉日期之后的时刻
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// TimeOfDayOf 取出 t 在其自身时区下的时刻
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

func (t TimeOfDay) sinceMidnight() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Nanosecond)
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.sinceMidnight() < o.sinceMidnight()
}

func (t TimeOfDay) Equal(o TimeOfDay) bool {
	return t.sinceMidnight() == o.sinceMidnight()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// 带时区的时间戳会先转换到引擎时区再取时刻
var zonedLayouts = []string{
	time.RFC3339,
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"15:04:05",
	"15:04",
}

// ParseTimeOfDay 解析排班中的开始/结束时间，只保留时刻部分
func (e *Engine) ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeOfDay{}, fmt.Errorf("时间为空")
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t.In(e.loc)), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, e.loc); err == nil {
			return TimeOfDayOf(t), nil
		}
	}

	return TimeOfDay{}, fmt.Errorf("无法解析时间 %q", s)
}

// DayKey 返回 t 在引擎时区下的日期键（YYYY-MM-DD）
func (e *Engine) DayKey(t time.Time) string {
	return t.In(e.loc).Format(time.DateOnly)
}

// ParseDateKey 把 "2024-06-10" 或完整的 ISO 时间戳统一成引擎时区下的日期键
func (e *Engine) ParseDateKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if t, err := time.ParseInLocation(time.DateOnly, s, e.loc); err == nil {
		return t.Format(time.DateOnly), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return e.DayKey(t), true
	}

	return "", false
}
