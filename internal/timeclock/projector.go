package timeclock

import "time"

// ProjectToDay 用 tod 的时分秒和 ref 所在的日历日（以及 ref 的时区）组合出一个新的时间点
//
// anchor 不为空时表示这是班次的结束时间，anchor 为班次开始的时刻：
// 如果投影结果不严格晚于 anchor 在同一天的投影，则结果顺延一天（跨午夜班次）。
// 结束时刻等于开始时刻也会顺延，不存在零时长的班次。
func ProjectToDay(tod TimeOfDay, ref time.Time, anchor *TimeOfDay) time.Time {
	result := time.Date(ref.Year(), ref.Month(), ref.Day(), tod.Hour, tod.Minute, tod.Second, tod.Nanosecond, ref.Location())

	if anchor != nil {
		anchorAt := time.Date(ref.Year(), ref.Month(), ref.Day(), anchor.Hour, anchor.Minute, anchor.Second, anchor.Nanosecond, ref.Location())
		if !result.After(anchorAt) {
			result = result.AddDate(0, 0, 1)
		}
	}

	return result
}

// RollsOver 判断班次的结束时间是否落在第二天（结束时刻不晚于开始时刻），与 ProjectToDay 的顺延规则一致
func RollsOver(start, end TimeOfDay) bool {
	return !start.Before(end)
}
