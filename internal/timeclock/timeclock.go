// Package timeclock 实现排班判定与打卡校验：
// 名单判定、时刻投影、当日班次解析、打卡资格、打卡重叠检测、上班时间计算与遗忘打卡检测。
//
// 这里的所有函数都是纯计算，调用方负责传入同一时刻读取到的 Job/Shift/Punch 快照。
package timeclock

import "time"

// DefaultMaxPunchDuration 超过这个时长的打卡记录被视为录入错误，不参与重叠检测
const DefaultMaxPunchDuration = 24 * time.Hour

type Engine struct {
	loc              *time.Location
	maxPunchDuration time.Duration
}

type Option func(*Engine)

// WithMaxPunchDuration 设置单条打卡记录的最大合理时长，<= 0 表示不限制
func WithMaxPunchDuration(d time.Duration) Option {
	return func(e *Engine) {
		e.maxPunchDuration = d
	}
}

// New 创建引擎，loc 为日历日所在的时区（星期几、日期键都按照这个时区计算）
func New(loc *time.Location, opts ...Option) *Engine {
	if loc == nil {
		loc = time.Local
	}

	e := &Engine{
		loc:              loc,
		maxPunchDuration: DefaultMaxPunchDuration,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) MaxPunchDuration() time.Duration {
	return e.maxPunchDuration
}

// Window 是投影到具体日期后的班次时间段
type Window struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	ShiftSlug       string    `json:"shiftSlug"`
	Overnight       bool      `json:"overnight"`
	FromPreviousDay bool      `json:"fromPreviousDay"`
}

// Admits 判断 instant 是否落在 [Start - allowance, End] 之内（两端都包含）
func (w Window) Admits(instant time.Time, allowance time.Duration) bool {
	return !instant.Before(w.Start.Add(-allowance)) && !instant.After(w.End)
}
