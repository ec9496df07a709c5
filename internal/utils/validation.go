package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/timeclock"
)

// ValidateJob 检查工作配置是否可以被排班判定使用
func ValidateJob(e *timeclock.Engine, job *domain.Job) error {
	if job.EarlyClockInMinutes < 0 {
		return errors.New("提前打卡分钟数不能为负数")
	}

	if err := ValidateGeofence(job.Geofence); err != nil {
		return err
	}

	slugs := make(map[string]struct{}, len(job.Shifts))
	for i := range job.Shifts {
		shift := &job.Shifts[i]

		if shift.Slug == "" {
			return fmt.Errorf("班次 %d 缺少标识", i)
		}
		if _, exists := slugs[shift.Slug]; exists {
			return fmt.Errorf("班次标识 %s 重复", shift.Slug)
		}
		slugs[shift.Slug] = struct{}{}

		if err := ValidateShift(e, shift); err != nil {
			return fmt.Errorf("班次 %s: %w", shift.Slug, err)
		}
	}

	return nil
}

func ValidateGeofence(g domain.Geofence) error {
	if !g.Enabled {
		return nil
	}
	if g.Latitude < -90 || g.Latitude > 90 {
		return errors.New("纬度必须在 -90 到 90 之间")
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return errors.New("经度必须在 -180 到 180 之间")
	}
	if g.RadiusMeters <= 0 {
		return errors.New("打卡范围半径必须大于 0")
	}
	return nil
}

func ValidateShift(e *timeclock.Engine, shift *domain.Shift) error {
	// 日期接受 YYYY-MM-DD 或完整的 RFC3339 时间戳，与排班判定读取日期的方式一致
	var start, end string
	var ok bool

	if shift.ShiftStartDate != "" {
		if start, ok = e.ParseDateKey(shift.ShiftStartDate); !ok {
			return errors.New("开始日期格式错误")
		}
	}
	if shift.ShiftEndDate != "" {
		if end, ok = e.ParseDateKey(shift.ShiftEndDate); !ok {
			return errors.New("结束日期格式错误")
		}
	}
	if start != "" && end != "" && end < start {
		return errors.New("结束日期不能早于开始日期")
	}

	for day, entry := range shift.DefaultSchedule {
		if !slices.Contains(domain.Weekdays, day) {
			return fmt.Errorf("无效的星期 %s", day)
		}
		if entry == nil {
			return fmt.Errorf("%s 的排班为空", day)
		}
		if _, err := e.ParseTimeOfDay(entry.Start); err != nil {
			return fmt.Errorf("%s 的开始时间格式错误", day)
		}
		if _, err := e.ParseTimeOfDay(entry.End); err != nil {
			return fmt.Errorf("%s 的结束时间格式错误", day)
		}
		if err := validateRoster(e, entry.Roster); err != nil {
			return fmt.Errorf("%s 的名单: %w", day, err)
		}
	}

	return nil
}

func validateRoster(e *timeclock.Engine, roster domain.Roster) error {
	if !roster.IsStructured() {
		if slices.Contains(roster.IDs, "") {
			return errors.New("申请人 ID 不能为空")
		}
		return nil
	}

	for _, entry := range roster.Entries {
		if entry.EmployeeID == "" {
			return errors.New("缺少 employeeId")
		}
		if entry.Date != "" {
			if _, ok := e.ParseDateKey(entry.Date); !ok {
				return fmt.Errorf("日期 %s 格式错误", entry.Date)
			}
		}
		switch entry.Status {
		case "", domain.RosterStatusPending, domain.RosterStatusApproved:
		default:
			return fmt.Errorf("无效的状态 %s", entry.Status)
		}
	}

	return nil
}
