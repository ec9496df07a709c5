package domain

import "time"

// Geofence 描述打卡地点的限制范围
type Geofence struct {
	Enabled      bool    `json:"enabled" bson:"enabled"`
	Latitude     float64 `json:"latitude" bson:"latitude"`
	Longitude    float64 `json:"longitude" bson:"longitude"`
	RadiusMeters float64 `json:"radiusMeters" bson:"radius_meters"`
}

type Job struct {
	ID                     string    `json:"id" bson:"_id"`
	Title                  string    `json:"title" bson:"title"`
	Description            string    `json:"description" bson:"description"`
	EarlyClockInMinutes    int32     `json:"earlyClockInMinutes" bson:"early_clock_in_minutes"`
	AutoAdjustEarlyClockIn bool      `json:"autoAdjustEarlyClockIn" bson:"auto_adjust_early_clock_in"`
	AutoClockoutShiftEnd   bool      `json:"autoClockoutShiftEnd" bson:"auto_clockout_shift_end"`
	Geofence               Geofence  `json:"geofence" bson:"geofence"`
	Shifts                 []Shift   `json:"shifts" bson:"shifts"`
	CreatedAt              time.Time `json:"createdAt" bson:"created_at"`
	Version                int32     `json:"-" bson:"version"`
}

// ShiftBySlug 返回 slug 对应的班次，找不到时返回 nil
func (j *Job) ShiftBySlug(slug string) *Shift {
	for i := range j.Shifts {
		if j.Shifts[i].Slug == slug {
			return &j.Shifts[i]
		}
	}
	return nil
}
