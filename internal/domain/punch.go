package domain

import "time"

type PunchStatus string

const (
	PunchStatusOpen             PunchStatus = "open"
	PunchStatusAbandonedFlagged PunchStatus = "abandoned_flagged"
	PunchStatusClosed           PunchStatus = "closed"
)

// CanTransitionTo 判断打卡记录的状态流转是否合法
// open -> closed | abandoned_flagged，abandoned_flagged -> closed
func (s PunchStatus) CanTransitionTo(next PunchStatus) bool {
	switch s {
	case PunchStatusOpen:
		return next == PunchStatusClosed || next == PunchStatusAbandonedFlagged
	case PunchStatusAbandonedFlagged:
		return next == PunchStatusClosed
	default:
		return false
	}
}

func (s PunchStatus) IsOpen() bool {
	return s == PunchStatusOpen || s == PunchStatusAbandonedFlagged
}

type CloseReason string

const (
	CloseReasonClockOut     CloseReason = "clock_out"
	CloseReasonAutoClockout CloseReason = "auto_clockout"
	CloseReasonManager      CloseReason = "manager"
)

type Punch struct {
	ID          string      `json:"id" bson:"_id"`
	ApplicantID string      `json:"applicantID" bson:"applicant_id"`
	JobID       string      `json:"jobID" bson:"job_id"`
	ShiftSlug   string      `json:"shiftSlug,omitempty" bson:"shift_slug,omitempty"`
	TimeIn      time.Time   `json:"timeIn" bson:"time_in"`
	TimeOut     *time.Time  `json:"timeOut" bson:"time_out"` // 为 nil 表示尚未下班打卡
	Status      PunchStatus `json:"status" bson:"status"`
	CloseReason CloseReason `json:"closeReason,omitempty" bson:"close_reason,omitempty"`
	CreatedAt   time.Time   `json:"createdAt" bson:"created_at"`
	Version     int32       `json:"-" bson:"version"`
}

func (p *Punch) IsOpen() bool {
	return p.TimeOut == nil
}
