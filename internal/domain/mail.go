package domain

import "time"

const (
	MailTypeAbandonedPunch = "abandoned_punch"
	MailTypeAutoClockout   = "auto_clockout"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type AbandonedPunchMailData struct {
	PunchID     string    `json:"punchID"`
	ApplicantID string    `json:"applicantID"`
	JobTitle    string    `json:"jobTitle"`
	TimeIn      time.Time `json:"timeIn"`
}

type AutoClockoutMailData struct {
	PunchID     string    `json:"punchID"`
	ApplicantID string    `json:"applicantID"`
	JobTitle    string    `json:"jobTitle"`
	TimeIn      time.Time `json:"timeIn"`
	TimeOut     time.Time `json:"timeOut"`
}
