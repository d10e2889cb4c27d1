package models

import "time"

// ExpiryAlert flags a student whose last payment is at least the expiry
// threshold old and who should be billed again.
type ExpiryAlert struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Level       string    `json:"level"`
	PaidAt      time.Time `json:"paid_at"`
	DaysSince   int       `json:"days_since"`
}
