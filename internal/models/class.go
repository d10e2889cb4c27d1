package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScheduleEntry is a weekly time slot a class meets on.
type ScheduleEntry struct {
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// Schedule is the set of weekly slots, persisted as JSONB.
type Schedule []ScheduleEntry

// Value marshals the schedule to JSON for persistence.
func (s Schedule) Value() (driver.Value, error) {
	if s == nil {
		s = Schedule{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the schedule.
func (s *Schedule) Scan(value interface{}) error {
	if value == nil {
		*s = Schedule{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Schedule", value)
	}
	if len(data) == 0 {
		*s = Schedule{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal schedule: %w", err)
	}
	return nil
}

// String renders the schedule the way documents display it.
func (s Schedule) String() string {
	if len(s) == 0 {
		return ""
	}
	out := ""
	for i, e := range s {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %s-%s", e.Day, e.StartTime, e.EndTime)
	}
	return out
}

// Class represents a tuition group offered by the center.
type Class struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"-"`
	Name         string    `db:"name" json:"name"`
	Subject      string    `db:"subject" json:"subject"`
	Level        string    `db:"level" json:"level"`
	TeacherName  string    `db:"teacher_name" json:"teacher_name"`
	Schedule     Schedule  `db:"schedule" json:"schedule"`
	Capacity     int       `db:"capacity" json:"capacity"`
	StudentCount int       `db:"student_count" json:"student_count"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter encapsulates allowed search parameters for listing classes.
type ClassFilter struct {
	Search    string
	Subject   string
	Level     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateClassRequest payload for opening a class.
type CreateClassRequest struct {
	Name        string          `json:"name" validate:"required"`
	Subject     string          `json:"subject" validate:"required"`
	Level       string          `json:"level" validate:"required"`
	TeacherName string          `json:"teacher_name"`
	Schedule    []ScheduleEntry `json:"schedule" validate:"dive"`
	Capacity    int             `json:"capacity" validate:"gte=0"`
}

// UpdateClassRequest payload for editing a class.
type UpdateClassRequest struct {
	Name        *string          `json:"name,omitempty"`
	Subject     *string          `json:"subject,omitempty"`
	Level       *string          `json:"level,omitempty"`
	TeacherName *string          `json:"teacher_name,omitempty"`
	Schedule    *[]ScheduleEntry `json:"schedule,omitempty" validate:"omitempty,dive"`
	Capacity    *int             `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	Active      *bool            `json:"active,omitempty"`
}
