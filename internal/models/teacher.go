package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher is an instructor the center can assign to classes. A teacher may
// cover several subjects.
type Teacher struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"-"`
	FullName  string         `db:"full_name" json:"full_name"`
	Subjects  pq.StringArray `db:"subjects" json:"subjects"`
	Phone     string         `db:"phone" json:"phone"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// CreateTeacherRequest payload for registering a teacher.
type CreateTeacherRequest struct {
	FullName string   `json:"full_name" validate:"required"`
	Subjects []string `json:"subjects" validate:"required,min=1,dive,required"`
	Phone    string   `json:"phone"`
}

// UpdateTeacherRequest payload for editing a teacher.
type UpdateTeacherRequest struct {
	FullName *string   `json:"full_name,omitempty"`
	Subjects *[]string `json:"subjects,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
}
