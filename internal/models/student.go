package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Enrollment is one line item on a student's bill, snapshotting the class
// context at registration time.
type Enrollment struct {
	ClassID  string  `json:"class_id"`
	Subject  string  `json:"subject"`
	Level    string  `json:"level"`
	Teacher  string  `json:"teacher"`
	Schedule string  `json:"schedule"`
	Price    float64 `json:"price"`
}

// Enrollments is the list of line items, persisted as JSONB. Historical rows
// stored the column as a bare subject name or an array of subject names, so
// scanning accepts those shapes too.
type Enrollments []Enrollment

// Value marshals enrollments to JSON for persistence.
func (e Enrollments) Value() (driver.Value, error) {
	if e == nil {
		e = Enrollments{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal enrollments: %w", err)
	}
	return data, nil
}

// Scan unmarshals the stored column, accepting legacy shapes.
func (e *Enrollments) Scan(value interface{}) error {
	if value == nil {
		*e = Enrollments{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Enrollments", value)
	}
	parsed, err := ParseEnrollments(data)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseEnrollments decodes an enrollments column in any of its historical
// shapes: a JSON array of line items, a JSON array of subject names, or a
// bare subject string.
func ParseEnrollments(data []byte) (Enrollments, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return Enrollments{}, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items Enrollments
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("unmarshal enrollments: %w", err)
		}
		items = make(Enrollments, 0, len(names))
		for _, name := range names {
			items = append(items, Enrollment{Subject: name})
		}
		return items, nil
	}
	// Bare subject name, possibly JSON quoted.
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		name = trimmed
	}
	if name == "" {
		return Enrollments{}, nil
	}
	return Enrollments{{Subject: name}}, nil
}

// Subjects returns the distinct subject names across line items, in order.
func (e Enrollments) Subjects() []string {
	seen := make(map[string]struct{}, len(e))
	out := make([]string, 0, len(e))
	for _, item := range e {
		if item.Subject == "" {
			continue
		}
		if _, ok := seen[item.Subject]; ok {
			continue
		}
		seen[item.Subject] = struct{}{}
		out = append(out, item.Subject)
	}
	return out
}

// Subtotal sums the line item prices.
func (e Enrollments) Subtotal() float64 {
	var total float64
	for _, item := range e {
		total += item.Price
	}
	return total
}

// PaymentStatus tracks where a student stands on the current billing cycle.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusUnpaid  PaymentStatus = "Unpaid"
)

// ValidPaymentStatus reports whether the status is a known state.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusUnpaid:
		return true
	}
	return false
}

// Student represents a learner registered at the center.
type Student struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"-"`
	FullName    string         `db:"full_name" json:"full_name"`
	Level       string         `db:"level" json:"level"`
	Phone       string         `db:"phone" json:"phone"`
	ParentPhone string         `db:"parent_phone" json:"parent_phone"`
	Enrollments Enrollments    `db:"enrollments" json:"enrollments"`
	Subjects    pq.StringArray `db:"subjects" json:"subjects"`
	Discount    float64        `db:"discount" json:"discount"`
	Total       float64        `db:"total" json:"total"`
	Status      PaymentStatus  `db:"payment_status" json:"status"`
	PaidAt      *time.Time     `db:"paid_at" json:"paid_at,omitempty"`
	EnrolledAt  time.Time      `db:"enrolled_at" json:"enrolled_at"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Level     string
	Subject   string
	ClassID   string
	Status    *PaymentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateStudentRequest payload for registering a student. At least one class
// must be selected.
type CreateStudentRequest struct {
	FullName    string   `json:"full_name" validate:"required"`
	Level       string   `json:"level" validate:"required"`
	Phone       string   `json:"phone"`
	ParentPhone string   `json:"parent_phone"`
	ClassIDs    []string `json:"class_ids" validate:"required,min=1,dive,required"`
	Discount    float64  `json:"discount" validate:"gte=0"`
}

// UpdateStudentRequest payload for editing a student. A nil ClassIDs leaves
// the enrollments untouched.
type UpdateStudentRequest struct {
	FullName    *string   `json:"full_name,omitempty"`
	Level       *string   `json:"level,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	ParentPhone *string   `json:"parent_phone,omitempty"`
	ClassIDs    *[]string `json:"class_ids,omitempty" validate:"omitempty,min=1,dive,required"`
	Discount    *float64  `json:"discount,omitempty" validate:"omitempty,gte=0"`
}
