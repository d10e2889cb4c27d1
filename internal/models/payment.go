package models

import "time"

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "Cash"
	PaymentMethodTransfer PaymentMethod = "Transfer"
	PaymentMethodCheck    PaymentMethod = "Check"
)

// ValidPaymentMethod reports whether the method is accepted.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCheck:
		return true
	}
	return false
}

// Payment is a ledger entry recording money received from a student.
type Payment struct {
	ID          string        `db:"id" json:"id"`
	UserID      string        `db:"user_id" json:"-"`
	StudentID   string        `db:"student_id" json:"student_id"`
	StudentName string        `db:"student_name" json:"student_name"`
	Amount      float64       `db:"amount" json:"amount"`
	Method      PaymentMethod `db:"method" json:"method"`
	PaidAt      time.Time     `db:"paid_at" json:"paid_at"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// PaymentFilter encapsulates allowed search parameters for the ledger.
type PaymentFilter struct {
	StudentID string
	Method    *PaymentMethod
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// PaymentSummary aggregates the ledger over one calendar month.
type PaymentSummary struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// RecordPaymentRequest payload for marking a student paid.
type RecordPaymentRequest struct {
	Method PaymentMethod `json:"method" validate:"required"`
}
