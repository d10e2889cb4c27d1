package models

import "time"

// SubscriptionStatus captures the lifecycle of a center subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired  SubscriptionStatus = "EXPIRED"
	SubscriptionStatusInactive SubscriptionStatus = "INACTIVE"
)

// Subscription represents a center's access subscription.
type Subscription struct {
	ID               string             `db:"id" json:"id"`
	UserID           string             `db:"user_id" json:"-"`
	Status           SubscriptionStatus `db:"status" json:"status"`
	MonthlyPrice     float64            `db:"monthly_price" json:"monthly_price"`
	CurrentPeriodEnd time.Time          `db:"current_period_end" json:"current_period_end"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// ActiveAt reports whether the subscription grants access at the given time.
func (s Subscription) ActiveAt(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.Before(s.CurrentPeriodEnd)
}

// ActivateSubscriptionRequest payload for starting or renewing a subscription.
type ActivateSubscriptionRequest struct {
	Months int           `json:"months" validate:"required,gte=1,lte=12"`
	Method PaymentMethod `json:"method" validate:"required"`
}
