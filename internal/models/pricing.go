package models

import "time"

// PricingRule is a center-defined price override for a subject/level pair.
// Level may be the literal "default" to cover every level of the subject.
type PricingRule struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	Subject     string    `db:"subject" json:"subject"`
	Level       string    `db:"level" json:"level"`
	Price       float64   `db:"price" json:"price"`
	TeacherName string    `db:"teacher_name" json:"teacher_name,omitempty"`
	Position    int       `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PricingRuleView decorates a rule with list-time context. Duplicate is set
// when another rule earlier in position order covers the same pair and
// therefore shadows this one.
type PricingRuleView struct {
	PricingRule
	Duplicate bool `json:"duplicate"`
}

// CreatePricingRuleRequest payload for adding a rule.
type CreatePricingRuleRequest struct {
	Subject     string  `json:"subject" validate:"required"`
	Level       string  `json:"level" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	TeacherName string  `json:"teacher_name"`
}

// ReplacePricingRulesRequest swaps the whole rule set in one call. The order
// of the rules becomes the new lookup order.
type ReplacePricingRulesRequest struct {
	Rules []CreatePricingRuleRequest `json:"rules" validate:"dive"`
}

// UpdatePricingRuleRequest payload for editing a rule in place.
type UpdatePricingRuleRequest struct {
	Subject     *string  `json:"subject,omitempty"`
	Level       *string  `json:"level,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	TeacherName *string  `json:"teacher_name,omitempty"`
}

// PriceQuote is the result of a price lookup. TeacherName carries the matched
// rule's teacher snapshot when one is set.
type PriceQuote struct {
	Subject     string  `json:"subject"`
	Level       string  `json:"level"`
	Price       float64 `json:"price"`
	TeacherName string  `json:"teacher_name,omitempty"`
	Source      string  `json:"source"`
}

// Price quote sources.
const (
	PriceSourceRule     = "rule"
	PriceSourceDefault  = "default"
	PriceSourceFallback = "fallback"
)
