package models

import "time"

// Profile stores the center settings shown on documents and the dashboard.
type Profile struct {
	UserID     string    `db:"user_id" json:"-"`
	CenterName string    `db:"center_name" json:"center_name"`
	OwnerName  string    `db:"owner_name" json:"owner_name"`
	Phone      string    `db:"phone" json:"phone"`
	Address    string    `db:"address" json:"address"`
	City       string    `db:"city" json:"city"`
	Language   string    `db:"language" json:"language"`
	Theme      string    `db:"theme" json:"theme"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// UpdateProfileRequest payload for editing center settings.
type UpdateProfileRequest struct {
	CenterName *string `json:"center_name,omitempty"`
	OwnerName  *string `json:"owner_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	Language   *string `json:"language,omitempty" validate:"omitempty,oneof=ar fr"`
	Theme      *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark"`
}
