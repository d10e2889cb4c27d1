package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

// ProfileRepository persists center settings.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the profile for a center account.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	const query = `SELECT user_id, center_name, owner_name, phone, address, city, language, theme, updated_at FROM profiles WHERE user_id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// Upsert stores the profile, inserting on first save.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO profiles (user_id, center_name, owner_name, phone, address, city, language, theme, updated_at)
        VALUES (:user_id, :center_name, :owner_name, :phone, :address, :city, :language, :theme, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET center_name = :center_name, owner_name = :owner_name, phone = :phone, address = :address, city = :city, language = :language, theme = :theme, updated_at = :updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
