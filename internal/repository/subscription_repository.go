package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

// SubscriptionRepository persists center access subscriptions.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository constructs a SubscriptionRepository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// FindByUserID returns the subscription of a center account.
func (r *SubscriptionRepository) FindByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	const query = `SELECT id, user_id, status, monthly_price, current_period_end, created_at, updated_at FROM subscriptions WHERE user_id = $1 LIMIT 1`
	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return &sub, nil
}

// Upsert stores the subscription, inserting on first activation.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	const query = `INSERT INTO subscriptions (id, user_id, status, monthly_price, current_period_end, created_at, updated_at)
        VALUES (:id, :user_id, :status, :monthly_price, :current_period_end, :created_at, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET status = :status, monthly_price = :monthly_price, current_period_end = :current_period_end, updated_at = :updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// MarkExpired flips active subscriptions whose period has elapsed.
func (r *SubscriptionRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE subscriptions SET status = $1, updated_at = $2 WHERE status = $3 AND current_period_end <= $2`
	res, err := r.db.ExecContext(ctx, query, models.SubscriptionStatusExpired, now, models.SubscriptionStatusActive)
	if err != nil {
		return 0, fmt.Errorf("mark expired subscriptions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired subscriptions affected: %w", err)
	}
	return affected, nil
}
