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

// PricingRepository persists center pricing rules. Rules keep their insertion
// position so lookups resolve deterministically when pairs repeat.
type PricingRepository struct {
	db *sqlx.DB
}

// NewPricingRepository constructs a PricingRepository.
func NewPricingRepository(db *sqlx.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// List returns all rules of a center in position order.
func (r *PricingRepository) List(ctx context.Context, userID string) ([]models.PricingRule, error) {
	const query = `SELECT id, user_id, subject, level, price, teacher_name, position, created_at, updated_at FROM pricing_rules WHERE user_id = $1 ORDER BY position ASC`
	var rules []models.PricingRule
	if err := r.db.SelectContext(ctx, &rules, query, userID); err != nil {
		return nil, fmt.Errorf("list pricing rules: %w", err)
	}
	return rules, nil
}

// FindByID returns a rule scoped to the owning center.
func (r *PricingRepository) FindByID(ctx context.Context, userID, id string) (*models.PricingRule, error) {
	const query = `SELECT id, user_id, subject, level, price, teacher_name, position, created_at, updated_at FROM pricing_rules WHERE id = $1 AND user_id = $2 LIMIT 1`
	var rule models.PricingRule
	if err := r.db.GetContext(ctx, &rule, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pricing rule: %w", err)
	}
	return &rule, nil
}

// Create appends a new rule after the center's current last position.
func (r *PricingRepository) Create(ctx context.Context, rule *models.PricingRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	const query = `INSERT INTO pricing_rules (id, user_id, subject, level, price, teacher_name, position, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, (SELECT COALESCE(MAX(position), 0) + 1 FROM pricing_rules WHERE user_id = $2), $7, $8)
        RETURNING position`
	if err := r.db.GetContext(ctx, &rule.Position, query, rule.ID, rule.UserID, rule.Subject, rule.Level, rule.Price, rule.TeacherName, rule.CreatedAt, rule.UpdatedAt); err != nil {
		return fmt.Errorf("create pricing rule: %w", err)
	}
	return nil
}

// Update modifies an existing rule in place, keeping its position.
func (r *PricingRepository) Update(ctx context.Context, rule *models.PricingRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE pricing_rules SET subject = :subject, level = :level, price = :price, teacher_name = :teacher_name, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update pricing rule: %w", err)
	}
	return nil
}

// Delete removes a rule.
func (r *PricingRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM pricing_rules WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("delete pricing rule: %w", err)
	}
	return nil
}

// ReplaceAll swaps the center's rule set atomically. Positions restart at 1
// in the order the new rules arrive.
func (r *PricingRepository) ReplaceAll(ctx context.Context, userID string, rules []models.PricingRule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace pricing rules: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pricing_rules WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("replace pricing rules: %w", err)
	}
	const insert = `INSERT INTO pricing_rules (id, user_id, subject, level, price, teacher_name, position, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	now := time.Now().UTC()
	for i := range rules {
		rule := &rules[i]
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		rule.UserID = userID
		rule.Position = i + 1
		rule.CreatedAt = now
		rule.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, insert, rule.ID, rule.UserID, rule.Subject, rule.Level, rule.Price, rule.TeacherName, rule.Position, rule.CreatedAt, rule.UpdatedAt); err != nil {
			return fmt.Errorf("replace pricing rules: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace pricing rules: %w", err)
	}
	return nil
}
