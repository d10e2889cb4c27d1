package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

// PaymentRepository persists the payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns ledger entries of a center matching the provided filters.
func (r *PaymentRepository) List(ctx context.Context, userID string, filter models.PaymentFilter) ([]models.Payment, int, error) {
	baseQuery := `FROM payments WHERE user_id = $1`
	args := []interface{}{userID}
	var conditions []string

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Method != nil {
		conditions = append(conditions, fmt.Sprintf("method = $%d", len(args)+1))
		args = append(args, *filter.Method)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("paid_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("paid_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"paid_at":      true,
		"amount":       true,
		"student_name": true,
		"created_at":   true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "paid_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, user_id, student_id, student_name, amount, method, paid_at, created_at %s ORDER BY %s %s LIMIT %d OFFSET %d", baseQuery, sortBy, sortOrder, pageSize, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// Create appends a ledger entry.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}
	const query = `INSERT INTO payments (id, user_id, student_id, student_name, amount, method, paid_at, created_at)
        VALUES (:id, :user_id, :student_id, :student_name, :amount, :method, :paid_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// SumBetween totals amounts and counts entries within [from, to).
func (r *PaymentRepository) SumBetween(ctx context.Context, userID string, from, to time.Time) (float64, int, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count FROM payments WHERE user_id = $1 AND paid_at >= $2 AND paid_at < $3`
	var row struct {
		Total float64 `db:"total"`
		Count int     `db:"count"`
	}
	if err := r.db.GetContext(ctx, &row, query, userID, from, to); err != nil {
		return 0, 0, fmt.Errorf("sum payments: %w", err)
	}
	return row.Total, row.Count, nil
}

// SumSince totals amounts received at or after the given time.
func (r *PaymentRepository) SumSince(ctx context.Context, userID string, from time.Time) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE user_id = $1 AND paid_at >= $2`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, userID, from); err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}
