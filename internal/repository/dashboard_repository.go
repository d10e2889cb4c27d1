package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

// DashboardRepository exposes read-optimised aggregates for the home view.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository instantiates the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// StudentCounts holds headline student aggregates for a center.
type StudentCounts struct {
	Total           int     `db:"total"`
	Paid            int     `db:"paid"`
	Unpaid          int     `db:"unpaid"`
	ExpectedRevenue float64 `db:"expected_revenue"`
}

// CountStudents aggregates the student registry in one pass.
func (r *DashboardRepository) CountStudents(ctx context.Context, userID string) (StudentCounts, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE payment_status = 'Paid') AS paid,
        COUNT(*) FILTER (WHERE payment_status <> 'Paid') AS unpaid,
        COALESCE(SUM(total), 0) AS expected_revenue
        FROM students WHERE user_id = $1`
	var counts StudentCounts
	if err := r.db.GetContext(ctx, &counts, query, userID); err != nil {
		return StudentCounts{}, fmt.Errorf("count students: %w", err)
	}
	return counts, nil
}

// CountClasses returns the number of active classes a center runs.
func (r *DashboardRepository) CountClasses(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE user_id = $1 AND active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return total, nil
}

// RevenueBySubject unnests enrollment line items and sums billed prices per
// subject. Legacy rows that are not JSON arrays are skipped.
func (r *DashboardRepository) RevenueBySubject(ctx context.Context, userID string) ([]models.SubjectRevenue, error) {
	const query = `SELECT item->>'subject' AS subject,
        COALESCE(SUM((item->>'price')::numeric), 0) AS revenue,
        COUNT(*) AS count
        FROM students s, jsonb_array_elements(s.enrollments) item
        WHERE s.user_id = $1 AND jsonb_typeof(s.enrollments) = 'array' AND jsonb_typeof(item) = 'object'
        GROUP BY item->>'subject'
        ORDER BY revenue DESC`
	var rows []models.SubjectRevenue
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("revenue by subject: %w", err)
	}
	return rows, nil
}
