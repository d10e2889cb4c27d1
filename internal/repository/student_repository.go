package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students of a center matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, userID string, filter models.StudentFilter) ([]models.Student, int, error) {
	baseQuery := `FROM students WHERE user_id = $1`
	args := []interface{}{userID}
	var conditions []string

	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(subjects)", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("enrollments @> jsonb_build_array(jsonb_build_object('class_id', $%d::text))", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR phone LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":   true,
		"level":       true,
		"total":       true,
		"enrolled_at": true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
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

	listQuery := fmt.Sprintf("SELECT id, user_id, full_name, level, phone, parent_phone, enrollments, subjects, discount, total, payment_status, paid_at, enrolled_at, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", baseQuery, sortBy, sortOrder, pageSize, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student scoped to the owning center.
func (r *StudentRepository) FindByID(ctx context.Context, userID, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, full_name, level, phone, parent_phone, enrollments, subjects, discount, total, payment_status, paid_at, enrolled_at, created_at, updated_at FROM students WHERE id = $1 AND user_id = $2 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	if student.EnrolledAt.IsZero() {
		student.EnrolledAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, full_name, level, phone, parent_phone, enrollments, subjects, discount, total, payment_status, paid_at, enrolled_at, created_at, updated_at)
        VALUES (:id, :user_id, :full_name, :level, :phone, :parent_phone, :enrollments, :subjects, :discount, :total, :payment_status, :paid_at, :enrolled_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, level = :level, phone = :phone, parent_phone = :parent_phone, enrollments = :enrollments, subjects = :subjects, discount = :discount, total = :total, payment_status = :payment_status, paid_at = :paid_at, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SetPayment writes the payment status and timestamp.
func (r *StudentRepository) SetPayment(ctx context.Context, userID, id string, status models.PaymentStatus, paidAt *time.Time) error {
	const query = `UPDATE students SET payment_status = $3, paid_at = $4, updated_at = $5 WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID, status, paidAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("set payment: %w", err)
	}
	return nil
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM students WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// ListPaidBefore returns paid students whose last payment happened at or
// before the cutoff, oldest first.
func (r *StudentRepository) ListPaidBefore(ctx context.Context, userID string, cutoff time.Time) ([]models.Student, error) {
	const query = `SELECT id, user_id, full_name, level, phone, parent_phone, enrollments, subjects, discount, total, payment_status, paid_at, enrolled_at, created_at, updated_at
        FROM students WHERE user_id = $1 AND payment_status = 'Paid' AND paid_at IS NOT NULL AND paid_at <= $2 ORDER BY paid_at ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, userID, cutoff); err != nil {
		return nil, fmt.Errorf("list paid before: %w", err)
	}
	return students, nil
}
