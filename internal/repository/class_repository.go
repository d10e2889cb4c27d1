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

// ClassRepository manages persistence for tuition groups.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes of a center matching the provided filters.
func (r *ClassRepository) List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.Class, int, error) {
	baseQuery := `FROM classes WHERE user_id = $1`
	args := []interface{}{userID}
	var conditions []string

	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(teacher_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":          true,
		"subject":       true,
		"level":         true,
		"student_count": true,
		"created_at":    true,
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

	listQuery := fmt.Sprintf("SELECT id, user_id, name, subject, level, teacher_name, schedule, capacity, student_count, active, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", baseQuery, sortBy, sortOrder, pageSize, offset)

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class scoped to the owning center.
func (r *ClassRepository) FindByID(ctx context.Context, userID, id string) (*models.Class, error) {
	const query = `SELECT id, user_id, name, subject, level, teacher_name, schedule, capacity, student_count, active, created_at, updated_at FROM classes WHERE id = $1 AND user_id = $2 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// FindByIDs returns the subset of classes matching the given identifiers.
func (r *ClassRepository) FindByIDs(ctx context.Context, userID string, ids []string) ([]models.Class, error) {
	if len(ids) == 0 {
		return []models.Class{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, user_id, name, subject, level, teacher_name, schedule, capacity, student_count, active, created_at, updated_at FROM classes WHERE user_id = ? AND id IN (?)`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("build class lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("find classes by ids: %w", err)
	}
	return classes, nil
}

// ExistsByIdentity checks for an active class with the same name, subject and
// level. The comparison is case sensitive. An excludeID skips the class being
// edited; deactivated classes never block a new one.
func (r *ClassRepository) ExistsByIdentity(ctx context.Context, userID, name, subject, level, excludeID string) (bool, error) {
	query := `SELECT 1 FROM classes WHERE user_id = $1 AND name = $2 AND subject = $3 AND level = $4 AND active = TRUE`
	args := []interface{}{userID, name, subject, level}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class identity: %w", err)
	}
	return true, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, user_id, name, subject, level, teacher_name, schedule, capacity, student_count, active, created_at, updated_at)
        VALUES (:id, :user_id, :name, :subject, :level, :teacher_name, :schedule, :capacity, :student_count, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, subject = :subject, level = :level, teacher_name = :teacher_name, schedule = :schedule, capacity = :capacity, active = :active, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class.
func (r *ClassRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM classes WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// AdjustStudentCount shifts the cached occupancy of the given classes,
// clamping at zero.
func (r *ClassRepository) AdjustStudentCount(ctx context.Context, userID string, ids []string, delta int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE classes SET student_count = GREATEST(student_count + ?, 0), updated_at = ? WHERE user_id = ? AND id IN (?)`, delta, time.Now().UTC(), userID, ids)
	if err != nil {
		return fmt.Errorf("build occupancy update: %w", err)
	}
	query = r.db.Rebind(query)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("adjust student count: %w", err)
	}
	return nil
}

// ReconcileStudentCounts recomputes occupancy from the student registry.
// Legacy enrollment rows without class identifiers do not contribute.
func (r *ClassRepository) ReconcileStudentCounts(ctx context.Context, userID string) error {
	const query = `UPDATE classes c SET student_count = sub.cnt, updated_at = $2
        FROM (
            SELECT c2.id, COUNT(s.id) AS cnt
            FROM classes c2
            LEFT JOIN students s ON s.user_id = c2.user_id
                AND s.enrollments @> jsonb_build_array(jsonb_build_object('class_id', c2.id))
            WHERE c2.user_id = $1
            GROUP BY c2.id
        ) sub
        WHERE c.id = sub.id AND c.student_count <> sub.cnt`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("reconcile student counts: %w", err)
	}
	return nil
}
