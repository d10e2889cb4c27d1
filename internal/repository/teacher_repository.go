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

// TeacherRepository persists the center's instructors.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns all teachers of a center ordered by name.
func (r *TeacherRepository) List(ctx context.Context, userID string) ([]models.Teacher, error) {
	const query = `SELECT id, user_id, full_name, subjects, phone, created_at, updated_at FROM teachers WHERE user_id = $1 ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, userID); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID returns a teacher scoped to the owning center.
func (r *TeacherRepository) FindByID(ctx context.Context, userID, id string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, full_name, subjects, phone, created_at, updated_at FROM teachers WHERE id = $1 AND user_id = $2 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// Create inserts a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, user_id, full_name, subjects, phone, created_at, updated_at) VALUES (:id, :user_id, :full_name, :subjects, :phone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET full_name = :full_name, subjects = :subjects, phone = :phone, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher.
func (r *TeacherRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM teachers WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}
