package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

func newClassMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassRepositoryList(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "subject", "level", "teacher_name", "schedule", "capacity", "student_count", "active", "created_at", "updated_at"}).
		AddRow("1", "u1", "Maths 2BAC A", "Maths", "2BAC", "Mme Alaoui", []byte(`[{"day":"Samedi","start_time":"10:00","end_time":"12:00"}]`), 30, 12, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, subject, level, teacher_name, schedule, capacity, student_count, active, created_at, updated_at FROM classes WHERE user_id = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	classes, total, err := repo.List(context.Background(), "u1", models.ClassFilter{})
	require.NoError(t, err)
	assert.Len(t, classes, 1)
	assert.Equal(t, 1, total)
	require.Len(t, classes[0].Schedule, 1)
	assert.Equal(t, "Samedi", classes[0].Schedule[0].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryExistsByIdentity(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM classes WHERE user_id = $1 AND name = $2 AND subject = $3 AND level = $4 AND active = TRUE")).
		WithArgs("u1", "Maths 2BAC A", "Maths", "2BAC").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByIdentity(context.Background(), "u1", "Maths 2BAC A", "Maths", "2BAC", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM classes").
		WithArgs("u1", "maths 2bac a", "Maths", "2BAC").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsByIdentity(context.Background(), "u1", "maths 2bac a", "Maths", "2BAC", "")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{
		UserID:  "u1",
		Name:    "Maths 2BAC A",
		Subject: "Maths",
		Level:   "2BAC",
		Schedule: models.Schedule{
			{Day: "Samedi", StartTime: "10:00", EndTime: "12:00"},
		},
	}
	err := repo.Create(context.Background(), class)
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryAdjustStudentCount(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("UPDATE classes SET student_count").
		WithArgs(1, sqlmock.AnyArg(), "u1", "c1", "c2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.AdjustStudentCount(context.Background(), "u1", []string{"c1", "c2"}, 1)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryAdjustStudentCountNoIDs(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	err := repo.AdjustStudentCount(context.Background(), "u1", nil, 1)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
