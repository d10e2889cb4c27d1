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

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "full_name", "level", "phone", "parent_phone", "enrollments", "subjects", "discount", "total", "payment_status", "paid_at", "enrolled_at", "created_at", "updated_at"}).
		AddRow("1", "u1", "Yassine El Amrani", "2BAC", "0600000000", "", []byte(`[{"class_id":"c1","subject":"Maths","level":"2BAC","price":200}]`), "{Maths}", 0.0, 200.0, "Unpaid", nil, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, full_name, level, phone, parent_phone, enrollments, subjects, discount, total, payment_status, paid_at, enrolled_at, created_at, updated_at FROM students WHERE user_id = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), "u1", models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	require.Len(t, students[0].Enrollments, 1)
	assert.Equal(t, "Maths", students[0].Enrollments[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListLegacyEnrollments(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "full_name", "level", "phone", "parent_phone", "enrollments", "subjects", "discount", "total", "payment_status", "paid_at", "enrolled_at", "created_at", "updated_at"}).
		AddRow("1", "u1", "Old Row", "3AC", "", "", []byte(`["Maths","Physics"]`), "{Maths,Physics}", 0.0, 0.0, "Pending", nil, now, now, now).
		AddRow("2", "u1", "Older Row", "1AC", "", "", []byte(`"Maths"`), "{Maths}", 0.0, 0.0, "Unpaid", nil, now, now, now)
	mock.ExpectQuery("SELECT id, user_id, full_name").WithArgs("u1").WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	students, _, err := repo.List(context.Background(), "u1", models.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, []string{"Maths", "Physics"}, students[0].Enrollments.Subjects())
	assert.Equal(t, []string{"Maths"}, students[1].Enrollments.Subjects())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{
		UserID:   "u1",
		FullName: "Yassine El Amrani",
		Level:    "2BAC",
		Enrollments: models.Enrollments{
			{ClassID: "c1", Subject: "Maths", Level: "2BAC", Price: 200},
		},
		Total: 200,
	}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.False(t, student.EnrolledAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySetPayment(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	paidAt := time.Now().UTC()
	mock.ExpectExec("UPDATE students SET payment_status").
		WithArgs("s1", "u1", models.PaymentStatusPaid, paidAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetPayment(context.Background(), "u1", "s1", models.PaymentStatusPaid, &paidAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListPaidBefore(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	paidAt := cutoff.Add(-time.Hour)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "full_name", "level", "phone", "parent_phone", "enrollments", "subjects", "discount", "total", "payment_status", "paid_at", "enrolled_at", "created_at", "updated_at"}).
		AddRow("1", "u1", "Expired Student", "1BAC", "", "", []byte(`[]`), "{}", 0.0, 150.0, "Paid", paidAt, now, now, now)
	mock.ExpectQuery("SELECT id, user_id, full_name").
		WithArgs("u1", cutoff).
		WillReturnRows(rows)

	students, err := repo.ListPaidBefore(context.Background(), "u1", cutoff)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Expired Student", students[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "full_name", "level", "phone", "parent_phone", "enrollments", "subjects", "discount", "total", "payment_status", "paid_at", "enrolled_at", "created_at", "updated_at"}).
		AddRow("1", "u1", "Layla Tazi", "1BAC", "", "", []byte(`[]`), "{}", 0.0, 150.0, "Pending", nil, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND payment_status = $2")).
		WithArgs("u1", models.PaymentStatusPending).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("u1", models.PaymentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.PaymentStatusPending
	students, total, err := repo.List(context.Background(), "u1", models.StudentFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, models.PaymentStatusPending, students[0].Status)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
