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

func newPricingMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPricingRepositoryListOrdersByPosition(t *testing.T) {
	db, mock, cleanup := newPricingMock(t)
	defer cleanup()
	repo := NewPricingRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "subject", "level", "price", "teacher_name", "position", "created_at", "updated_at"}).
		AddRow("1", "u1", "Maths", "2BAC", 250.0, "", 1, now, now).
		AddRow("2", "u1", "Maths", "default", 120.0, "", 2, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, subject, level, price, teacher_name, position, created_at, updated_at FROM pricing_rules WHERE user_id = $1 ORDER BY position ASC")).
		WithArgs("u1").
		WillReturnRows(rows)

	rules, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 1, rules[0].Position)
	assert.Equal(t, "2BAC", rules[0].Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPricingRepositoryCreateAssignsPosition(t *testing.T) {
	db, mock, cleanup := newPricingMock(t)
	defer cleanup()
	repo := NewPricingRepository(db)

	mock.ExpectQuery("INSERT INTO pricing_rules").
		WithArgs(sqlmock.AnyArg(), "u1", "Maths", "2BAC", 250.0, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(3))

	rule := &models.PricingRule{UserID: "u1", Subject: "Maths", Level: "2BAC", Price: 250}
	err := repo.Create(context.Background(), rule)
	require.NoError(t, err)
	assert.Equal(t, 3, rule.Position)
	assert.NotEmpty(t, rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPricingRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newPricingMock(t)
	defer cleanup()
	repo := NewPricingRepository(db)

	mock.ExpectExec("DELETE FROM pricing_rules").
		WithArgs("r1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPricingRepositoryReplaceAll(t *testing.T) {
	db, mock, cleanup := newPricingMock(t)
	defer cleanup()
	repo := NewPricingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM pricing_rules WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO pricing_rules").
		WithArgs(sqlmock.AnyArg(), "u1", "Physique", "1BAC", 180.0, "", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO pricing_rules").
		WithArgs(sqlmock.AnyArg(), "u1", "Maths", "default", 200.0, "M. Alaoui", 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rules := []models.PricingRule{
		{Subject: "Physique", Level: "1BAC", Price: 180},
		{Subject: "Maths", Level: "default", Price: 200, TeacherName: "M. Alaoui"},
	}
	err := repo.ReplaceAll(context.Background(), "u1", rules)
	require.NoError(t, err)
	assert.Equal(t, 1, rules[0].Position)
	assert.Equal(t, 2, rules[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}
