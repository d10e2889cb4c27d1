package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

type mockPaymentRepo struct {
	payments []models.Payment
}

func (m *mockPaymentRepo) List(ctx context.Context, userID string, filter models.PaymentFilter) ([]models.Payment, int, error) {
	return m.payments, len(m.payments), nil
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *mockPaymentRepo) SumBetween(ctx context.Context, userID string, from, to time.Time) (float64, int, error) {
	var total float64
	var count int
	for _, p := range m.payments {
		if p.PaidAt.Before(from) || !p.PaidAt.Before(to) {
			continue
		}
		total += p.Amount
		count++
	}
	return total, count, nil
}

func TestPaymentServiceListDefaultsPagination(t *testing.T) {
	repo := &mockPaymentRepo{payments: []models.Payment{
		{ID: "p1", Amount: 250},
	}}
	svc := NewPaymentService(repo, zap.NewNop())

	payments, pagination, err := svc.List(context.Background(), "u1", models.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestPaymentServiceSummaryCoversCalendarMonth(t *testing.T) {
	march := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	repo := &mockPaymentRepo{payments: []models.Payment{
		{ID: "p1", Amount: 250, PaidAt: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p2", Amount: 180, PaidAt: time.Date(2026, time.March, 31, 23, 0, 0, 0, time.UTC)},
		{ID: "p3", Amount: 999, PaidAt: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p4", Amount: 999, PaidAt: time.Date(2026, time.February, 28, 12, 0, 0, 0, time.UTC)},
	}}
	svc := NewPaymentService(repo, zap.NewNop())

	summary, err := svc.Summary(context.Background(), "u1", march)
	require.NoError(t, err)
	assert.Equal(t, "2026-03", summary.Month)
	assert.Equal(t, 430.0, summary.Total)
	assert.Equal(t, 2, summary.Count)
}
