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

type mockPaidLister struct {
	students []models.Student
}

func (m *mockPaidLister) ListPaidBefore(ctx context.Context, userID string, cutoff time.Time) ([]models.Student, error) {
	var out []models.Student
	for _, s := range m.students {
		if s.Status == models.PaymentStatusPaid && s.PaidAt != nil && !s.PaidAt.After(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockReconciler struct {
	reconciled []string
}

func (m *mockReconciler) ReconcileStudentCounts(ctx context.Context, userID string) error {
	m.reconciled = append(m.reconciled, userID)
	return nil
}

type mockSubExpirer struct {
	expired int64
}

func (m *mockSubExpirer) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.expired, nil
}

type mockUserLister struct {
	ids []string
}

func (m *mockUserLister) ListActiveIDs(ctx context.Context) ([]string, error) {
	return m.ids, nil
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestExpiryAlertsThresholdInclusive(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	threshold := 30 * 24 * time.Hour

	students := &mockPaidLister{students: []models.Student{
		{ID: "s1", FullName: "Exactly Thirty", Level: "2BAC", Status: models.PaymentStatusPaid,
			PaidAt: ptrTime(now.Add(-threshold))},
		{ID: "s2", FullName: "Almost Thirty", Level: "2BAC", Status: models.PaymentStatusPaid,
			PaidAt: ptrTime(now.Add(-threshold + 15*time.Minute))},
		{ID: "s3", FullName: "Well Past", Level: "1BAC", Status: models.PaymentStatusPaid,
			PaidAt: ptrTime(now.Add(-45 * 24 * time.Hour))},
	}}

	svc := NewExpiryService(students, &mockReconciler{}, &mockSubExpirer{}, &mockUserLister{}, nil, zap.NewNop(), threshold, 0)
	svc.now = func() time.Time { return now }

	alerts, err := svc.Alerts(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "s1", alerts[0].StudentID)
	assert.Equal(t, 30, alerts[0].DaysSince)
	assert.Equal(t, "s3", alerts[1].StudentID)
	assert.Equal(t, 45, alerts[1].DaysSince)
}

func TestExpiryAlertsIgnoresUnpaid(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	students := &mockPaidLister{students: []models.Student{
		{ID: "s1", FullName: "Never Paid", Level: "2BAC", Status: models.PaymentStatusUnpaid},
	}}

	svc := NewExpiryService(students, &mockReconciler{}, &mockSubExpirer{}, &mockUserLister{}, nil, zap.NewNop(), 0, 0)
	svc.now = func() time.Time { return now }

	alerts, err := svc.Alerts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestExpirySweepReconcilesEveryCenter(t *testing.T) {
	reconciler := &mockReconciler{}
	users := &mockUserLister{ids: []string{"u1", "u2"}}

	svc := NewExpiryService(&mockPaidLister{}, reconciler, &mockSubExpirer{expired: 3}, users, nil, zap.NewNop(), 0, 0)

	err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, reconciler.reconciled)
}
