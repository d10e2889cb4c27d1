package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

type mockSubRepo struct {
	subs map[string]models.Subscription
}

func (m *mockSubRepo) FindByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	if sub, ok := m.subs[userID]; ok {
		return &sub, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubRepo) Upsert(ctx context.Context, sub *models.Subscription) error {
	if m.subs == nil {
		m.subs = make(map[string]models.Subscription)
	}
	m.subs[sub.UserID] = *sub
	return nil
}

func TestSubscriptionStatusDefaultsInactive(t *testing.T) {
	svc := NewSubscriptionService(&mockSubRepo{}, validator.New(), zap.NewNop(), true, nil, 300)

	sub, err := svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusInactive, sub.Status)
	assert.Equal(t, 300.0, sub.MonthlyPrice)
}

func TestSubscriptionAllowedWhenNotEnforced(t *testing.T) {
	svc := NewSubscriptionService(&mockSubRepo{}, validator.New(), zap.NewNop(), false, nil, 300)

	ok, err := svc.Allowed(context.Background(), "u1", "owner@center.ma", models.RoleOwner)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubscriptionAdminBypass(t *testing.T) {
	svc := NewSubscriptionService(&mockSubRepo{}, validator.New(), zap.NewNop(), true, nil, 300)

	ok, err := svc.Allowed(context.Background(), "u1", "admin@soutienflow.ma", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubscriptionBypassEmails(t *testing.T) {
	svc := NewSubscriptionService(&mockSubRepo{}, validator.New(), zap.NewNop(), true, []string{"VIP@Center.ma"}, 300)

	ok, err := svc.Allowed(context.Background(), "u1", "vip@center.ma", models.RoleOwner)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Allowed(context.Background(), "u2", "other@center.ma", models.RoleOwner)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubscriptionActivateExtendsActivePeriod(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := now.AddDate(0, 1, 0)
	repo := &mockSubRepo{subs: map[string]models.Subscription{
		"u1": {ID: "sub1", UserID: "u1", Status: models.SubscriptionStatusActive, CurrentPeriodEnd: periodEnd},
	}}
	svc := NewSubscriptionService(repo, validator.New(), zap.NewNop(), true, nil, 300)
	svc.now = func() time.Time { return now }

	sub, err := svc.Activate(context.Background(), "u1", models.ActivateSubscriptionRequest{
		Months: 2,
		Method: models.PaymentMethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, periodEnd.AddDate(0, 2, 0), sub.CurrentPeriodEnd)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
}

func TestSubscriptionActivateFromExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockSubRepo{subs: map[string]models.Subscription{
		"u1": {ID: "sub1", UserID: "u1", Status: models.SubscriptionStatusExpired, CurrentPeriodEnd: now.AddDate(0, -1, 0)},
	}}
	svc := NewSubscriptionService(repo, validator.New(), zap.NewNop(), true, nil, 300)
	svc.now = func() time.Time { return now }

	sub, err := svc.Activate(context.Background(), "u1", models.ActivateSubscriptionRequest{
		Months: 1,
		Method: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 1, 0), sub.CurrentPeriodEnd)

	ok, err := svc.Allowed(context.Background(), "u1", "owner@center.ma", models.RoleOwner)
	require.NoError(t, err)
	assert.True(t, ok)
}
