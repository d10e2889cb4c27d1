package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

type mockPricingRepo struct {
	rules   []models.PricingRule
	err     error
	deleted []string
}

func (m *mockPricingRepo) List(ctx context.Context, userID string) ([]models.PricingRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rules, nil
}

func (m *mockPricingRepo) FindByID(ctx context.Context, userID, id string) (*models.PricingRule, error) {
	for _, rule := range m.rules {
		if rule.ID == id {
			r := rule
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPricingRepo) Create(ctx context.Context, rule *models.PricingRule) error {
	rule.ID = "generated"
	rule.Position = len(m.rules) + 1
	m.rules = append(m.rules, *rule)
	return nil
}

func (m *mockPricingRepo) Update(ctx context.Context, rule *models.PricingRule) error {
	for i := range m.rules {
		if m.rules[i].ID == rule.ID {
			m.rules[i] = *rule
		}
	}
	return nil
}

func (m *mockPricingRepo) Delete(ctx context.Context, userID, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockPricingRepo) ReplaceAll(ctx context.Context, userID string, rules []models.PricingRule) error {
	for i := range rules {
		rules[i].Position = i + 1
	}
	m.rules = rules
	return nil
}

func TestPricingServiceResolveBuiltin(t *testing.T) {
	svc := NewPricingService(&mockPricingRepo{}, validator.New(), zap.NewNop(), 100)

	quote, err := svc.Resolve(context.Background(), "u1", "Maths", "2BAC")
	require.NoError(t, err)
	assert.Equal(t, 200.0, quote.Price)
	assert.Equal(t, models.PriceSourceDefault, quote.Source)
}

func TestPricingServiceResolveSubjectDefault(t *testing.T) {
	svc := NewPricingService(&mockPricingRepo{}, validator.New(), zap.NewNop(), 100)

	quote, err := svc.Resolve(context.Background(), "u1", "Arabe", "5AP")
	require.NoError(t, err)
	assert.Equal(t, 100.0, quote.Price)
	assert.Equal(t, models.PriceSourceDefault, quote.Source)
}

func TestPricingServiceResolveFallback(t *testing.T) {
	svc := NewPricingService(&mockPricingRepo{}, validator.New(), zap.NewNop(), 100)

	quote, err := svc.Resolve(context.Background(), "u1", "Espagnol", "2BAC")
	require.NoError(t, err)
	assert.Equal(t, 100.0, quote.Price)
	assert.Equal(t, models.PriceSourceFallback, quote.Source)

	// Known subject, uncovered level and no default key also falls through.
	quote, err = svc.Resolve(context.Background(), "u1", "Philo", "3AC")
	require.NoError(t, err)
	assert.Equal(t, 100.0, quote.Price)
	assert.Equal(t, models.PriceSourceFallback, quote.Source)
}

func TestPricingServiceRuleOverridesBuiltin(t *testing.T) {
	repo := &mockPricingRepo{rules: []models.PricingRule{
		{ID: "r1", Subject: "Maths", Level: "2BAC", Price: 250, Position: 1},
	}}
	svc := NewPricingService(repo, validator.New(), zap.NewNop(), 100)

	quote, err := svc.Resolve(context.Background(), "u1", "Maths", "2BAC")
	require.NoError(t, err)
	assert.Equal(t, 250.0, quote.Price)
	assert.Equal(t, models.PriceSourceRule, quote.Source)
}

func TestPricingServiceExactRuleBeatsDefaultRule(t *testing.T) {
	repo := &mockPricingRepo{rules: []models.PricingRule{
		{ID: "r1", Subject: "Maths", Level: "default", Price: 120, Position: 1},
		{ID: "r2", Subject: "Maths", Level: "2BAC", Price: 250, Position: 2},
	}}
	svc := NewPricingService(repo, validator.New(), zap.NewNop(), 100)

	quote, err := svc.Resolve(context.Background(), "u1", "Maths", "2BAC")
	require.NoError(t, err)
	assert.Equal(t, 250.0, quote.Price)

	quote, err = svc.Resolve(context.Background(), "u1", "Maths", "1AP")
	require.NoError(t, err)
	assert.Equal(t, 120.0, quote.Price)
}

func TestPricingServiceFirstRuleWinsAmongDuplicates(t *testing.T) {
	repo := &mockPricingRepo{rules: []models.PricingRule{
		{ID: "r1", Subject: "Maths", Level: "2BAC", Price: 250, Position: 1},
		{ID: "r2", Subject: "Maths", Level: "2BAC", Price: 300, Position: 2},
	}}
	svc := NewPricingService(repo, validator.New(), zap.NewNop(), 100)

	quote, err := svc.Resolve(context.Background(), "u1", "Maths", "2BAC")
	require.NoError(t, err)
	assert.Equal(t, 250.0, quote.Price)
}

func TestPricingServiceListRulesFlagsDuplicates(t *testing.T) {
	repo := &mockPricingRepo{rules: []models.PricingRule{
		{ID: "r1", Subject: "Maths", Level: "2BAC", Price: 250, Position: 1},
		{ID: "r2", Subject: "Maths", Level: "2BAC", Price: 300, Position: 2},
		{ID: "r3", Subject: "SVT", Level: "2BAC", Price: 180, Position: 3},
	}}
	svc := NewPricingService(repo, validator.New(), zap.NewNop(), 100)

	views, err := svc.ListRules(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.False(t, views[0].Duplicate)
	assert.True(t, views[1].Duplicate)
	assert.False(t, views[2].Duplicate)
}

func TestPricingServiceCreateRuleRejectsNegativePrice(t *testing.T) {
	svc := NewPricingService(&mockPricingRepo{}, validator.New(), zap.NewNop(), 100)

	_, err := svc.CreateRule(context.Background(), "u1", models.CreatePricingRuleRequest{
		Subject: "Maths",
		Level:   "2BAC",
		Price:   -5,
	})
	assert.Error(t, err)
}

func TestPricingServiceReplaceRules(t *testing.T) {
	repo := &mockPricingRepo{rules: []models.PricingRule{
		{ID: "r1", Subject: "Maths", Level: "2BAC", Price: 250, Position: 1},
	}}
	svc := NewPricingService(repo, validator.New(), zap.NewNop(), 100)

	views, err := svc.ReplaceRules(context.Background(), "u1", models.ReplacePricingRulesRequest{
		Rules: []models.CreatePricingRuleRequest{
			{Subject: "Physique", Level: "1BAC", Price: 180},
			{Subject: "Maths", Level: "default", Price: 200, TeacherName: "M. Alaoui"},
		},
	})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Physique", views[0].Subject)
	assert.Equal(t, 1, views[0].Position)
	assert.Equal(t, "M. Alaoui", views[1].TeacherName)

	quote, err := svc.Resolve(context.Background(), "u1", "Maths", "2BAC")
	require.NoError(t, err)
	assert.Equal(t, 200.0, quote.Price)
	assert.Equal(t, models.PriceSourceRule, quote.Source)
}

func TestPricingServiceReplaceRulesRejectsBadRule(t *testing.T) {
	svc := NewPricingService(&mockPricingRepo{}, validator.New(), zap.NewNop(), 100)

	_, err := svc.ReplaceRules(context.Background(), "u1", models.ReplacePricingRulesRequest{
		Rules: []models.CreatePricingRuleRequest{{Subject: "", Level: "2BAC", Price: 100}},
	})
	assert.Error(t, err)
}
