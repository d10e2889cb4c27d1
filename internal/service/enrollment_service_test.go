package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

type mockClassLookup struct {
	classes map[string]models.Class
}

func (m *mockClassLookup) FindByIDs(ctx context.Context, userID string, ids []string) ([]models.Class, error) {
	var out []models.Class
	for _, id := range ids {
		if class, ok := m.classes[id]; ok {
			out = append(out, class)
		}
	}
	return out, nil
}

type fixedResolver struct {
	prices   map[string]float64
	teachers map[string]string
}

func (f *fixedResolver) Resolve(ctx context.Context, userID, subject, level string) (models.PriceQuote, error) {
	if price, ok := f.prices[subject+"/"+level]; ok {
		return models.PriceQuote{Subject: subject, Level: level, Price: price, TeacherName: f.teachers[subject+"/"+level], Source: models.PriceSourceRule}, nil
	}
	return models.PriceQuote{Subject: subject, Level: level, Price: 100, Source: models.PriceSourceFallback}, nil
}

func newComposeFixture() (*EnrollmentService, *mockClassLookup) {
	classes := &mockClassLookup{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Maths 2BAC A", Subject: "Maths", Level: "2BAC", TeacherName: "Mme Alaoui",
			Schedule: models.Schedule{{Day: "Samedi", StartTime: "10:00", EndTime: "12:00"}}},
		"c2": {ID: "c2", Name: "SVT 2BAC", Subject: "SVT", Level: "2BAC", TeacherName: "M. Berrada"},
	}}
	resolver := &fixedResolver{prices: map[string]float64{
		"Maths/2BAC": 200,
		"SVT/2BAC":   150,
	}}
	return NewEnrollmentService(classes, resolver, zap.NewNop()), classes
}

func TestEnrollmentComposeEmptySelection(t *testing.T) {
	svc, _ := newComposeFixture()

	items, err := svc.Compose(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0.0, svc.Total(items, 0))
}

func TestEnrollmentComposeSnapshotsClassContext(t *testing.T) {
	svc, _ := newComposeFixture()

	items, err := svc.Compose(context.Background(), "u1", []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Maths", items[0].Subject)
	assert.Equal(t, "Mme Alaoui", items[0].Teacher)
	assert.Equal(t, "Samedi 10:00-12:00", items[0].Schedule)
	assert.Equal(t, 200.0, items[0].Price)
	assert.Equal(t, 150.0, items[1].Price)
}

func TestEnrollmentComposeDedupesSelection(t *testing.T) {
	svc, _ := newComposeFixture()

	items, err := svc.Compose(context.Background(), "u1", []string{"c1", "c1", "c2"})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestEnrollmentComposeUnknownClass(t *testing.T) {
	svc, _ := newComposeFixture()

	_, err := svc.Compose(context.Background(), "u1", []string{"missing"})
	assert.Error(t, err)
}

func TestEnrollmentTotalAppliesDiscount(t *testing.T) {
	svc, _ := newComposeFixture()

	items := models.Enrollments{
		{Subject: "Maths", Price: 200},
		{Subject: "SVT", Price: 150},
	}
	assert.Equal(t, 300.0, svc.Total(items, 50))
}

func TestEnrollmentTotalNeverNegative(t *testing.T) {
	svc, _ := newComposeFixture()

	items := models.Enrollments{{Subject: "Maths", Price: 100}}
	assert.Equal(t, 0.0, svc.Total(items, 500))
}

func TestEnrollmentComposeTeacherFallsBackToRule(t *testing.T) {
	classes := &mockClassLookup{classes: map[string]models.Class{
		"c3": {ID: "c3", Name: "Physique 1BAC", Subject: "Physics", Level: "1BAC"},
	}}
	resolver := &fixedResolver{
		prices:   map[string]float64{"Physics/1BAC": 150},
		teachers: map[string]string{"Physics/1BAC": "M. Tazi"},
	}
	svc := NewEnrollmentService(classes, resolver, zap.NewNop())

	items, err := svc.Compose(context.Background(), "u1", []string{"c3"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "M. Tazi", items[0].Teacher)
}
