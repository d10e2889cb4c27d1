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
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

type mockClassRepo struct {
	classes    map[string]models.Class
	reconciled []string
}

func (m *mockClassRepo) List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.Class, int, error) {
	var out []models.Class
	for _, c := range m.classes {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, userID, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ExistsByIdentity(ctx context.Context, userID, name, subject, level, excludeID string) (bool, error) {
	for _, c := range m.classes {
		if c.Active && c.Name == name && c.Subject == subject && c.Level == level && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.classes == nil {
		m.classes = make(map[string]models.Class)
	}
	if class.ID == "" {
		class.ID = "generated"
	}
	m.classes[class.ID] = *class
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.classes[class.ID] = *class
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, userID, id string) error {
	delete(m.classes, id)
	return nil
}

func (m *mockClassRepo) ReconcileStudentCounts(ctx context.Context, userID string) error {
	m.reconciled = append(m.reconciled, userID)
	return nil
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, nil, validator.New(), zap.NewNop())

	class, err := svc.Create(context.Background(), "u1", models.CreateClassRequest{
		Name:        "Maths 2BAC A",
		Subject:     "Maths",
		Level:       "2BAC",
		TeacherName: "Mme Alaoui",
		Schedule:    []models.ScheduleEntry{{Day: "Samedi", StartTime: "10:00", EndTime: "12:00"}},
		Capacity:    30,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, 0, class.StudentCount)
	assert.True(t, class.Active)
}

func TestClassServiceCreateDuplicateRejected(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Maths 2BAC A", Subject: "Maths", Level: "2BAC", Active: true},
	}}
	svc := NewClassService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "u1", models.CreateClassRequest{
		Name:    "Maths 2BAC A",
		Subject: "Maths",
		Level:   "2BAC",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Len(t, repo.classes, 1)
}

func TestClassServiceCreateIgnoresInactiveDuplicate(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Maths 2BAC A", Subject: "Maths", Level: "2BAC", Active: false},
	}}
	svc := NewClassService(repo, nil, validator.New(), zap.NewNop())

	// A deactivated class frees its identity for a replacement.
	class, err := svc.Create(context.Background(), "u1", models.CreateClassRequest{
		Name:    "Maths 2BAC A",
		Subject: "Maths",
		Level:   "2BAC",
	})
	require.NoError(t, err)
	assert.True(t, class.Active)
	assert.Len(t, repo.classes, 2)
}

func TestClassServiceUpdateDeactivates(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Maths 2BAC A", Subject: "Maths", Level: "2BAC", Active: true},
	}}
	svc := NewClassService(repo, nil, validator.New(), zap.NewNop())

	inactive := false
	class, err := svc.Update(context.Background(), "u1", "c1", models.UpdateClassRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, class.Active)
	assert.False(t, repo.classes["c1"].Active)
}

func TestClassServiceCreateCaseSensitiveIdentity(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Maths 2BAC A", Subject: "Maths", Level: "2BAC", Active: true},
	}}
	svc := NewClassService(repo, nil, validator.New(), zap.NewNop())

	// Differing only in case is a distinct identity.
	class, err := svc.Create(context.Background(), "u1", models.CreateClassRequest{
		Name:    "maths 2bac a",
		Subject: "Maths",
		Level:   "2BAC",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
}

func TestClassServiceCreateUnknownSubject(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), "u1", models.CreateClassRequest{
		Name:    "Latin TC",
		Subject: "Latin",
		Level:   "Tronc Commun",
	})
	assert.Error(t, err)
}

func TestClassServiceUpdateKeepsIdentityCheck(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"c1": {ID: "c1", Name: "Maths 2BAC A", Subject: "Maths", Level: "2BAC", Active: true},
		"c2": {ID: "c2", Name: "Maths 2BAC B", Subject: "Maths", Level: "2BAC"},
	}}
	svc := NewClassService(repo, nil, validator.New(), zap.NewNop())

	name := "Maths 2BAC A"
	_, err := svc.Update(context.Background(), "u1", "c2", models.UpdateClassRequest{Name: &name})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestClassServiceGetNotFound(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "u1", "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
