package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

type profileRepository interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

type teacherRepository interface {
	List(ctx context.Context, userID string) ([]models.Teacher, error)
	FindByID(ctx context.Context, userID, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, userID, id string) error
}

// SettingsService manages the center profile and its teacher roster.
type SettingsService struct {
	profiles  profileRepository
	teachers  teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(profiles profileRepository, teachers teacherRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{profiles: profiles, teachers: teachers, validator: validate, logger: logger}
}

// Profile returns the center settings, with an empty profile for accounts
// that never saved one.
func (s *SettingsService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.Profile{UserID: userID, Language: "ar", Theme: "light"}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// UpdateProfile saves the center settings.
func (s *SettingsService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.CenterName != nil {
		profile.CenterName = *req.CenterName
	}
	if req.OwnerName != nil {
		profile.OwnerName = *req.OwnerName
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}
	if req.City != nil {
		profile.City = *req.City
	}
	if req.Language != nil {
		profile.Language = *req.Language
	}
	if req.Theme != nil {
		profile.Theme = *req.Theme
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	return profile, nil
}

// ListTeachers returns the center's instructors.
func (s *SettingsService) ListTeachers(ctx context.Context, userID string) ([]models.Teacher, error) {
	teachers, err := s.teachers.List(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// CreateTeacher registers an instructor.
func (s *SettingsService) CreateTeacher(ctx context.Context, userID string, req models.CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	for _, subject := range req.Subjects {
		if !models.ValidSubject(subject) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
		}
	}
	teacher := &models.Teacher{
		UserID:   userID,
		FullName: req.FullName,
		Subjects: req.Subjects,
		Phone:    req.Phone,
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// UpdateTeacher edits an instructor.
func (s *SettingsService) UpdateTeacher(ctx context.Context, userID, id string, req models.UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.teachers.FindByID(ctx, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if req.FullName != nil {
		teacher.FullName = *req.FullName
	}
	if req.Subjects != nil {
		for _, subject := range *req.Subjects {
			if !models.ValidSubject(subject) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
			}
		}
		teacher.Subjects = *req.Subjects
	}
	if req.Phone != nil {
		teacher.Phone = *req.Phone
	}
	if err := s.teachers.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// DeleteTeacher removes an instructor.
func (s *SettingsService) DeleteTeacher(ctx context.Context, userID, id string) error {
	if _, err := s.teachers.FindByID(ctx, userID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err := s.teachers.Delete(ctx, userID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}
