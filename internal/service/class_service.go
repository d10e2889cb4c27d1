package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, userID, id string) (*models.Class, error)
	ExistsByIdentity(ctx context.Context, userID, name, subject, level, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, userID, id string) error
	ReconcileStudentCounts(ctx context.Context, userID string) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ClassService handles tuition group use-cases.
type ClassService struct {
	repo      classRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the class service. cache may be nil.
func NewClassService(repo classRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns classes and pagination metadata.
func (s *ClassService) List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return classes, pagination, nil
}

// Get returns a single class.
func (s *ClassService) Get(ctx context.Context, userID, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create opens a new class. A class with the same name, subject and level
// already existing is rejected without writing anything.
func (s *ClassService) Create(ctx context.Context, userID string, req models.CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if !models.ValidSubject(req.Subject) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
	}
	if !models.ValidLevel(req.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level")
	}
	exists, err := s.repo.ExistsByIdentity(ctx, userID, req.Name, req.Subject, req.Level, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class identity")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a class with this name, subject and level already exists")
	}
	class := &models.Class{
		UserID:      userID,
		Name:        req.Name,
		Subject:     req.Subject,
		Level:       req.Level,
		TeacherName: req.TeacherName,
		Schedule:    models.Schedule(req.Schedule),
		Capacity:    req.Capacity,
		Active:      true,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.invalidate(ctx, userID)
	return class, nil
}

// Update edits a class, applying the same identity check against other
// classes.
func (s *ClassService) Update(ctx context.Context, userID, id string, req models.UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.Subject != nil {
		if !models.ValidSubject(*req.Subject) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
		}
		class.Subject = *req.Subject
	}
	if req.Level != nil {
		if !models.ValidLevel(*req.Level) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level")
		}
		class.Level = *req.Level
	}
	if req.TeacherName != nil {
		class.TeacherName = *req.TeacherName
	}
	if req.Schedule != nil {
		class.Schedule = models.Schedule(*req.Schedule)
	}
	if req.Capacity != nil {
		class.Capacity = *req.Capacity
	}
	if req.Active != nil {
		class.Active = *req.Active
	}
	exists, err := s.repo.ExistsByIdentity(ctx, userID, class.Name, class.Subject, class.Level, class.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class identity")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a class with this name, subject and level already exists")
	}
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.invalidate(ctx, userID)
	return class, nil
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.invalidate(ctx, userID)
	return nil
}

// ReconcileCounts recomputes cached class occupancy from the student
// registry.
func (s *ClassService) ReconcileCounts(ctx context.Context, userID string) error {
	if err := s.repo.ReconcileStudentCounts(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reconcile class counts")
	}
	return nil
}

func (s *ClassService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:"+userID+":*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
