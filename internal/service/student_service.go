package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, userID string, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, userID, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SetPayment(ctx context.Context, userID, id string, status models.PaymentStatus, paidAt *time.Time) error
	Delete(ctx context.Context, userID, id string) error
}

type occupancyAdjuster interface {
	AdjustStudentCount(ctx context.Context, userID string, ids []string, delta int) error
}

type enrollmentComposer interface {
	Compose(ctx context.Context, userID string, classIDs []string) (models.Enrollments, error)
	Total(items models.Enrollments, discount float64) float64
}

type paymentRecorder interface {
	Create(ctx context.Context, payment *models.Payment) error
}

type receiptEnqueuer interface {
	EnqueueReceipt(ctx context.Context, userID, studentID string) error
}

// StudentService handles registration, billing and payment toggling.
type StudentService struct {
	repo        studentRepository
	classes     occupancyAdjuster
	enrollments enrollmentComposer
	payments    paymentRecorder
	receipts    receiptEnqueuer
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service. receipts and cache may be
// nil.
func NewStudentService(repo studentRepository, classes occupancyAdjuster, enrollments enrollmentComposer, payments paymentRecorder, receipts receiptEnqueuer, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:        repo,
		classes:     classes,
		enrollments: enrollments,
		payments:    payments,
		receipts:    receipts,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, userID string, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, userID, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student. The selection must resolve to at least one
// class; each selected class gains one seat and a receipt render is queued.
func (s *StudentService) Create(ctx context.Context, userID string, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if !models.ValidLevel(req.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level")
	}
	items, err := s.enrollments.Compose(ctx, userID, req.ClassIDs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one class is required")
	}
	student := &models.Student{
		UserID:      userID,
		FullName:    req.FullName,
		Level:       req.Level,
		Phone:       req.Phone,
		ParentPhone: req.ParentPhone,
		Enrollments: items,
		Subjects:    pq.StringArray(items.Subjects()),
		Discount:    req.Discount,
		Status:      models.PaymentStatusUnpaid,
		Total:       s.enrollments.Total(items, req.Discount),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	if err := s.classes.AdjustStudentCount(ctx, userID, classIDsOf(items), 1); err != nil {
		s.logger.Warn("class occupancy update failed", zap.String("student_id", student.ID), zap.Error(err))
	}
	if s.receipts != nil {
		if err := s.receipts.EnqueueReceipt(ctx, userID, student.ID); err != nil {
			s.logger.Warn("receipt enqueue failed", zap.String("student_id", student.ID), zap.Error(err))
		}
	}
	s.invalidate(ctx, userID)
	return student, nil
}

// Update edits a student. A new class selection recomposes the line items
// and shifts occupancy from the old classes to the new ones; the billed
// total is recomputed on any change to enrollments or discount.
func (s *StudentService) Update(ctx context.Context, userID, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	oldClassIDs := classIDsOf(student.Enrollments)

	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.Level != nil {
		if !models.ValidLevel(*req.Level) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level")
		}
		student.Level = *req.Level
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.ParentPhone != nil {
		student.ParentPhone = *req.ParentPhone
	}
	if req.Discount != nil {
		student.Discount = *req.Discount
	}
	if req.ClassIDs != nil {
		items, err := s.enrollments.Compose(ctx, userID, *req.ClassIDs)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "at least one class is required")
		}
		student.Enrollments = items
		student.Subjects = pq.StringArray(items.Subjects())
	}
	student.Total = s.enrollments.Total(student.Enrollments, student.Discount)

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if req.ClassIDs != nil {
		newClassIDs := classIDsOf(student.Enrollments)
		if err := s.classes.AdjustStudentCount(ctx, userID, diffIDs(oldClassIDs, newClassIDs), -1); err != nil {
			s.logger.Warn("class occupancy update failed", zap.String("student_id", student.ID), zap.Error(err))
		}
		if err := s.classes.AdjustStudentCount(ctx, userID, diffIDs(newClassIDs, oldClassIDs), 1); err != nil {
			s.logger.Warn("class occupancy update failed", zap.String("student_id", student.ID), zap.Error(err))
		}
	}
	s.invalidate(ctx, userID)
	return student, nil
}

// Delete removes a student and frees the seats they occupied.
func (s *StudentService) Delete(ctx context.Context, userID, id string) error {
	student, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if err := s.classes.AdjustStudentCount(ctx, userID, classIDsOf(student.Enrollments), -1); err != nil {
		s.logger.Warn("class occupancy update failed", zap.String("student_id", id), zap.Error(err))
	}
	s.invalidate(ctx, userID)
	return nil
}

// TogglePayment moves the payment state between Paid and Pending. A Paid
// student drops back to Pending with the stamp cleared; any other state
// becomes Paid, stamps the payment time and records a ledger entry for the
// billed total. History is never rewritten.
func (s *StudentService) TogglePayment(ctx context.Context, userID, id string, req models.RecordPaymentRequest) (*models.Student, error) {
	student, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if student.Status == models.PaymentStatusPaid {
		student.Status = models.PaymentStatusPending
		student.PaidAt = nil
		if err := s.repo.SetPayment(ctx, userID, id, models.PaymentStatusPending, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear payment")
		}
		s.invalidate(ctx, userID)
		return student, nil
	}

	if !models.ValidPaymentMethod(req.Method) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment method")
	}
	now := time.Now().UTC()
	student.Status = models.PaymentStatusPaid
	student.PaidAt = &now
	if err := s.repo.SetPayment(ctx, userID, id, models.PaymentStatusPaid, &now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	payment := &models.Payment{
		UserID:      userID,
		StudentID:   student.ID,
		StudentName: student.FullName,
		Amount:      student.Total,
		Method:      req.Method,
		PaidAt:      now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record ledger entry")
	}
	s.invalidate(ctx, userID)
	return student, nil
}

func (s *StudentService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:"+userID+":*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func classIDsOf(items models.Enrollments) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ClassID != "" {
			ids = append(ids, item.ClassID)
		}
	}
	return ids
}

// diffIDs returns the members of a that are absent from b.
func diffIDs(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
