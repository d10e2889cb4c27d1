package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

type enrollmentClassRepository interface {
	FindByIDs(ctx context.Context, userID string, ids []string) ([]models.Class, error)
}

type priceResolver interface {
	Resolve(ctx context.Context, userID, subject, level string) (models.PriceQuote, error)
}

// EnrollmentService turns a class selection into billing line items.
type EnrollmentService struct {
	classes enrollmentClassRepository
	pricing priceResolver
	logger  *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(classes enrollmentClassRepository, pricing priceResolver, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{classes: classes, pricing: pricing, logger: logger}
}

// Compose builds one line item per selected class, pricing each from the
// class subject and level. Duplicate selections collapse to one line item.
// An empty selection yields an empty list.
func (s *EnrollmentService) Compose(ctx context.Context, userID string, classIDs []string) (models.Enrollments, error) {
	if len(classIDs) == 0 {
		return models.Enrollments{}, nil
	}

	seen := make(map[string]struct{}, len(classIDs))
	ordered := make([]string, 0, len(classIDs))
	for _, id := range classIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}

	classes, err := s.classes.FindByIDs(ctx, userID, ordered)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selected classes")
	}
	byID := make(map[string]models.Class, len(classes))
	for _, class := range classes {
		byID[class.ID] = class
	}

	items := make(models.Enrollments, 0, len(ordered))
	for _, id := range ordered {
		class, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found", id))
		}
		quote, err := s.pricing.Resolve(ctx, userID, class.Subject, class.Level)
		if err != nil {
			return nil, err
		}
		teacher := class.TeacherName
		if teacher == "" {
			teacher = quote.TeacherName
		}
		items = append(items, models.Enrollment{
			ClassID:  class.ID,
			Subject:  class.Subject,
			Level:    class.Level,
			Teacher:  teacher,
			Schedule: class.Schedule.String(),
			Price:    quote.Price,
		})
	}
	return items, nil
}

// Total applies the discount to the line item subtotal, never going below
// zero.
func (s *EnrollmentService) Total(items models.Enrollments, discount float64) float64 {
	total := items.Subtotal() - discount
	if total < 0 {
		return 0
	}
	return total
}
