package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

type paymentRepository interface {
	List(ctx context.Context, userID string, filter models.PaymentFilter) ([]models.Payment, int, error)
	Create(ctx context.Context, payment *models.Payment) error
	SumBetween(ctx context.Context, userID string, from, to time.Time) (float64, int, error)
}

// PaymentService exposes the payment ledger.
type PaymentService struct {
	repo   paymentRepository
	logger *zap.Logger
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, logger: logger}
}

// List returns ledger entries and pagination metadata.
func (s *PaymentService) List(ctx context.Context, userID string, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
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
	return payments, pagination, nil
}

// Summary aggregates the ledger over the calendar month containing the given
// time, in that time's location.
func (s *PaymentService) Summary(ctx context.Context, userID string, month time.Time) (*models.PaymentSummary, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0)
	total, count, err := s.repo.SumBetween(ctx, userID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize payments")
	}
	return &models.PaymentSummary{Month: start.Format("2006-01"), Total: total, Count: count}, nil
}
