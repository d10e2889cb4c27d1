package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

type subscriptionRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) error
}

// SubscriptionService gates access behind the monthly platform subscription.
type SubscriptionService struct {
	repo         subscriptionRepository
	validator    *validator.Validate
	logger       *zap.Logger
	enforced     bool
	bypassEmails map[string]struct{}
	monthlyPrice float64
	now          func() time.Time
}

// NewSubscriptionService constructs the subscription service. bypassEmails
// lists accounts exempt from enforcement, matched case insensitively.
func NewSubscriptionService(repo subscriptionRepository, validate *validator.Validate, logger *zap.Logger, enforced bool, bypassEmails []string, monthlyPrice float64) *SubscriptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if monthlyPrice <= 0 {
		monthlyPrice = 300
	}
	bypass := make(map[string]struct{}, len(bypassEmails))
	for _, email := range bypassEmails {
		bypass[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	return &SubscriptionService{
		repo:         repo,
		validator:    validate,
		logger:       logger,
		enforced:     enforced,
		bypassEmails: bypass,
		monthlyPrice: monthlyPrice,
		now:          time.Now,
	}
}

// Status returns the account's subscription, defaulting to inactive when
// none was ever activated.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.Subscription{
				UserID:       userID,
				Status:       models.SubscriptionStatusInactive,
				MonthlyPrice: s.monthlyPrice,
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscription")
	}
	return sub, nil
}

// Allowed reports whether the account may use the product. Admin accounts
// and bypass-listed emails always pass; otherwise an active, unexpired
// subscription is required when enforcement is on.
func (s *SubscriptionService) Allowed(ctx context.Context, userID, email string, role models.UserRole) (bool, error) {
	if !s.enforced || role == models.RoleAdmin {
		return true, nil
	}
	if _, ok := s.bypassEmails[strings.ToLower(email)]; ok {
		return true, nil
	}
	sub, err := s.Status(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub.ActiveAt(s.now().UTC()), nil
}

// Activate starts or extends the subscription by whole months. Extension
// counts from the current period end when it is still in the future.
func (s *SubscriptionService) Activate(ctx context.Context, userID string, req models.ActivateSubscriptionRequest) (*models.Subscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subscription payload")
	}
	if !models.ValidPaymentMethod(req.Method) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment method")
	}
	sub, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	start := now
	if sub.Status == models.SubscriptionStatusActive && sub.CurrentPeriodEnd.After(now) {
		start = sub.CurrentPeriodEnd
	}
	sub.Status = models.SubscriptionStatusActive
	sub.MonthlyPrice = s.monthlyPrice
	sub.CurrentPeriodEnd = start.AddDate(0, req.Months, 0)
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate subscription")
	}
	s.logger.Info("subscription activated",
		zap.String("user_id", userID),
		zap.Int("months", req.Months),
		zap.Time("period_end", sub.CurrentPeriodEnd))
	return sub, nil
}
