package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

type paidStudentLister interface {
	ListPaidBefore(ctx context.Context, userID string, cutoff time.Time) ([]models.Student, error)
}

type occupancyReconciler interface {
	ReconcileStudentCounts(ctx context.Context, userID string) error
}

type subscriptionExpirer interface {
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

type activeUserLister interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

type alertCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ExpiryService surfaces students whose monthly payment has lapsed and runs
// the periodic maintenance sweep.
type ExpiryService struct {
	students      paidStudentLister
	classes       occupancyReconciler
	subscriptions subscriptionExpirer
	users         activeUserLister
	cache         alertCache
	logger        *zap.Logger
	threshold     time.Duration
	cacheTTL      time.Duration
	now           func() time.Time
}

// NewExpiryService constructs the expiry service. cache may be nil; threshold
// defaults to thirty days.
func NewExpiryService(students paidStudentLister, classes occupancyReconciler, subscriptions subscriptionExpirer, users activeUserLister, cache alertCache, logger *zap.Logger, threshold, cacheTTL time.Duration) *ExpiryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = 30 * 24 * time.Hour
	}
	return &ExpiryService{
		students:      students,
		classes:       classes,
		subscriptions: subscriptions,
		users:         users,
		cache:         cache,
		logger:        logger,
		threshold:     threshold,
		cacheTTL:      cacheTTL,
		now:           time.Now,
	}
}

// Alerts lists students whose last payment is at least the threshold old.
// The boundary is inclusive: a payment exactly the threshold old is flagged.
func (s *ExpiryService) Alerts(ctx context.Context, userID string) ([]models.ExpiryAlert, error) {
	key := "alerts:" + userID
	if s.cache != nil {
		var cached []models.ExpiryAlert
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("alert cache read failed", zap.Error(err))
		}
	}

	now := s.now().UTC()
	cutoff := now.Add(-s.threshold)
	students, err := s.students.ListPaidBefore(ctx, userID, cutoff)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan expired payments")
	}
	alerts := make([]models.ExpiryAlert, 0, len(students))
	for _, student := range students {
		if student.PaidAt == nil {
			continue
		}
		alerts = append(alerts, models.ExpiryAlert{
			StudentID:   student.ID,
			StudentName: student.FullName,
			Level:       student.Level,
			PaidAt:      *student.PaidAt,
			DaysSince:   int(now.Sub(*student.PaidAt).Hours() / 24),
		})
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, alerts, s.cacheTTL); err != nil {
			s.logger.Warn("alert cache write failed", zap.Error(err))
		}
	}
	return alerts, nil
}

// Sweep runs the periodic maintenance pass: lapsed subscriptions are marked
// expired, class occupancy is reconciled per center and stale alert caches
// are dropped.
func (s *ExpiryService) Sweep(ctx context.Context) error {
	now := s.now().UTC()
	expired, err := s.subscriptions.MarkExpired(ctx, now)
	if err != nil {
		return err
	}
	if expired > 0 {
		s.logger.Info("subscriptions expired", zap.Int64("count", expired))
	}

	userIDs, err := s.users.ListActiveIDs(ctx)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.classes.ReconcileStudentCounts(ctx, userID); err != nil {
			s.logger.Warn("occupancy reconcile failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "alerts:*"); err != nil {
			s.logger.Warn("alert cache purge failed", zap.Error(err))
		}
	}
	return nil
}
