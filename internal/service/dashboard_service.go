package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	"github.com/hshisoka200/soutienflow-api/internal/repository"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

type dashboardRepository interface {
	CountStudents(ctx context.Context, userID string) (repository.StudentCounts, error)
	CountClasses(ctx context.Context, userID string) (int, error)
	RevenueBySubject(ctx context.Context, userID string) ([]models.SubjectRevenue, error)
}

type paymentSummer interface {
	SumSince(ctx context.Context, userID string, from time.Time) (float64, error)
}

type expiryCounter interface {
	Alerts(ctx context.Context, userID string) ([]models.ExpiryAlert, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardService aggregates the headline snapshot for the home view.
type DashboardService struct {
	repo     dashboardRepository
	payments paymentSummer
	expiry   expiryCounter
	cache    dashboardCache
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewDashboardService constructs the dashboard service. cache may be nil.
func NewDashboardService(repo dashboardRepository, payments paymentSummer, expiry expiryCounter, cache dashboardCache, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:     repo,
		payments: payments,
		expiry:   expiry,
		cache:    cache,
		logger:   logger,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Stats returns the dashboard snapshot, served from cache when fresh.
// Monthly revenue covers payments received since the first of the current
// month.
func (s *DashboardService) Stats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	key := "dashboard:" + userID + ":stats"
	if s.cache != nil {
		var cached models.DashboardStats
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	counts, err := s.repo.CountStudents(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate students")
	}
	classes, err := s.repo.CountClasses(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	revenue, err := s.repo.RevenueBySubject(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate revenue")
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthly, err := s.payments.SumSince(ctx, userID, monthStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum monthly revenue")
	}

	alerts, err := s.expiry.Alerts(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TotalStudents:    counts.Total,
		TotalClasses:     classes,
		PaidStudents:     counts.Paid,
		UnpaidStudents:   counts.Unpaid,
		ExpiredPayments:  len(alerts),
		MonthlyRevenue:   monthly,
		ExpectedRevenue:  counts.ExpectedRevenue,
		RevenueBySubject: revenue,
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
