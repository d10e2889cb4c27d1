package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
)

// defaultPricing holds the built-in monthly price tables in MAD, keyed by
// subject then level. The "default" key covers every level of the subject.
var defaultPricing = map[string]map[string]float64{
	"Maths": {
		"2BAC": 200, "1BAC": 150, "Tronc Commun": 150,
		"3AC": 150, "2AC": 150, "1AC": 150,
		"6AP": 150, "5AP": 100, "4AP": 100, "3AP": 100, "2AP": 100, "1AP": 100,
	},
	"Physics": {
		"2BAC": 200, "1BAC": 150, "Tronc Commun": 150,
		"3AC": 100, "2AC": 100, "1AC": 100,
		"6AP": 100, "5AP": 100, "4AP": 100, "3AP": 100, "2AP": 100, "1AP": 100,
	},
	"PC": {
		"2BAC": 200, "1BAC": 200, "Tronc Commun": 150,
		"3AC": 150, "2AC": 100, "1AC": 100,
	},
	"SVT": {
		"2BAC": 200, "1BAC": 200, "Tronc Commun": 150,
		"3AC": 150,
	},
	"Anglais": {
		"2BAC": 150, "1BAC": 150, "Tronc Commun": 150,
		"3AC": 150, "default": 100,
	},
	"Français": {
		"2BAC": 150, "1BAC": 150, "Tronc Commun": 150,
		"3AC": 150, "default": 100,
	},
	"Arabe": {
		"default": 100,
	},
	"Philo": {
		"2BAC": 150, "1BAC": 100,
	},
	"H-G": {
		"default": 100,
	},
}

type pricingRuleRepository interface {
	List(ctx context.Context, userID string) ([]models.PricingRule, error)
	FindByID(ctx context.Context, userID, id string) (*models.PricingRule, error)
	Create(ctx context.Context, rule *models.PricingRule) error
	Update(ctx context.Context, rule *models.PricingRule) error
	Delete(ctx context.Context, userID, id string) error
	ReplaceAll(ctx context.Context, userID string, rules []models.PricingRule) error
}

// PricingService resolves monthly prices and manages center pricing rules.
type PricingService struct {
	repo      pricingRuleRepository
	validator *validator.Validate
	logger    *zap.Logger
	fallback  float64
}

// NewPricingService constructs the pricing service. fallback is the price
// applied when neither rules nor built-in tables cover a pair.
func NewPricingService(repo pricingRuleRepository, validate *validator.Validate, logger *zap.Logger, fallback float64) *PricingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallback <= 0 {
		fallback = 100
	}
	return &PricingService{repo: repo, validator: validate, logger: logger, fallback: fallback}
}

// Resolve returns the monthly price for a subject and level. Center rules win
// over the built-in tables; within rules, an exact level match wins over a
// "default" level rule, and the earliest rule in position order wins among
// equals.
func (s *PricingService) Resolve(ctx context.Context, userID, subject, level string) (models.PriceQuote, error) {
	rules, err := s.repo.List(ctx, userID)
	if err != nil {
		return models.PriceQuote{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pricing rules")
	}
	quote := s.resolveFromRules(rules, subject, level)
	quote.Subject = subject
	quote.Level = level
	return quote, nil
}

func (s *PricingService) resolveFromRules(rules []models.PricingRule, subject, level string) models.PriceQuote {
	for _, rule := range rules {
		if rule.Subject == subject && rule.Level == level {
			return models.PriceQuote{Price: rule.Price, TeacherName: rule.TeacherName, Source: models.PriceSourceRule}
		}
	}
	for _, rule := range rules {
		if rule.Subject == subject && rule.Level == "default" {
			return models.PriceQuote{Price: rule.Price, TeacherName: rule.TeacherName, Source: models.PriceSourceRule}
		}
	}
	if table, ok := defaultPricing[subject]; ok {
		if price, ok := table[level]; ok {
			return models.PriceQuote{Price: price, Source: models.PriceSourceDefault}
		}
		if price, ok := table["default"]; ok {
			return models.PriceQuote{Price: price, Source: models.PriceSourceDefault}
		}
	}
	return models.PriceQuote{Price: s.fallback, Source: models.PriceSourceFallback}
}

// ListRules returns the center's rules in position order, flagging rules that
// are shadowed by an earlier rule on the same pair.
func (s *PricingService) ListRules(ctx context.Context, userID string) ([]models.PricingRuleView, error) {
	rules, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pricing rules")
	}
	type pair struct{ subject, level string }
	seen := make(map[pair]bool, len(rules))
	views := make([]models.PricingRuleView, 0, len(rules))
	for _, rule := range rules {
		key := pair{rule.Subject, rule.Level}
		views = append(views, models.PricingRuleView{PricingRule: rule, Duplicate: seen[key]})
		seen[key] = true
	}
	return views, nil
}

// CreateRule appends a new rule for the center.
func (s *PricingService) CreateRule(ctx context.Context, userID string, req models.CreatePricingRuleRequest) (*models.PricingRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pricing rule payload")
	}
	rule := &models.PricingRule{
		UserID:      userID,
		Subject:     req.Subject,
		Level:       req.Level,
		Price:       req.Price,
		TeacherName: req.TeacherName,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pricing rule")
	}
	return rule, nil
}

// ReplaceRules swaps the center's full rule set. Rules keep the submitted
// order, which becomes the new lookup order.
func (s *PricingService) ReplaceRules(ctx context.Context, userID string, req models.ReplacePricingRulesRequest) ([]models.PricingRuleView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pricing rules payload")
	}
	rules := make([]models.PricingRule, 0, len(req.Rules))
	for _, item := range req.Rules {
		rules = append(rules, models.PricingRule{
			UserID:      userID,
			Subject:     item.Subject,
			Level:       item.Level,
			Price:       item.Price,
			TeacherName: item.TeacherName,
		})
	}
	if err := s.repo.ReplaceAll(ctx, userID, rules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace pricing rules")
	}
	return s.ListRules(ctx, userID)
}

// UpdateRule edits a rule in place, keeping its position.
func (s *PricingService) UpdateRule(ctx context.Context, userID, id string, req models.UpdatePricingRuleRequest) (*models.PricingRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pricing rule payload")
	}
	rule, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pricing rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pricing rule")
	}
	if req.Subject != nil {
		rule.Subject = *req.Subject
	}
	if req.Level != nil {
		rule.Level = *req.Level
	}
	if req.Price != nil {
		rule.Price = *req.Price
	}
	if req.TeacherName != nil {
		rule.TeacherName = *req.TeacherName
	}
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pricing rule")
	}
	return rule, nil
}

// DeleteRule removes a rule.
func (s *PricingService) DeleteRule(ctx context.Context, userID, id string) error {
	if _, err := s.repo.FindByID(ctx, userID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "pricing rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pricing rule")
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete pricing rule")
	}
	return nil
}
