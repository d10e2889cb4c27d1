package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/hshisoka200/soutienflow-api/internal/middleware"
	"github.com/hshisoka200/soutienflow-api/internal/models"
	"github.com/hshisoka200/soutienflow-api/internal/service"
)

type fakeRuleRepo struct {
	rules []models.PricingRule
}

func (f *fakeRuleRepo) List(ctx context.Context, userID string) ([]models.PricingRule, error) {
	return f.rules, nil
}

func (f *fakeRuleRepo) FindByID(ctx context.Context, userID, id string) (*models.PricingRule, error) {
	return nil, nil
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *models.PricingRule) error { return nil }

func (f *fakeRuleRepo) Update(ctx context.Context, rule *models.PricingRule) error { return nil }

func (f *fakeRuleRepo) Delete(ctx context.Context, userID, id string) error { return nil }

func (f *fakeRuleRepo) ReplaceAll(ctx context.Context, userID string, rules []models.PricingRule) error {
	f.rules = rules
	return nil
}

func newPricingHandler(repo *fakeRuleRepo) *PricingHandler {
	return NewPricingHandler(service.NewPricingService(repo, nil, nil, 0))
}

func TestPricingHandlerQuoteRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPricingHandler(&fakeRuleRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/pricing/quote?subject=Maths&level=2BAC", nil)

	handler.Quote(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPricingHandlerQuoteRequiresParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPricingHandler(&fakeRuleRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/pricing/quote?subject=Maths", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1"})

	handler.Quote(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPricingHandlerQuoteSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPricingHandler(&fakeRuleRepo{rules: []models.PricingRule{
		{ID: "r1", UserID: "u1", Subject: "Maths", Level: "2BAC", Price: 250},
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/pricing/quote?subject=Maths&level=2BAC", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1"})

	handler.Quote(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.PriceQuote `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, 250.0, envelope.Data.Price)
	assert.Equal(t, models.PriceSourceRule, envelope.Data.Source)
}
