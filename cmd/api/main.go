package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/handler"
	"github.com/hshisoka200/soutienflow-api/internal/repository"
	"github.com/hshisoka200/soutienflow-api/internal/router"
	"github.com/hshisoka200/soutienflow-api/internal/service"
	"github.com/hshisoka200/soutienflow-api/pkg/cache"
	"github.com/hshisoka200/soutienflow-api/pkg/config"
	"github.com/hshisoka200/soutienflow-api/pkg/database"
	"github.com/hshisoka200/soutienflow-api/pkg/export"
	"github.com/hshisoka200/soutienflow-api/pkg/jobs"
	"github.com/hshisoka200/soutienflow-api/pkg/logger"
	corsmiddleware "github.com/hshisoka200/soutienflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hshisoka200/soutienflow-api/pkg/middleware/requestid"
	"github.com/hshisoka200/soutienflow-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	metricsService := service.NewMetricsService()

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	pricingService := service.NewPricingService(pricingRepo, validate, logr, cfg.Pricing.FallbackPrice)
	enrollmentService := service.NewEnrollmentService(classRepo, pricingService, logr)
	classService := service.NewClassService(classRepo, cacheRepo, validate, logr)
	paymentService := service.NewPaymentService(paymentRepo, logr)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, validate, logr,
		cfg.Subscription.Enforced, cfg.Subscription.BypassEmails, cfg.Subscription.MonthlyPrice)
	expiryService := service.NewExpiryService(studentRepo, classRepo, subscriptionRepo, userRepo,
		cacheRepo, logr, cfg.Expiry.Threshold, cfg.Expiry.CacheTTL)
	dashboardService := service.NewDashboardService(dashboardRepo, paymentRepo, expiryService,
		cacheRepo, logr, cfg.Dashboard.CacheTTL)
	settingsService := service.NewSettingsService(profileRepo, teacherRepo, validate, logr)

	pdfRenderer := export.NewPDFRenderer(cfg.Receipts.FontPath, cfg.Receipts.FontName)
	excelRenderer := export.NewExcelRenderer()

	var exportService *service.ExportService
	receiptQueue := jobs.NewQueue("receipts", func(ctx context.Context, job jobs.Job) error {
		return exportService.HandleJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Receipts.WorkerConcurrency,
		MaxRetries: cfg.Receipts.WorkerRetries,
		Logger:     logr,
	})
	exportService = service.NewExportService(studentRepo, classRepo, profileRepo, store,
		pdfRenderer, excelRenderer, signer, receiptQueue, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Receipts.SignedURLTTL,
		}, logr)

	studentService := service.NewStudentService(studentRepo, classRepo, enrollmentService,
		paymentRepo, exportService, cacheRepo, validate, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	receiptQueue.Start(rootCtx)
	defer receiptQueue.Stop()

	scheduler := cron.New()
	if cfg.Expiry.CronEnabled {
		if _, err := scheduler.AddFunc(cfg.Expiry.CronSpec, func() {
			ctx, cancel := context.WithTimeout(rootCtx, 5*time.Minute)
			defer cancel()
			if err := expiryService.Sweep(ctx); err != nil {
				logr.Warn("expiry sweep failed", zap.Error(err))
			}
		}); err != nil {
			logr.Sugar().Fatalw("invalid expiry cron spec", "spec", cfg.Expiry.CronSpec, "error", err)
		}
	}
	if cfg.Receipts.CleanupInterval > 0 {
		spec := fmt.Sprintf("@every %s", cfg.Receipts.CleanupInterval)
		if _, err := scheduler.AddFunc(spec, exportService.Cleanup); err != nil {
			logr.Sugar().Fatalw("invalid cleanup interval", "interval", cfg.Receipts.CleanupInterval, "error", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	metricsHandler := handler.NewMetricsHandler(metricsService)
	router.Register(r, router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Students:      handler.NewStudentHandler(studentService, exportService),
		Classes:       handler.NewClassHandler(classService, exportService),
		Pricing:       handler.NewPricingHandler(pricingService),
		Payments:      handler.NewPaymentHandler(paymentService),
		Dashboard:     handler.NewDashboardHandler(dashboardService, expiryService),
		Settings:      handler.NewSettingsHandler(settingsService),
		Subscriptions: handler.NewSubscriptionHandler(subscriptionService),
		Exports:       handler.NewExportHandler(exportService),
		Metrics:       metricsHandler,
	}, router.Options{
		Prefix:           cfg.APIPrefix,
		Auth:             authService,
		Subscriptions:    subscriptionService,
		Metrics:          metricsService,
		MetricsEnabled:   cfg.Metrics.Enabled,
		DashboardEnabled: cfg.Dashboard.Enabled,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
