package router

import (
	"github.com/gin-gonic/gin"

	"github.com/hshisoka200/soutienflow-api/internal/handler"
	"github.com/hshisoka200/soutienflow-api/internal/middleware"
	"github.com/hshisoka200/soutienflow-api/internal/service"
)

// Handlers bundles the HTTP handlers registered on the engine.
type Handlers struct {
	Auth          *handler.AuthHandler
	Students      *handler.StudentHandler
	Classes       *handler.ClassHandler
	Pricing       *handler.PricingHandler
	Payments      *handler.PaymentHandler
	Dashboard     *handler.DashboardHandler
	Settings      *handler.SettingsHandler
	Subscriptions *handler.SubscriptionHandler
	Exports       *handler.ExportHandler
	Metrics       *handler.MetricsHandler
}

// Options carries the services backing route middleware.
type Options struct {
	Prefix           string
	Auth             *service.AuthService
	Subscriptions    *service.SubscriptionService
	Metrics          *service.MetricsService
	MetricsEnabled   bool
	DashboardEnabled bool
}

// Register mounts all routes on the engine. Auth and subscription routes sit
// outside the paywall so an expired account can still pay.
func Register(r *gin.Engine, h Handlers, opts Options) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "/api/v1"
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	if opts.MetricsEnabled {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}

	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	// Download links carry their own signed token.
	api.GET("/export/:token", h.Exports.Download)

	authed := api.Group("", middleware.JWT(opts.Auth))
	authed.POST("/auth/logout", h.Auth.Logout)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)
	authed.GET("/auth/me", h.Auth.Me)

	authed.GET("/subscription", h.Subscriptions.Status)
	authed.POST("/subscription/activate", h.Subscriptions.Activate)

	gated := authed.Group("", middleware.Subscription(opts.Subscriptions))

	students := gated.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)
	students.POST("/:id/payment", h.Students.TogglePayment)
	students.GET("/:id/receipt", h.Students.Receipt)

	classes := gated.Group("/classes")
	classes.GET("", h.Classes.List)
	classes.POST("", h.Classes.Create)
	classes.POST("/reconcile", h.Classes.Reconcile)
	classes.GET("/:id", h.Classes.Get)
	classes.PUT("/:id", h.Classes.Update)
	classes.DELETE("/:id", h.Classes.Delete)
	classes.GET("/:id/roster", h.Classes.Roster)

	pricing := gated.Group("/pricing")
	pricing.GET("/rules", h.Pricing.ListRules)
	pricing.POST("/rules", h.Pricing.CreateRule)
	pricing.PUT("/rules", h.Pricing.ReplaceRules)
	pricing.PUT("/rules/:id", h.Pricing.UpdateRule)
	pricing.DELETE("/rules/:id", h.Pricing.DeleteRule)
	pricing.GET("/quote", h.Pricing.Quote)

	gated.GET("/payments", h.Payments.List)
	gated.GET("/payments/summary", h.Payments.Summary)

	if opts.DashboardEnabled {
		dashboard := gated.Group("/dashboard")
		dashboard.GET("/stats", h.Dashboard.Stats)
		dashboard.GET("/alerts", h.Dashboard.Alerts)
	}

	settings := gated.Group("/settings")
	settings.GET("/profile", h.Settings.Profile)
	settings.PUT("/profile", h.Settings.UpdateProfile)
	settings.GET("/teachers", h.Settings.ListTeachers)
	settings.POST("/teachers", h.Settings.CreateTeacher)
	settings.PUT("/teachers/:id", h.Settings.UpdateTeacher)
	settings.DELETE("/teachers/:id", h.Settings.DeleteTeacher)
	settings.GET("/catalog", h.Settings.Catalog)
}
