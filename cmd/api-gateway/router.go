package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/middleware"
	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/pkg/config"
	"github.com/noah-isme/coursehub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/coursehub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/coursehub-api/pkg/middleware/requestid"
	"github.com/noah-isme/coursehub-api/pkg/ratelimit"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics, "/metrics", "/health"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", app.metricsH.Health)
	r.GET("/metrics", app.metricsH.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limit := func(class ratelimit.Class) gin.HandlerFunc {
		return middleware.RateLimit(app.limiter, class, app.metrics, logr.Named("ratelimit"))
	}
	requireAuth := middleware.JWT(app.auth)

	api := r.Group(cfg.APIPrefix)

	// Signed by the provider; not rate limited.
	api.POST("/webhooks/stripe", app.webhookH.Stripe)

	auth := api.Group("/auth", limit(ratelimit.ClassAuth))
	auth.POST("/register", app.authH.Register)
	auth.POST("/login", app.authH.Login)
	api.GET("/auth/me", limit(ratelimit.ClassAPI), requireAuth, app.authH.Me)

	courses := api.Group("/courses", limit(ratelimit.ClassAPI))
	courses.GET("", app.courseH.List)
	courses.GET("/:slug", app.courseH.Get)
	courses.GET("/:slug/schedules", app.courseH.Schedules)

	api.POST("/contact", limit(ratelimit.ClassContact), app.contactH.Submit)
	api.GET("/receipts/download", limit(ratelimit.ClassAPI), app.receiptH.Download)

	enrollments := api.Group("/enrollments", limit(ratelimit.ClassAPI), requireAuth)
	enrollments.POST("", app.enrollmentH.Create)
	enrollments.GET("/me", app.enrollmentH.Mine)
	enrollments.PATCH("/:id/progress", app.enrollmentH.UpdateProgress)
	enrollments.POST("/:id/cancel", app.enrollmentH.Cancel)

	payments := api.Group("/payments", requireAuth)
	payments.POST("/intent", limit(ratelimit.ClassPayment), app.paymentH.CreateIntent)
	payments.GET("/:intentId/status", limit(ratelimit.ClassAPI), app.paymentH.Status)

	admin := api.Group("/admin", limit(ratelimit.ClassAPI), requireAuth, middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/enrollments", app.adminH.ListEnrollments)
	admin.GET("/enrollments/export", app.adminH.ExportEnrollments)
	admin.POST("/payments/:intentId/refund", app.paymentH.Refund)

	return r
}
