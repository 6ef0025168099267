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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/coursehub-api/api/swagger"
	"github.com/noah-isme/coursehub-api/internal/handler"
	"github.com/noah-isme/coursehub-api/internal/repository"
	"github.com/noah-isme/coursehub-api/internal/service"
	"github.com/noah-isme/coursehub-api/pkg/cache"
	"github.com/noah-isme/coursehub-api/pkg/config"
	"github.com/noah-isme/coursehub-api/pkg/database"
	"github.com/noah-isme/coursehub-api/pkg/export"
	"github.com/noah-isme/coursehub-api/pkg/jobs"
	"github.com/noah-isme/coursehub-api/pkg/logger"
	"github.com/noah-isme/coursehub-api/pkg/mailer"
	"github.com/noah-isme/coursehub-api/pkg/payment"
	"github.com/noah-isme/coursehub-api/pkg/ratelimit"
	"github.com/noah-isme/coursehub-api/pkg/storage"
)

// @title CourseHub API
// @version 1.0
// @description Course catalog, enrollment and checkout backend
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const receiptCleanupInterval = 6 * time.Hour

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
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := connectRedis(cfg, logr)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer app.emailQueue.Stop()

	go runReceiptCleanup(ctx, app.receipts, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// application holds the wired handlers and the resources main must release.
type application struct {
	metrics     *service.MetricsService
	auth        *service.AuthService
	limiter     ratelimit.Limiter
	receipts    *service.ReceiptService
	emailQueue  *jobs.Queue
	authH       *handler.AuthHandler
	courseH     *handler.CourseHandler
	enrollmentH *handler.EnrollmentHandler
	paymentH    *handler.PaymentHandler
	webhookH    *handler.WebhookHandler
	contactH    *handler.ContactHandler
	receiptH    *handler.ReceiptHandler
	adminH      *handler.AdminHandler
	metricsH    *handler.MetricsHandler
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	profiles := repository.NewProfileRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	payments := repository.NewPaymentRepository(db)
	events := repository.NewWebhookEventRepository(db)

	sender, err := mailer.New(cfg.Email, logr.Named("mailer"))
	if err != nil {
		return nil, fmt.Errorf("init mailer: %w", err)
	}
	emailSvc := service.NewEmailService(sender, metrics, logr.Named("email"), service.EmailServiceConfig{
		ContactInbox: cfg.Email.ContactInbox,
		SellerName:   cfg.Email.FromName,
		BaseURL:      cfg.BaseURL,
	})
	emailQueue := jobs.NewQueue("email", emailSvc.Deliver, jobs.QueueConfig{
		Workers:     cfg.Email.QueueWorkers,
		MaxRetries:  cfg.Email.QueueRetries,
		RetryDelay:  cfg.Email.RetryDelay,
		Logger:      logr.Named("email_queue"),
		OnExhausted: emailSvc.OnExhausted,
	})
	emailQueue.Start(ctx)
	emailSvc.UseQueue(emailQueue)

	receiptStore, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init receipt storage: %w", err)
	}
	receiptSvc := service.NewReceiptService(
		export.NewReceiptRenderer(),
		receiptStore,
		storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL),
		logr.Named("receipts"),
		service.ReceiptConfig{
			BaseURL:    cfg.BaseURL,
			APIPrefix:  cfg.APIPrefix,
			SellerName: cfg.Email.FromName,
			Retention:  cfg.Receipts.SignedURLTTL,
		},
	)

	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, "coursehub"),
		metrics,
		cfg.Catalog.CacheTTL,
		logr.Named("cache"),
		cfg.Catalog.CacheEnabled && redisClient != nil,
	)

	gateway, verifier := paymentProvider(cfg.Stripe, logr)

	authSvc := service.NewAuthService(profiles, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courses, cacheSvc, cfg.Catalog.CacheTTL, logr.Named("catalog"))
	enrollmentSvc := service.NewEnrollmentService(enrollments, courses, emailSvc, export.NewCSVExporter(), logr.Named("enrollment"))
	paymentSvc := service.NewPaymentService(gateway, courses, profiles, validate, metrics, logr.Named("payment"), cfg.Stripe.Currency)
	webhookSvc := service.NewWebhookService(service.WebhookDeps{
		Events:      events,
		Payments:    payments,
		Enrollments: enrollments,
		Profiles:    profiles,
		Courses:     courses,
		Receipts:    receiptSvc,
		Notifier:    emailSvc,
	}, metrics, logr.Named("webhook"))
	contactSvc := service.NewContactService(emailSvc, validate, logr.Named("contact"))
	healthSvc := service.NewHealthService(db, cfg.Version, logr.Named("health"))

	return &application{
		metrics:     metrics,
		auth:        authSvc,
		limiter:     rateLimiter(cfg, redisClient, logr),
		receipts:    receiptSvc,
		emailQueue:  emailQueue,
		authH:       handler.NewAuthHandler(authSvc),
		courseH:     handler.NewCourseHandler(courseSvc),
		enrollmentH: handler.NewEnrollmentHandler(enrollmentSvc),
		paymentH:    handler.NewPaymentHandler(paymentSvc),
		webhookH:    handler.NewWebhookHandler(verifier, webhookSvc, metrics, logr.Named("webhook")),
		contactH:    handler.NewContactHandler(contactSvc),
		receiptH:    handler.NewReceiptHandler(receiptSvc),
		adminH:      handler.NewAdminHandler(enrollmentSvc),
		metricsH:    handler.NewMetricsHandler(metrics, healthSvc),
	}, nil
}

func connectRedis(cfg *config.Config, logr *zap.Logger) *redis.Client {
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		if errors.Is(err, cache.ErrDisabled) {
			logr.Warn("redis disabled: rate limiting allows every request and the catalog is not cached")
		} else {
			logr.Warn("redis unavailable: rate limiting allows every request and the catalog is not cached", zap.Error(err))
		}
		return nil
	}
	return client
}

func rateLimiter(cfg *config.Config, client *redis.Client, logr *zap.Logger) ratelimit.Limiter {
	if client == nil {
		return ratelimit.Disabled()
	}
	logr.Info("rate limiting enabled", zap.String("prefix", cfg.RateLimit.Prefix))
	return ratelimit.NewRedisLimiter(client, cfg.RateLimit.Prefix, ratelimit.RulesFromConfig(cfg.RateLimit))
}

func paymentProvider(cfg config.StripeConfig, logr *zap.Logger) (payment.Gateway, payment.Verifier) {
	var gateway payment.Gateway = payment.DisabledGateway()
	if cfg.SecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.SecretKey)
	} else {
		logr.Warn("stripe secret key not configured, checkout is disabled")
	}

	var verifier payment.Verifier = payment.DisabledVerifier()
	if cfg.WebhookSecret != "" {
		verifier = payment.NewStripeVerifier(cfg.WebhookSecret)
	} else {
		logr.Warn("stripe webhook secret not configured, every webhook will be rejected")
	}
	return gateway, verifier
}

func runReceiptCleanup(ctx context.Context, receipts *service.ReceiptService, logr *zap.Logger) {
	ticker := time.NewTicker(receiptCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := receipts.Cleanup(ctx)
			if err != nil {
				logr.Warn("receipt cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logr.Info("expired receipts removed", zap.Int("count", removed))
			}
		}
	}
}
