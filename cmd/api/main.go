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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/subcover-api/api/swagger"
	"github.com/noah-isme/subcover-api/internal/handler"
	"github.com/noah-isme/subcover-api/internal/middleware"
	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/internal/repository"
	"github.com/noah-isme/subcover-api/internal/service"
	"github.com/noah-isme/subcover-api/pkg/cache"
	"github.com/noah-isme/subcover-api/pkg/config"
	"github.com/noah-isme/subcover-api/pkg/database"
	"github.com/noah-isme/subcover-api/pkg/events"
	"github.com/noah-isme/subcover-api/pkg/export"
	"github.com/noah-isme/subcover-api/pkg/jobs"
	"github.com/noah-isme/subcover-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/subcover-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/subcover-api/pkg/middleware/requestid"
	"github.com/noah-isme/subcover-api/pkg/notify"
	"github.com/noah-isme/subcover-api/pkg/storage"
)

// @title Subcover API
// @version 1.0.0
// @description Substitute coverage requests, eligibility matching and notification fan-out.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	exceptionRepo := repository.NewUnavailabilityRepository(db)
	coverageRepo := repository.NewCoverageRequestRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cacheRepo.Enabled())
	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, cfg.Catalog.CacheTTL, logr)

	gateway, err := notify.FromConfig(cfg, logr)
	if err != nil {
		return err
	}
	deliverer := service.NewNotificationDeliverer(gateway, metricsSvc, logr)
	notificationQueue := jobs.NewQueue("notifications", deliverer.Handle, jobs.QueueConfig{
		Workers:    cfg.Dispatch.Workers,
		BufferSize: cfg.Dispatch.BufferSize,
		MaxRetries: cfg.Dispatch.MaxRetries,
		RetryDelay: cfg.Dispatch.RetryDelay,
		Logger:     logr,
		OnExhausted: func(job jobs.Job, err error) {
			logr.Error("notification dropped after retries", zap.String("job_id", job.ID), zap.Error(err))
		},
	})
	notificationQueue.Start(ctx)
	defer notificationQueue.Stop()
	dispatcher := service.NewNotificationDispatcher(notificationQueue, cfg.Dispatch.EnqueueTimeout, logr)

	publisher, err := events.FromConfig(cfg.Events)
	if err != nil {
		return err
	}
	defer publisher.Close() //nolint:errcheck

	var (
		absenceSvc  *service.AbsenceReportService
		reportQueue *jobs.Queue
	)
	if cfg.AbsenceReports.Enabled {
		store, err := storage.NewLocalStorage(cfg.AbsenceReports.StorageDir)
		if err != nil {
			return err
		}
		absenceSvc = service.NewAbsenceReportService(service.AbsenceReportDeps{
			Requests:   coverageRepo,
			People:     staffRepo,
			Sites:      catalogSvc,
			Renderer:   export.NewPDFFormRenderer(),
			Store:      store,
			Signer:     storage.NewSignedURLSigner(cfg.AbsenceReports.SignedURLSecret, cfg.AbsenceReports.SignedURLTTL),
			Dispatcher: dispatcher,
			Metrics:    metricsSvc,
			Logger:     logr,
		}, service.AbsenceReportConfig{
			FullDayHours: cfg.AbsenceReports.FullDayHours,
			DownloadURL:  cfg.PublicBaseURL + cfg.APIPrefix + "/absence-reports/download",
		})
		reportQueue = jobs.NewQueue("absence-reports", absenceSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.AbsenceReports.Workers,
			MaxRetries: 2,
			RetryDelay: 5 * time.Second,
			Logger:     logr,
		})
		reportQueue.Start(ctx)
		defer reportQueue.Stop()
		absenceSvc.StartCleanup(ctx, cfg.AbsenceReports.CleanupInterval, cfg.AbsenceReports.RetentionTTL)
	}

	wildcards := models.Wildcards{Grade: cfg.Catalog.GradeWildcardID, Subject: cfg.Catalog.SubjectWildcardID}
	engine := service.NewEligibilityEngine(service.NewPreferenceMatcher(wildcards), service.NewAvailabilityResolver(logr), logr)
	deps := service.CoverageDeps{
		Repo:       coverageRepo,
		Staff:      staffRepo,
		Exceptions: exceptionRepo,
		Catalog:    catalogSvc,
		Engine:     engine,
		Scopes:     service.NewAccessScopeResolver(cfg.Access.EmptySitePolicy),
		Dispatcher: dispatcher,
		Publisher:  publisher,
		Metrics:    metricsSvc,
		Validator:  validate,
		Logger:     logr,
	}
	if reportQueue != nil {
		deps.Reports = reportQueue
	}
	coverageSvc := service.NewCoverageRequestService(deps, service.CoverageConfig{PublicBaseURL: cfg.PublicBaseURL})
	unavailabilitySvc := service.NewUnavailabilityService(exceptionRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	checks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if cacheRepo.Enabled() {
		checks["redis"] = cacheRepo.Ping
	}

	router := newRouter(cfg, logr, routerDeps{
		metrics:        metricsSvc,
		auth:           authSvc,
		audit:          userRepo,
		authHandler:    handler.NewAuthHandler(authSvc),
		coverage:       handler.NewCoverageRequestHandler(coverageSvc),
		unavailability: handler.NewUnavailabilityHandler(unavailabilitySvc),
		absence:        absenceSvc,
		ops:            handler.NewMetricsHandler(metricsSvc, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type routerDeps struct {
	metrics        *service.MetricsService
	auth           middleware.TokenValidator
	audit          middleware.AuditWriter
	authHandler    *handler.AuthHandler
	coverage       *handler.CoverageRequestHandler
	unavailability *handler.UnavailabilityHandler
	absence        *service.AbsenceReportService
	ops            *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, d routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	r.GET("/health", d.ops.Health)
	r.GET("/ready", d.ops.Ready)
	r.GET("/metrics", d.ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", d.authHandler.Login)
	if d.absence != nil {
		api.GET("/absence-reports/download", handler.NewAbsenceReportHandler(d.absence).Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(d.auth))
	secured.GET("/auth/me", d.authHandler.Me)
	secured.GET("/ops/metrics", middleware.RequireAdmin(), d.ops.Snapshot)

	coverage := secured.Group("/coverage-requests")
	coverage.POST("",
		middleware.RequireRoles(models.RoleRequester),
		middleware.Audit(d.audit, logr, models.AuditActionCoverageCreate, "coverage_request", ""),
		d.coverage.Create)
	coverage.GET("", d.coverage.List)
	coverage.GET("/matching", middleware.RequireRoles(models.RoleCandidate), d.coverage.Matching)
	coverage.GET("/:token", d.coverage.Get)
	coverage.POST("/:token/accept",
		middleware.RequireRoles(models.RoleCandidate),
		middleware.Audit(d.audit, logr, models.AuditActionCoverageAccept, "coverage_request", "token"),
		d.coverage.Accept)

	unavailability := secured.Group("/unavailability", middleware.RequireRoles(models.RoleCandidate))
	unavailability.GET("", d.unavailability.List)
	unavailability.POST("",
		middleware.Audit(d.audit, logr, models.AuditActionUnavailabilityCreate, "unavailability", ""),
		d.unavailability.Create)
	unavailability.DELETE("/:id",
		middleware.Audit(d.audit, logr, models.AuditActionUnavailabilityDelete, "unavailability", "id"),
		d.unavailability.Delete)

	return r
}
