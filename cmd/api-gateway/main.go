package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/school-pay-api/api/swagger"
	"github.com/noah-isme/school-pay-api/internal/handler"
	"github.com/noah-isme/school-pay-api/internal/middleware"
	"github.com/noah-isme/school-pay-api/internal/models"
	"github.com/noah-isme/school-pay-api/internal/repository"
	"github.com/noah-isme/school-pay-api/internal/service"
	"github.com/noah-isme/school-pay-api/pkg/cache"
	"github.com/noah-isme/school-pay-api/pkg/config"
	"github.com/noah-isme/school-pay-api/pkg/database"
	"github.com/noah-isme/school-pay-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-pay-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-pay-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-pay-api/pkg/storage"
)

// @title School Pay API
// @version 0.1.0
// @description Compensation and billing calculation engine
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, result caching disabled", "error", err)
		redisClient = nil
	}

	metricsService := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Salary.CacheTTL, logr, redisClient != nil)
	resultCache := service.NewResultCache(cacheService, cfg.Salary.CacheTTL)

	compensationRepo := repository.NewCompensationRepository(db)
	rateRepo := repository.NewRateRepository(db)
	bonusRepo := repository.NewBonusRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	billingRepo := repository.NewBillingRepository(db)

	salaryService := service.NewSalaryService(compensationRepo, rateRepo, bonusRepo, settingsRepo, resultCache, metricsService, logr, cfg.Salary)
	billingService := service.NewBillingService(billingRepo, resultCache, metricsService, logr, cfg.Billing)
	settingsService := service.NewSettingsService(settingsRepo, rateRepo, resultCache, logr)

	salaryHandler := handler.NewSalaryHandler(salaryService, settingsService)
	billingHandler := handler.NewBillingHandler(billingService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var statementHandler *handler.StatementHandler
	var statementService *service.StatementService
	if cfg.Statements.Enabled {
		files, err := storage.NewLocalStorage(cfg.Statements.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init statement storage", "error", err)
		}
		signer := storage.NewDownloadSigner(cfg.Statements.SignedURLSecret, cfg.Statements.SignedURLTTL)
		statementRepo := repository.NewStatementRepository(db)
		exportService := service.NewExportService(salaryService)
		statementService = service.NewStatementService(statementRepo, exportService, files, signer, logr, cfg.Statements)
		statementService.Start(ctx)
		defer statementService.Stop()
		statementHandler = handler.NewStatementHandler(statementService)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	salaries := api.Group("/salaries")
	salaries.GET("/teachers/:id", middleware.RBAC("ADMIN", "MANAGER", middleware.SelfRole), salaryHandler.TeacherSalary)
	salaries.GET("/teachers/:id/detail", middleware.RBAC("ADMIN", "MANAGER", middleware.SelfRole), salaryHandler.TeacherSalaryDetail)

	billing := api.Group("/billing")
	billing.GET("/schools/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), billingHandler.SchoolBill)
	billing.POST("/preview", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), billingHandler.Preview)

	settings := api.Group("/settings")
	settings.Use(middleware.RequireRoles(models.RoleAdmin))
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("", settingsHandler.UpdateSettings)
	settings.PUT("/lateness-policy", settingsHandler.ReplaceLatenessPolicy)
	settings.PUT("/rates", settingsHandler.ReplaceRateTable)
	settings.POST("/cache/purge", settingsHandler.PurgeCache)

	api.GET("/metrics/snapshot", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	if statementHandler != nil {
		statements := api.Group("/statements")
		statements.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
		statements.POST("", statementHandler.Create)
		statements.GET("/:id", statementHandler.Status)
		// Download authenticates via the signed token itself.
		r.GET(cfg.APIPrefix+"/export/:token", statementHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
