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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/aulora-api/api/swagger"
	"github.com/noah-isme/aulora-api/internal/handler"
	"github.com/noah-isme/aulora-api/internal/middleware"
	"github.com/noah-isme/aulora-api/internal/repository"
	"github.com/noah-isme/aulora-api/internal/service"
	"github.com/noah-isme/aulora-api/pkg/cache"
	"github.com/noah-isme/aulora-api/pkg/config"
	"github.com/noah-isme/aulora-api/pkg/database"
	"github.com/noah-isme/aulora-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/aulora-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/aulora-api/pkg/middleware/requestid"
)

// @title Aulora API
// @version 1.0.0
// @description Courses, itineraries, enrollments and learning progress
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	cacheEnabled := cfg.Cache.Enabled
	if cacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
			cacheEnabled = false
		} else {
			defer redisClient.Close()
		}
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	validate := validator.New()

	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	itineraryRepo := repository.NewItineraryRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.CatalogTTL, logr, cacheEnabled)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	progressSvc := service.NewProgressService(tx, progressRepo, moduleRepo, courseRepo, itineraryRepo, userRepo, metricsSvc, logr)
	enrollmentSvc := service.NewEnrollmentService(tx, enrollmentRepo, courseRepo, itineraryRepo, paymentRepo, progressSvc, validate, metricsSvc, logr)
	policy := service.NewAccessPolicy(enrollmentRepo, categoryRepo)
	catalogSvc := service.NewCatalogService(service.CatalogDeps{
		Tx:          tx,
		Categories:  categoryRepo,
		Courses:     courseRepo,
		Modules:     moduleRepo,
		Itineraries: itineraryRepo,
		Policy:      policy,
		Cache:       cacheSvc,
		PriceTTL:    cfg.Cache.CatalogTTL,
	}, validate, logr)
	userSvc := service.NewUserService(userRepo, progressSvc, validate, logr)
	exportSvc := service.NewExportService(progressSvc, logr)
	assistantSvc := service.NewAssistantService(courseRepo, itineraryRepo, categoryRepo, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	handler.RegisterRoutes(api, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Profile:    handler.NewProfileHandler(userSvc, exportSvc, enrollmentSvc),
		Course:     handler.NewCourseHandler(catalogSvc),
		Itinerary:  handler.NewItineraryHandler(catalogSvc),
		Enrollment: handler.NewEnrollmentHandler(enrollmentSvc),
		Progress:   handler.NewProgressHandler(progressSvc),
		Assistant:  handler.NewAssistantHandler(assistantSvc, validate),
		Metrics:    handler.NewMetricsHandler(metricsSvc, db, cacheSvc),
	}, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix, "cache", cacheEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
