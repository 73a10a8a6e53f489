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
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hostel-api/api/swagger"
	"github.com/noah-isme/hostel-api/internal/handler"
	"github.com/noah-isme/hostel-api/internal/repository"
	"github.com/noah-isme/hostel-api/internal/router"
	"github.com/noah-isme/hostel-api/internal/service"
	"github.com/noah-isme/hostel-api/pkg/cache"
	"github.com/noah-isme/hostel-api/pkg/config"
	"github.com/noah-isme/hostel-api/pkg/logger"
	"github.com/noah-isme/hostel-api/pkg/storage"
)

// @title Hostel Management API
// @version 1.0.0
// @description Students, rooms, fees, attendance and reports for a single hostel.
// @BasePath /api/v1
// @schemes http
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, falling back to in-process sessions", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	engine, err := buildEngine(cfg, logr, redisClient)
	if err != nil {
		logr.Fatal("failed to build server", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "redis", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}

func buildEngine(cfg *config.Config, logr *zap.Logger, redisClient *redis.Client) (*gin.Engine, error) {
	metrics := service.NewMetricsService()
	validate := validator.New()

	store := repository.NewStore(repository.StoreOptions{
		Latency:  cfg.Store.Latency,
		Observer: metrics.ObserveStoreOperation,
	})
	if cfg.Store.Seed {
		store.Seed(time.Now())
	}
	students := repository.NewStudentRepository(store)
	rooms := repository.NewRoomRepository(store)
	fees := repository.NewFeeRepository(store)
	attendance := repository.NewAttendanceRepository(store)

	var (
		sessions  service.SessionStore
		cacheRepo service.CacheRepository
	)
	if redisClient != nil {
		sessions = repository.NewRedisSessionRepository(redisClient)
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	} else {
		sessions = repository.NewMemorySessionRepository()
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init report storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	authSvc := service.NewAuthService(students, rooms, sessions, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AdminEmail:        cfg.Auth.AdminEmail,
	})
	studentSvc := service.NewStudentService(students, cacheSvc, service.PictureConfig{
		MaxBytes:     cfg.Uploads.MaxBytes,
		MaxDimension: cfg.Uploads.MaxDimension,
	}, validate, logr)
	roomSvc := service.NewRoomService(rooms, students, cacheSvc, metrics, logr)
	feeSvc := service.NewFeeService(fees, students, cacheSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendance, students, cacheSvc, metrics, validate, logr)
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Students: students,
		Rooms:    rooms,
		Fees:     fees,
		Storage:  files,
		Signer:   signer,
		Metrics:  metrics,
		Logger:   logr,
		Config:   service.ReportConfig{APIPrefix: cfg.APIPrefix},
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students: students,
		Rooms:    rooms,
		Fees:     fees,
		Cache:    cacheSvc,
		Logger:   logr,
		Config:   service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	return router.New(router.Options{
		Config:  cfg,
		Logger:  logr,
		Auth:    authSvc,
		Metrics: metrics,
		Handlers: router.Handlers{
			Auth:       handler.NewAuthHandler(authSvc),
			Students:   handler.NewStudentHandler(studentSvc, cfg.Uploads.MaxBytes),
			Rooms:      handler.NewRoomHandler(roomSvc),
			Fees:       handler.NewFeeHandler(feeSvc),
			Attendance: handler.NewAttendanceHandler(attendanceSvc),
			Reports:    handler.NewReportHandler(reportSvc),
			Dashboard:  handler.NewDashboardHandler(dashboardSvc),
			Health:     handler.NewHealthHandler(redisClient),
		},
	}), nil
}
