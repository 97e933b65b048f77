package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/campuslink/placement-api/internal/handler"
	"github.com/campuslink/placement-api/internal/middleware"
	"github.com/campuslink/placement-api/internal/repository"
	"github.com/campuslink/placement-api/internal/service"
	"github.com/campuslink/placement-api/pkg/cache"
	"github.com/campuslink/placement-api/pkg/config"
	"github.com/campuslink/placement-api/pkg/database"
	"github.com/campuslink/placement-api/pkg/export"
	"github.com/campuslink/placement-api/pkg/logger"
	corsmiddleware "github.com/campuslink/placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuslink/placement-api/pkg/middleware/requestid"
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
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Statistics.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, statistics cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Statistics.CacheTTL, logr, true)
		}
	}

	validate := validator.New()

	driveRepo := repository.NewDriveRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)

	driveSvc := service.NewDriveService(driveRepo, cacheSvc, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, driveRepo, cacheSvc, validate, logr)
	statisticsSvc := service.NewStatisticsService(registrationRepo, driveRepo, cacheSvc, logr)
	exportSvc := service.NewExportService(export.NewCSVExporter(), export.NewPDFExporter(), cfg.Export.DateFormat, logr)

	driveHandler := handler.NewDriveHandler(driveSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	statisticsHandler := handler.NewStatisticsHandler(statisticsSvc)
	exportHandler := handler.NewExportHandler(driveSvc, registrationSvc, statisticsSvc, exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.OrgAuth(cfg.JWT.Secret, cfg.JWT.Issuer))
	{
		api.GET("/drives", driveHandler.List)
		api.POST("/drives", driveHandler.Create)
		api.GET("/drives/:id", driveHandler.Get)
		api.PUT("/drives/:id", driveHandler.Update)
		api.DELETE("/drives/:id", driveHandler.Delete)
		api.POST("/drives/:id/toggle-registration", driveHandler.ToggleRegistration)

		api.GET("/drives/:id/registrations", registrationHandler.List)
		api.POST("/drives/:id/registrations", registrationHandler.Register)
		api.PUT("/registrations/:id/status", registrationHandler.UpdateStatus)

		api.GET("/drives/:id/statistics", statisticsHandler.Get)
		api.GET("/drives/:id/export", exportHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
