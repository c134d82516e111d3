package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sekolah-digital/ops-api/api/swagger"
	"github.com/sekolah-digital/ops-api/internal/handler"
	"github.com/sekolah-digital/ops-api/internal/middleware"
	"github.com/sekolah-digital/ops-api/internal/repository"
	"github.com/sekolah-digital/ops-api/internal/resolver"
	"github.com/sekolah-digital/ops-api/internal/service"
	"github.com/sekolah-digital/ops-api/pkg/cache"
	"github.com/sekolah-digital/ops-api/pkg/config"
	"github.com/sekolah-digital/ops-api/pkg/database"
	"github.com/sekolah-digital/ops-api/pkg/logger"
	corsmiddleware "github.com/sekolah-digital/ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sekolah-digital/ops-api/pkg/middleware/requestid"
)

// @title Sekolah Ops API
// @version 1.0.0
// @description School operations dashboard backend: attendance capture, status resolution and arrival insights
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// the engine resolves everything from postgres; redis only trims latency
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	if cfg.Attendance.FallbackGraceMinutes > 0 {
		resolver.FallbackGraceMinutes = cfg.Attendance.FallbackGraceMinutes
	}

	metricsService := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Attendance.CacheTTL, logr, redisClient != nil)

	studentRepo := repository.NewStudentRepository(db)
	configRepo := repository.NewClassConfigRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)

	validate := validator.New()
	service.RegisterAttendanceValidations(validate)

	tokenService := service.NewTokenService(cfg.JWT.Secret)
	studentService := service.NewStudentService(studentRepo, cacheService, validate, logr)
	configService := service.NewClassConfigService(configRepo, cacheService, validate, logr)
	permissionService := service.NewPermissionService(permissionRepo, studentRepo, cacheService, validate, logr)
	attendanceService := service.NewAttendanceService(studentRepo, configRepo, attendanceRepo, cacheService, validate, logr)
	statusService := service.NewStatusService(studentRepo, configRepo, attendanceRepo, permissionRepo, cacheService, metricsService, cfg.Attendance.CacheTTL, logr)
	insightService := service.NewInsightService(studentRepo, configRepo, attendanceRepo, cacheService, cfg.Insights.CacheTTL, cfg.Insights.LeaderboardSize, logr)
	exportService := service.NewExportService(studentRepo, statusService, logr)

	studentHandler := handler.NewStudentHandler(studentService)
	configHandler := handler.NewClassConfigHandler(configService)
	permissionHandler := handler.NewPermissionHandler(permissionService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, statusService)
	insightHandler := handler.NewInsightHandler(insightService)
	exportHandler := handler.NewExportHandler(exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsService))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenService))
	{
		api.GET("/students", studentHandler.List)
		api.POST("/students", middleware.RBAC("admin", "staff"), studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", middleware.RBAC("admin", "staff"), studentHandler.Update)
		api.DELETE("/students/:id", middleware.RBAC("admin"), studentHandler.Delete)
		api.GET("/students/:id/assignments", studentHandler.Assignments)
		api.POST("/students/:id/assignments", middleware.RBAC("admin", "staff"), studentHandler.AssignMonth)
		api.GET("/students/:id/attendance", attendanceHandler.StudentMonth)

		api.GET("/classes/config", configHandler.List)
		api.GET("/classes/:id/config", configHandler.Get)
		api.PUT("/classes/:id/config", middleware.RBAC("admin"), configHandler.Upsert)
		api.GET("/classes/:id/attendance", attendanceHandler.ClassDay)

		api.POST("/attendance/scan", attendanceHandler.Scan)

		api.GET("/permissions", permissionHandler.List)
		api.POST("/permissions", permissionHandler.Create)
		api.PATCH("/permissions/:id/review", middleware.RBAC("admin", "staff"), permissionHandler.Review)

		if cfg.Insights.Enabled {
			api.GET("/classes/:id/leaderboard", insightHandler.Leaderboard)
		}
		if cfg.Exports.Enabled {
			api.GET("/classes/:id/export", exportHandler.MonthlyClassSheet)
		}

		api.GET("/metrics/summary", middleware.RBAC("admin"), metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
