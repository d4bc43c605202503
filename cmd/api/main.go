package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mohamedmahmoud95/scms-api/api/swagger"
	"github.com/mohamedmahmoud95/scms-api/internal/handler"
	"github.com/mohamedmahmoud95/scms-api/internal/middleware"
	"github.com/mohamedmahmoud95/scms-api/internal/repository"
	"github.com/mohamedmahmoud95/scms-api/internal/service"
	"github.com/mohamedmahmoud95/scms-api/pkg/cache"
	"github.com/mohamedmahmoud95/scms-api/pkg/config"
	"github.com/mohamedmahmoud95/scms-api/pkg/database"
	"github.com/mohamedmahmoud95/scms-api/pkg/logger"
	corsmiddleware "github.com/mohamedmahmoud95/scms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mohamedmahmoud95/scms-api/pkg/middleware/requestid"
)

// @title Student Course Management API
// @version 1.0.0
// @description Course enrollment, grading and reporting for a university department
// @BasePath /api
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	tx := database.NewTransactor(db)

	studentRepo := repository.NewStudentRepository(db)
	adminRepo := repository.NewAdministratorRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	adminNotificationRepo := repository.NewAdminNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, redisClient != nil)

	adminNotificationSvc := service.NewAdminNotificationService(adminNotificationRepo, adminRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, studentRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, cfg.Students.EmailDomain, validate, logr)
	adminSvc := service.NewAdministratorService(adminRepo, validate, logr)
	authSvc := service.NewAuthService(studentSvc, adminSvc, cfg.JWT, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, notificationRepo, adminNotificationSvc, tx, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, notificationRepo, adminNotificationSvc, tx, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, studentRepo, courseRepo, notificationRepo, adminNotificationSvc, tx, validate, logr)
	reportSvc := service.NewReportService(enrollmentRepo, gradeRepo, studentRepo, courseRepo, cacheSvc, metricsSvc, cfg.Reports.CacheTTL, logr)

	handlers := handler.Handlers{
		Auth:               handler.NewAuthHandler(authSvc),
		Students:           handler.NewStudentHandler(studentSvc, enrollmentSvc, gradeSvc),
		Administrators:     handler.NewAdministratorHandler(adminSvc),
		Courses:            handler.NewCourseHandler(courseSvc, enrollmentSvc, gradeSvc),
		Enrollments:        handler.NewEnrollmentHandler(enrollmentSvc, reportSvc),
		Grades:             handler.NewGradeHandler(gradeSvc, reportSvc),
		Notifications:      handler.NewNotificationHandler(notificationSvc),
		AdminNotifications: handler.NewAdminNotificationHandler(adminNotificationSvc),
		Reports:            handler.NewReportHandler(reportSvc),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
