package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/medtrack/medtrack-api/api/swagger"
	"github.com/medtrack/medtrack-api/internal/handler"
	"github.com/medtrack/medtrack-api/internal/middleware"
	"github.com/medtrack/medtrack-api/internal/repository"
	"github.com/medtrack/medtrack-api/internal/service"
	"github.com/medtrack/medtrack-api/pkg/cache"
	"github.com/medtrack/medtrack-api/pkg/config"
	"github.com/medtrack/medtrack-api/pkg/database"
	"github.com/medtrack/medtrack-api/pkg/logger"
	corsmiddleware "github.com/medtrack/medtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/medtrack/medtrack-api/pkg/middleware/requestid"
	"github.com/medtrack/medtrack-api/pkg/storage"
)

// @title MedTrack API
// @version 0.1.0
// @description Medication schedule tracking and reminders
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	patientRepo := repository.NewPatientRepository(db)
	shareRepo := repository.NewShareRepository(db)
	medicationRepo := repository.NewMedicationRepository(db)
	versionRepo := repository.NewScheduleVersionRepository(db)
	doseRepo := repository.NewDoseRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	pharmacyRepo := repository.NewPharmacyRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT, logr)
	accessSvc := service.NewAccessService(patientRepo, shareRepo, logr)
	patientSvc := service.NewPatientService(patientRepo, shareRepo, validate, logr)
	medicationSvc := service.NewMedicationService(medicationRepo, versionRepo, doseRepo, cacheRepo, validate, logr)
	doseSvc := service.NewDoseService(doseRepo, medicationRepo, versionRepo, cacheRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(patientRepo, medicationRepo, versionRepo, doseRepo, cacheRepo, metricsSvc, cfg.Schedule, validate, logr)
	doctorSvc := service.NewDoctorService(doctorRepo, validate, logr)
	pharmacySvc := service.NewPharmacyService(pharmacyRepo, validate, logr)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(patientRepo, medicationRepo, versionRepo, doseRepo, store, signer, cfg.Exports, logr)

	patientHandler := handler.NewPatientHandler(patientSvc, accessSvc)
	medicationHandler := handler.NewMedicationHandler(medicationSvc, accessSvc)
	doseHandler := handler.NewDoseHandler(doseSvc, accessSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, accessSvc)
	doctorHandler := handler.NewDoctorHandler(doctorSvc, accessSvc)
	pharmacyHandler := handler.NewPharmacyHandler(pharmacySvc, accessSvc)
	exportHandler := handler.NewExportHandler(exportSvc, accessSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/downloads/:token", exportHandler.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	api.GET("/patients", patientHandler.List)
	api.POST("/patients", patientHandler.Create)
	api.GET("/patients/:id", patientHandler.Get)
	api.PUT("/patients/:id", patientHandler.Update)
	api.DELETE("/patients/:id", patientHandler.Delete)
	api.GET("/patients/:id/shares", patientHandler.ListShares)
	api.POST("/patients/:id/shares", patientHandler.Share)
	api.DELETE("/patients/:id/shares/:userId", patientHandler.Unshare)

	api.GET("/patients/:id/medications", medicationHandler.List)
	api.POST("/patients/:id/medications", medicationHandler.Create)
	api.GET("/medications/:id", medicationHandler.Get)
	api.PUT("/medications/:id", medicationHandler.Update)
	api.PUT("/medications/:id/schedule", medicationHandler.UpdateSchedule)
	api.GET("/medications/:id/schedule/history", medicationHandler.History)
	api.PATCH("/medications/:id/status", medicationHandler.SetStatus)
	api.DELETE("/medications/:id", medicationHandler.Delete)

	api.GET("/patients/:id/doses", doseHandler.List)
	api.POST("/patients/:id/doses", doseHandler.Create)
	api.GET("/doses/:id", doseHandler.Get)
	api.PUT("/doses/:id", doseHandler.Update)
	api.DELETE("/doses/:id", doseHandler.Delete)

	api.GET("/patients/:id/schedule", scheduleHandler.Query)

	api.GET("/patients/:id/doctors", doctorHandler.List)
	api.POST("/patients/:id/doctors", doctorHandler.Create)
	api.GET("/doctors/:id", doctorHandler.Get)
	api.PUT("/doctors/:id", doctorHandler.Update)
	api.DELETE("/doctors/:id", doctorHandler.Delete)

	api.GET("/patients/:id/pharmacies", pharmacyHandler.List)
	api.POST("/patients/:id/pharmacies", pharmacyHandler.Create)
	api.GET("/pharmacies/:id", pharmacyHandler.Get)
	api.PUT("/pharmacies/:id", pharmacyHandler.Update)
	api.DELETE("/pharmacies/:id", pharmacyHandler.Delete)

	api.GET("/patients/:id/report.pdf", exportHandler.Report)
	api.GET("/patients/:id/dump.json", exportHandler.Dump)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}
