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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-fees-api/api/swagger"
	"github.com/noah-isme/school-fees-api/internal/handler"
	"github.com/noah-isme/school-fees-api/internal/middleware"
	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/internal/repository"
	"github.com/noah-isme/school-fees-api/internal/service"
	"github.com/noah-isme/school-fees-api/pkg/cache"
	"github.com/noah-isme/school-fees-api/pkg/config"
	"github.com/noah-isme/school-fees-api/pkg/database"
	"github.com/noah-isme/school-fees-api/pkg/export"
	"github.com/noah-isme/school-fees-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-fees-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-fees-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-fees-api/pkg/storage"
	"github.com/noah-isme/school-fees-api/pkg/validation"
)

// @title School Fees API
// @version 1.0.0
// @description Student fee ledger: fee plans, pending months, fee application and receipts.
// @BasePath /api
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

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db.DB, logr, "up"); err != nil {
			logr.Fatal("migrations failed", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, pending cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.PendingTTL, logr, cacheRepo != nil)

	photos, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("uploads directory unavailable", zap.Error(err))
	}

	validator := validation.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	monthRepo := repository.NewStudentMonthRepository(db)
	planRepo := repository.NewFeePlanRepository(db)
	headingRepo := repository.NewFeeHeadingRepository(db)
	routeRepo := repository.NewRouteRepository(db)
	ledgerRepo := repository.NewFeeRegisterRepository(db)

	authSvc := service.NewAuthService(userRepo, validator, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	feeSvc := service.NewFeeService(service.FeeServiceDeps{
		Tx:        db,
		Students:  studentRepo,
		Months:    monthRepo,
		Plans:     planRepo,
		Routes:    routeRepo,
		Ledger:    ledgerRepo,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Validator: validator,
		Logger:    logr,
	})
	planSvc := service.NewFeePlanService(db, planRepo, cacheSvc, validator, logr)
	headingSvc := service.NewFeeHeadingService(headingRepo, validator, logr)
	routeSvc := service.NewRouteService(routeRepo, cacheSvc, validator, logr)
	studentSvc := service.NewStudentService(db, studentRepo, monthRepo, photos, cacheSvc, validator, logr)
	registerSvc := service.NewRegisterService(service.RegisterServiceDeps{
		Tx:         db,
		Ledger:     ledgerRepo,
		Students:   studentRepo,
		Months:     monthRepo,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Validator:  validator,
		Logger:     logr,
		CSV:        export.NewCSVExporter(),
		PDF:        export.NewPDFExporter(cfg.SchoolName),
		SchoolName: cfg.SchoolName,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)
	planHandler := handler.NewFeePlanHandler(planSvc)
	headingHandler := handler.NewFeeHeadingHandler(headingSvc)
	routeHandler := handler.NewRouteHandler(routeSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, cfg.Uploads.MaxFileSizeBytes)
	registerHandler := handler.NewRegisterHandler(registerSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static("/uploads", photos.BaseDir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	admin := middleware.RequireRoles(models.RoleAdmin)
	cashier := middleware.RequireRoles(models.RoleAdmin, models.RoleAccountant)
	audit := func(action, resource, param string) gin.HandlerFunc {
		return middleware.Audit(userRepo, logr, action, resource, param)
	}

	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/metrics/summary", admin, metricsHandler.Snapshot)

	students := secured.Group("/students")
	students.GET("", studentHandler.List)
	students.POST("", admin, audit(models.AuditActionStudentCreate, "student", ""), studentHandler.Create)
	students.GET("/student/:admissionNo", studentHandler.Get)
	students.POST("/:admissionNo/photo", admin, audit(models.AuditActionPhotoUpload, "student", "admissionNo"), studentHandler.UploadPhoto)

	fees := secured.Group("/fees")
	fees.GET("", headingHandler.Names)
	fees.GET("/headings", headingHandler.List)
	fees.POST("/headings", admin, audit(models.AuditActionHeadingWrite, "fee_heading", ""), headingHandler.Create)
	fees.PUT("/headings/:id", admin, audit(models.AuditActionHeadingWrite, "fee_heading", "id"), headingHandler.Update)
	fees.DELETE("/headings/:id", admin, audit(models.AuditActionHeadingWrite, "fee_heading", "id"), headingHandler.Delete)
	fees.GET("/plans", planHandler.List)
	fees.POST("/plan", admin, audit(models.AuditActionPlanWrite, "fee_plan", ""), planHandler.Create)
	fees.PUT("/plans/:id", admin, audit(models.AuditActionPlanWrite, "fee_plan", "id"), planHandler.Update)
	fees.DELETE("/plans/:id", admin, audit(models.AuditActionPlanWrite, "fee_plan", "id"), planHandler.Delete)
	fees.GET("/pending", feeHandler.Pending)
	fees.POST("/apply", cashier, audit(models.AuditActionFeesApply, "fees_register", ""), feeHandler.Apply)
	fees.GET("/register", registerHandler.List)
	fees.POST("/register", cashier, audit(models.AuditActionRegisterEntry, "fees_register", ""), registerHandler.Record)
	fees.GET("/register/export", registerHandler.Export)
	fees.GET("/receipts/:recNo", registerHandler.Receipt)

	routes := secured.Group("/routes")
	routes.GET("", routeHandler.ListRoutes)
	routes.POST("", admin, audit(models.AuditActionRouteWrite, "route", ""), routeHandler.UpsertRoute)
	routes.GET("/plans", routeHandler.ListPlans)
	routes.POST("/plans", admin, audit(models.AuditActionRouteWrite, "route_plan", ""), routeHandler.UpsertPlan)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
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
