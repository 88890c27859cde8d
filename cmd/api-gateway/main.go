package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/edu-center-api/api/swagger"
	"github.com/noah-isme/edu-center-api/internal/handler"
	"github.com/noah-isme/edu-center-api/internal/middleware"
	"github.com/noah-isme/edu-center-api/internal/repository"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/pkg/cache"
	"github.com/noah-isme/edu-center-api/pkg/config"
	"github.com/noah-isme/edu-center-api/pkg/database"
	"github.com/noah-isme/edu-center-api/pkg/jobs"
	"github.com/noah-isme/edu-center-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-center-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-center-api/pkg/middleware/requestid"
	"github.com/noah-isme/edu-center-api/pkg/storage"
)

// @title Edu Center API
// @version 0.1.0
// @description Training center scheduling and profitability API
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Finance.CacheTTL, logr, redisClient != nil)

	courseRepo := repository.NewCourseRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	costRepo := repository.NewCostRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	rentalRepo := repository.NewRentalRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	financeRepo := repository.NewFinanceRepository(db)

	financeSvc := service.NewFinanceService(financeRepo, cacheSvc, metricsSvc, cfg.Finance.OverheadAllocation, cfg.Finance.CacheTTL, logr)
	courseSvc := service.NewCourseService(courseRepo, nil, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, nil, logr)
	classSvc := service.NewClassService(classRepo, courseRepo, catalogRepo, catalogRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, classRepo, nil, logr)
	walletSvc := service.NewWalletService(walletRepo, studentRepo, nil, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, classRepo, courseRepo, walletSvc, financeSvc, nil, logr)
	costSvc := service.NewCostService(costRepo, classRepo, financeSvc, nil, logr)
	sessionSvc := service.NewSessionService(sessionRepo, classRepo, nil, logr)
	rentalSvc := service.NewRentalService(rentalRepo, costRepo, catalogRepo, financeSvc, nil, logr)
	gradeSvc := service.NewGradeService(gradeRepo, financeRepo, nil, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	courseHandler := handler.NewCourseHandler(courseSvc)
	classHandler := handler.NewClassHandler(classSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, paymentSvc)
	costHandler := handler.NewCostHandler(costSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	walletHandler := handler.NewWalletHandler(walletSvc)
	rentalHandler := handler.NewRentalHandler(rentalSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	financeHandler := handler.NewFinanceHandler(financeSvc)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	api.GET("/courses", courseHandler.List)
	api.POST("/courses", courseHandler.Create)
	api.GET("/courses/:id", courseHandler.Get)
	api.PUT("/courses/:id", courseHandler.Update)
	api.DELETE("/courses/:id", courseHandler.Delete)

	api.GET("/classes", classHandler.List)
	api.POST("/classes", classHandler.Create)
	api.POST("/classes/preview-end-date", classHandler.PreviewEndDate)
	api.GET("/classes/:id", classHandler.Get)
	api.PUT("/classes/:id", classHandler.Update)
	api.GET("/classes/:id/end-date", classHandler.EndDate)
	api.PUT("/classes/:id/end-date", classHandler.OverrideEndDate)
	api.DELETE("/classes/:id", classHandler.Delete)
	api.POST("/classes/:id/sessions/generate", sessionHandler.Generate)
	api.GET("/classes/:id/sessions", sessionHandler.ListByClass)
	api.GET("/classes/:id/attendance-rate", sessionHandler.ClassAttendanceRate)
	api.GET("/classes/:id/grades", gradeHandler.ListByClass)

	api.PUT("/sessions/:id", sessionHandler.Update)
	api.POST("/sessions/:id/attendance", sessionHandler.RecordAttendance)
	api.GET("/sessions/:id/attendance", sessionHandler.Attendance)

	api.GET("/students", studentHandler.List)
	api.POST("/students", studentHandler.Create)
	api.GET("/students/:id", studentHandler.Get)
	api.POST("/students/:id/activate", studentHandler.Activate)
	api.POST("/students/:id/deactivate", studentHandler.Deactivate)
	api.DELETE("/students/:id", studentHandler.Deactivate)
	api.GET("/students/:id/grades", gradeHandler.ListByStudent)
	if cfg.Wallet.Enabled {
		api.GET("/students/:id/wallet", walletHandler.Balance)
		api.POST("/students/:id/wallet/topup", walletHandler.TopUp)
		api.POST("/students/:id/wallet/deduct", walletHandler.Deduct)
		api.GET("/students/:id/wallet/transactions", walletHandler.Transactions)
	}

	api.GET("/instructors", catalogHandler.ListInstructors)
	api.POST("/instructors", catalogHandler.CreateInstructor)
	api.GET("/instructors/:id", catalogHandler.GetInstructor)
	api.GET("/locations", catalogHandler.ListLocations)
	api.POST("/locations", catalogHandler.CreateLocation)
	api.GET("/locations/:id", catalogHandler.GetLocation)

	api.GET("/enrollments", enrollmentHandler.List)
	api.POST("/enrollments", enrollmentHandler.Enroll)
	api.GET("/enrollments/:id", enrollmentHandler.Get)
	api.POST("/enrollments/:id/cancel", enrollmentHandler.Cancel)
	api.POST("/enrollments/:id/complete", enrollmentHandler.Complete)
	api.POST("/enrollments/:id/payments", enrollmentHandler.RecordPayment)
	api.GET("/enrollments/:id/payments", enrollmentHandler.ListPayments)

	api.GET("/costs", costHandler.List)
	api.POST("/costs", costHandler.Record)
	api.DELETE("/costs/:id", costHandler.Delete)

	if cfg.Rentals.Enabled {
		api.GET("/rentals", rentalHandler.List)
		api.POST("/rentals", rentalHandler.Create)
		api.POST("/rentals/materialize", rentalHandler.MaterializeMonth)
		api.POST("/rentals/:id/terminate", rentalHandler.Terminate)
	}

	api.POST("/grades", gradeHandler.Record)
	api.GET("/reports/pass-rates", gradeHandler.PassRates)

	api.GET("/finance/profit", financeHandler.AllClassesProfit)
	api.GET("/finance/classes/:id/profit", financeHandler.ClassProfit)
	api.GET("/finance/summary", financeHandler.PeriodReport)
	api.GET("/finance/reconcile", financeHandler.Reconcile)

	api.GET("/metrics/snapshot", metricsHandler.Snapshot)

	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportRepo := repository.NewReportRepository(db)
		exportSvc := service.NewExportService(financeSvc, gradeSvc, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)
		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)

		reportSvc := service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)

		reportHandler := handler.NewReportHandler(reportSvc)
		api.POST("/reports", reportHandler.Create)
		api.GET("/reports/:id", reportHandler.Status)
		api.GET("/export/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
