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
	"go.uber.org/zap"

	_ "github.com/nacca-sms/nacca-sms-api/api/swagger"
	"github.com/nacca-sms/nacca-sms-api/internal/handler"
	"github.com/nacca-sms/nacca-sms-api/internal/middleware"
	"github.com/nacca-sms/nacca-sms-api/internal/repository"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/cache"
	"github.com/nacca-sms/nacca-sms-api/pkg/config"
	"github.com/nacca-sms/nacca-sms-api/pkg/database"
	"github.com/nacca-sms/nacca-sms-api/pkg/export"
	"github.com/nacca-sms/nacca-sms-api/pkg/jobs"
	"github.com/nacca-sms/nacca-sms-api/pkg/logger"
)

// @title NaCCA School Management API
// @version 1.0.0
// @description School records, NaCCA grading, terminal reports, fees and the parent portal.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres %s: %w", database.Redacted(cfg.Database), err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	validate := validator.New()

	users := repository.NewUserRepository(db)
	parents := repository.NewParentRepository(db)
	students := repository.NewStudentRepository(db)
	staff := repository.NewStaffRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	classes := repository.NewClassRepository(db)
	subjects := repository.NewSubjectRepository(db)
	classSubjects := repository.NewClassSubjectRepository(db)
	assessments := repository.NewAssessmentRepository(db)
	reports := repository.NewReportRepository(db)
	fees := repository.NewFeeRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	terms := repository.NewTermRepository(db)
	counts := repository.NewDashboardRepository(db)
	audits := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	periods := service.NewTermService(terms, logr)
	branding := service.Branding{SchoolName: cfg.Reports.SchoolName, SchoolMotto: cfg.Reports.SchoolMotto}
	documents := export.NewDocumentRenderer()
	csvExporter := export.NewCSVExporter()
	pdfExporter := export.NewPDFExporter()

	var auditSvc *service.AuditService
	var auditQueue *jobs.Queue
	if cfg.Audit.Enabled {
		auditQueue = jobs.NewQueue("audit", func(ctx context.Context, job jobs.Job) error {
			return auditSvc.Handle(ctx, job)
		}, jobs.Config{
			Workers:    cfg.Audit.Workers,
			BufferSize: cfg.Audit.BufferSize,
			MaxRetries: cfg.Audit.MaxRetries,
			Logger:     logr,
		})
		auditSvc = service.NewAuditService(audits, auditQueue, logr)
		auditQueue.Start(ctx)
		defer auditQueue.Stop()
	} else {
		auditSvc = service.NewAuditService(audits, nil, logr)
	}

	authSvc := service.NewAuthService(users, parents, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(students, parents, enrollments, classes, users, periods, validate, logr)
	staffSvc := service.NewStaffService(staff, users, periods, validate, logr)
	classSvc := service.NewClassService(classes, subjects, classSubjects, enrollments, periods, validate, logr)
	assessmentSvc := service.NewAssessmentService(service.AssessmentServiceDeps{
		Assessments:   assessments,
		ClassSubjects: classSubjects,
		Classes:       classes,
		Rosters:       enrollments,
		Students:      students,
		Enrollments:   enrollments,
		Reports:       reports,
		Periods:       periods,
		Metrics:       metrics,
		Dashboards:    cacheSvc,
		Validator:     validate,
		Logger:        logr,
	})
	reportSvc := service.NewReportService(service.ReportServiceDeps{
		Reports:       reports,
		Assessments:   assessments,
		Attendance:    attendance,
		Classes:       classes,
		ClassSubjects: classSubjects,
		Rosters:       enrollments,
		Students:      students,
		Enrollments:   enrollments,
		Periods:       periods,
		Dashboards:    cacheSvc,
		Documents:     documents,
		CSV:           csvExporter,
		PDF:           pdfExporter,
		Branding:      branding,
		Logger:        logr,
	})
	feeSvc := service.NewFeeService(service.FeeServiceDeps{
		Fees:        fees,
		Classes:     classes,
		Rosters:     enrollments,
		Enrollments: enrollments,
		Periods:     periods,
		Metrics:     metrics,
		Dashboards:  cacheSvc,
		Documents:   documents,
		CSV:         csvExporter,
		PDF:         pdfExporter,
		Branding:    branding,
		Validator:   validate,
		Logger:      logr,
	})
	attendanceSvc := service.NewAttendanceService(attendance, classes, enrollments, periods, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Counts:        counts,
		Fees:          fees,
		Attendance:    attendance,
		Reports:       reports,
		Classes:       classes,
		ClassSubjects: classSubjects,
		Enrollments:   enrollments,
		Periods:       periods,
		Cache:         cacheSvc,
		CacheTTL:      cfg.Dashboard.CacheTTL,
		Logger:        logr,
	})
	parentSvc := service.NewParentService(service.ParentServiceDeps{
		Students:    students,
		Enrollments: enrollments,
		Fees:        fees,
		Reports:     reports,
		Attendance:  attendance,
		Assessments: assessments,
		Periods:     periods,
		Logger:      logr,
	})

	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginWindow)
	go loginLimiter.Run(ctx)

	router := newRouter(cfg, logr, routerDeps{
		tokens:       authSvc,
		metrics:      metrics,
		auditor:      middleware.NewAuditor(auditRecorder(cfg, auditSvc), logr),
		loginLimiter: loginLimiter,
		checks: map[string]handler.Pinger{
			"postgres": handler.PingFunc(db.PingContext),
			"redis":    handler.PingFunc(cacheRepo.Ping),
		},
		auth:       handler.NewAuthHandler(authSvc),
		students:   handler.NewStudentHandler(studentSvc),
		staff:      handler.NewStaffHandler(staffSvc),
		classes:    handler.NewClassHandler(classSvc),
		assessment: handler.NewAssessmentHandler(assessmentSvc),
		reports:    handler.NewReportHandler(reportSvc),
		fees:       handler.NewFeeHandler(feeSvc),
		attendance: handler.NewAttendanceHandler(attendanceSvc),
		dashboard:  handler.NewDashboardHandler(dashboardSvc),
		parent:     handler.NewParentHandler(parentSvc),
		audit:      handler.NewAuditHandler(auditSvc),
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

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logr.Info("server exited")
	return nil
}

func auditRecorder(cfg *config.Config, svc *service.AuditService) middleware.AuditRecorder {
	if !cfg.Audit.Enabled {
		return nil
	}
	return svc
}
