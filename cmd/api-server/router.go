package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/handler"
	"github.com/nacca-sms/nacca-sms-api/internal/middleware"
	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/config"
	"github.com/nacca-sms/nacca-sms-api/pkg/logger"
	corsmiddleware "github.com/nacca-sms/nacca-sms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nacca-sms/nacca-sms-api/pkg/middleware/requestid"
)

type routerDeps struct {
	tokens       middleware.TokenValidator
	metrics      *service.MetricsService
	auditor      *middleware.Auditor
	loginLimiter *middleware.RateLimiter
	checks       map[string]handler.Pinger

	auth       *handler.AuthHandler
	students   *handler.StudentHandler
	staff      *handler.StaffHandler
	classes    *handler.ClassHandler
	assessment *handler.AssessmentHandler
	reports    *handler.ReportHandler
	fees       *handler.FeeHandler
	attendance *handler.AttendanceHandler
	dashboard  *handler.DashboardHandler
	parent     *handler.ParentHandler
	audit      *handler.AuditHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))
	r.Use(middleware.BodyLimit(cfg.Uploads.MaxBytes))
	r.Use(middleware.WithResponseMeta())

	ops := handler.NewMetricsHandler(d.metrics, d.checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	audit := d.auditor.Record

	public := api.Group("/auth")
	public.Use(d.loginLimiter.Middleware())
	public.POST("/login", d.auth.Login)
	public.POST("/parent-login", d.auth.ParentLogin)
	public.POST("/forgot-password", d.auth.ForgotPassword)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.tokens))

	secured.GET("/auth/me", d.auth.Me)
	secured.POST("/auth/change-password", audit(models.AuditActionPasswordChange, "user", ""), d.auth.ChangePassword)

	secured.GET("/dashboard", d.dashboard.Get)

	students := secured.Group("/students")
	students.GET("", middleware.StaffOnly(), d.students.List)
	students.GET("/search", d.students.Search)
	students.GET("/:id", d.students.Get)
	students.POST("", middleware.AdminOnly(), audit(models.AuditActionStudentCreate, "student", ""), d.students.Create)
	students.PUT("/:id", middleware.AdminOnly(), audit(models.AuditActionStudentUpdate, "student", "id"), d.students.Update)
	students.POST("/:id/enroll", middleware.AdminOnly(), audit(models.AuditActionStudentEnroll, "student", "id"), d.students.Enroll)
	students.POST("/:id/status", middleware.AdminOnly(), audit(models.AuditActionStudentStatus, "student", "id"), d.students.UpdateStatus)
	students.POST("/:id/parent-account", middleware.AdminOnly(), audit(models.AuditActionParentAccount, "student", "id"), d.students.ParentAccount)

	staff := secured.Group("/staff")
	staff.GET("", middleware.StaffOnly(), d.staff.List)
	staff.GET("/:id", middleware.StaffOnly(), d.staff.Get)
	staff.POST("", middleware.AdminOnly(), audit(models.AuditActionStaffCreate, "staff", ""), d.staff.Create)
	staff.PUT("/:id", middleware.AdminOnly(), audit(models.AuditActionStaffUpdate, "staff", "id"), d.staff.Update)
	staff.POST("/:id/toggle-status", middleware.AdminOnly(), audit(models.AuditActionStaffToggle, "staff", "id"), d.staff.ToggleStatus)

	secured.GET("/departments", middleware.StaffOnly(), d.staff.Departments)
	secured.POST("/departments", middleware.AdminOnly(), d.staff.CreateDepartment)

	classes := secured.Group("/classes")
	classes.GET("", d.classes.List)
	classes.GET("/:id", d.classes.Get)
	classes.GET("/:id/subjects", middleware.TeacherOnly(), d.assessment.ClassSubjectsForClass)
	classes.POST("", middleware.AdminOnly(), d.classes.Create)
	classes.PUT("/:id", middleware.AdminOnly(), d.classes.Update)
	classes.POST("/:id/subjects", middleware.AdminOnly(), audit(models.AuditActionClassSubjectsAssign, "class", "id"), d.classes.AssignSubjects)

	secured.GET("/subjects", d.classes.Subjects)
	secured.POST("/subjects", middleware.AdminOnly(), d.classes.CreateSubject)

	secured.GET("/assessments/scale", d.assessment.Scale)
	assessments := secured.Group("/assessments")
	assessments.Use(middleware.TeacherOnly())
	assessments.GET("", d.assessment.ClassSubjects)
	assessments.GET("/entry/:classSubjectId", d.assessment.EntrySheet)
	assessments.POST("/save", audit(models.AuditActionScoresSave, "class_subject", ""), d.assessment.SaveScores)
	assessments.POST("/calculate-grade", d.assessment.CalculateGrade)
	assessments.GET("/class/:classId", d.assessment.ClassMatrix)
	assessments.GET("/student/:studentId", d.assessment.StudentSummary)

	reports := secured.Group("/reports")
	reports.GET("/terminal", middleware.TeacherOnly(), d.reports.Summaries)
	reports.POST("/terminal/:classId/generate", middleware.TeacherOnly(), audit(models.AuditActionReportsGenerate, "class", "classId"), d.reports.Generate)
	reports.POST("/terminal/:classId/publish", middleware.TeacherOnly(), audit(models.AuditActionReportsPublish, "class", "classId"), d.reports.Publish)
	reports.GET("/terminal/:studentId/:termId", d.reports.ReportCard)
	reports.GET("/terminal/:studentId/:termId/pdf", d.reports.ReportCardPDF)
	reports.GET("/broadsheet/:classId", middleware.TeacherOnly(), d.reports.Broadsheet)

	fees := secured.Group("/fees")
	fees.GET("/categories", middleware.AccountsOnly(), d.fees.Categories)
	fees.POST("/categories", middleware.AdminOnly(), d.fees.CreateCategory)
	fees.GET("/structures", middleware.AccountsOnly(), d.fees.Structures)
	fees.POST("/structures", middleware.AdminOnly(), d.fees.CreateStructure)
	fees.POST("/invoices/generate", middleware.AccountsOnly(), audit(models.AuditActionInvoicesGenerate, "invoice", ""), d.fees.GenerateInvoices)
	fees.GET("/invoices", middleware.AccountsOnly(), d.fees.Invoices)
	fees.GET("/invoices/:id", middleware.AccountsOnly(), d.fees.Invoice)
	fees.GET("/invoices/:id/pdf", d.fees.InvoicePDF)
	fees.POST("/payments", middleware.AccountsOnly(), audit(models.AuditActionPaymentRecord, "payment", ""), d.fees.RecordPayment)
	fees.GET("/payments", middleware.AccountsOnly(), d.fees.Payments)
	fees.GET("/debtors", middleware.AccountsOnly(), d.fees.Debtors)

	attendance := secured.Group("/attendance")
	attendance.Use(middleware.TeacherOnly())
	attendance.GET("/:classId", d.attendance.Register)
	attendance.POST("/:classId", audit(models.AuditActionAttendanceRecord, "class", "classId"), d.attendance.Record)

	parent := secured.Group("/parent")
	parent.Use(middleware.ParentOnly())
	parent.GET("", d.parent.Home)
	parent.GET("/children/:id", d.parent.Child)
	parent.GET("/children/:id/results", d.parent.Results)
	parent.GET("/children/:id/fees", d.parent.Fees)
	parent.GET("/children/:id/attendance", d.parent.Attendance)

	system := secured.Group("/system")
	system.Use(middleware.AdminOnly())
	system.GET("/metrics", ops.System)
	system.GET("/audit-logs", d.audit.Recent)

	return r
}
