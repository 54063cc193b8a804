package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Env            string
	Version        string
	AllowedOrigins []string
	LogLevel       slog.Level
}

type Handlers struct {
	Payroll      PayrollHandler
	Leave        LeaveHandler
	Attendance   AttendanceHandler
	Compensation CompensationHandler
	Calendar     CalendarHandler
	Audit        AuditHandler
	Compliance   ComplianceHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-compliance-engine"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/payroll/{year}/{month}", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", h.Payroll.List)
				r.With(middleware.RequirePermission(user.PermissionPayrollProcess)).Post("/", h.Payroll.Calculate)
				r.With(middleware.RequirePermission(user.PermissionPayrollProcess)).Post("/process", h.Payroll.Process)
				r.With(middleware.RequirePermission(user.PermissionPayrollApprove)).Post("/approve", h.Payroll.Approve)
				r.With(middleware.RequirePermission(user.PermissionPayrollPay)).Post("/pay", h.Payroll.MarkPaid)
			})

			r.Route("/leave-requests", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionLeaveCreate)).Post("/", h.Leave.Submit)
				r.With(middleware.RequirePermission(user.PermissionLeaveViewAll)).Get("/", h.Leave.List)
				r.With(middleware.RequirePermission(user.PermissionLeaveViewAll)).Get("/{id}", h.Leave.Get)
				r.With(middleware.RequirePermission(user.PermissionLeaveApprove)).Post("/{id}/decision", h.Leave.Decide)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionAttendanceRecord)).Put("/", h.Attendance.Record)
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).Get("/", h.Attendance.List)
			})

			r.Route("/compensation", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionCompensationManage)).Post("/profiles", h.Compensation.CreateProfile)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionCompensationView))
					r.Get("/employees/{employeeID}/profiles", h.Compensation.ListHistory)
					r.Get("/employees/{employeeID}/active", h.Compensation.ActiveProfile)
				})
			})

			r.Route("/calendar", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionCalendarView))
					r.Get("/settings", h.Calendar.GetSettings)
					r.Get("/{year}", h.Calendar.GetYear)
					r.Get("/{year}/{month}/working-days", h.Calendar.WorkingDays)
				})
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionCalendarManage))
					r.Put("/settings", h.Calendar.UpdateSettings)
					r.Post("/holidays", h.Calendar.AddHoliday)
					r.Delete("/holidays/{date}", h.Calendar.RemoveHoliday)
					r.Post("/blocked-dates", h.Calendar.AddBlockedDate)
					r.Delete("/blocked-dates/{date}", h.Calendar.RemoveBlockedDate)
					r.Post("/{year}/refresh", h.Calendar.Refresh)
				})
			})

			r.Route("/audit", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionAuditView))
				r.Get("/entries", h.Audit.List)
				r.Get("/verify", h.Audit.Verify)
				r.Get("/export", h.Audit.Export)
			})

			r.With(middleware.RequirePermission(user.PermissionComplianceView)).Get("/compliance/dashboard", h.Compliance.Dashboard)
		})
	})

	return r
}
