package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/config"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compensation"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/email"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/holidays"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/postgresql"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/attendance"
	auditService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/audit"
	calendarService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/calendar"
	compensationService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/compensation"
	complianceService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/compliance"
	leaveService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/leave"
	payrollService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/payroll"
)

const version = "v1.0.0"

// repositories is the storage backend chosen by STORAGE_DRIVER.
type repositories struct {
	tx           database.Transactor
	audit        audit.Repository
	calendar     calendar.Repository
	attendance   attendance.Repository
	compensation compensation.Repository
	leave        leave.Repository
	payroll      payroll.Repository
	close        func()
}

func openPostgres(ctx context.Context, cfg *config.Config) (*repositories, error) {
	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := postgresql.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	return &repositories{
		tx:           postgresql.NewTransactor(db),
		audit:        postgresql.NewAuditRepository(db),
		calendar:     postgresql.NewCalendarRepository(db),
		attendance:   postgresql.NewAttendanceRepository(db),
		compensation: postgresql.NewCompensationRepository(db),
		leave:        postgresql.NewLeaveRequestRepository(db),
		payroll:      postgresql.NewPayrollRepository(db),
		close:        db.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config) (*repositories, error) {
	db, err := database.NewSQLiteDB(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return &repositories{
		tx:           sqlite.NewTransactor(db),
		audit:        sqlite.NewAuditRepository(db),
		calendar:     sqlite.NewCalendarRepository(db),
		attendance:   sqlite.NewAttendanceRepository(db),
		compensation: sqlite.NewCompensationRepository(db),
		leave:        sqlite.NewLeaveRequestRepository(db),
		payroll:      sqlite.NewPayrollRepository(db),
		close:        func() { db.Close() },
	}, nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", "payroll-compliance-engine"),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repos *repositories
	switch cfg.Storage.Driver {
	case config.StorageDriverSQLite:
		repos, err = openSQLite(ctx, cfg)
	default:
		repos, err = openPostgres(ctx, cfg)
	}
	if err != nil {
		return err
	}
	defer repos.close()
	slog.Info("Storage ready", "driver", cfg.Storage.Driver)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return err
	}
	notifier, err := email.NewEscalationNotifier(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to initialize email notifier: %w", err)
	}

	auditSvc := auditService.NewAuditService(repos.tx, repos.audit)
	calendarSvc := calendarService.NewCalendarService(repos.tx, repos.calendar, holidays.NewClient(cfg.Calendar), calendar.Settings{
		CountryCode: cfg.Calendar.DefaultCountryCode,
		Weekend:     cfg.Calendar.DefaultWeekend,
	})
	attendanceSvc := attendanceService.NewAttendanceService(repos.attendance, calendarSvc)
	compensationSvc := compensationService.NewCompensationService(repos.tx, repos.compensation, auditSvc)
	submitRules, err := leave.NewSubmitRules(cfg.Leave.NoticeDays, cfg.Leave.MaxConsecutiveDays)
	if err != nil {
		return fmt.Errorf("invalid leave rules: %w", err)
	}
	leaveSvc := leaveService.NewLeaveService(repos.tx, repos.leave, auditSvc, calendarSvc, notifier, leave.SLAPolicy{
		Level1: cfg.Escalation.Level1SLA,
		Level2: cfg.Escalation.Level2SLA,
		Level3: cfg.Escalation.Level3SLA,
	}, submitRules)
	payrollSvc := payrollService.NewPayrollService(repos.tx, repos.payroll, calendarSvc, attendanceSvc,
		compensationSvc, leaveSvc, auditSvc, cfg.Payroll)
	complianceSvc := complianceService.NewComplianceService(auditSvc, leaveSvc)

	scheduler := cron.NewScheduler(ctx)
	cron.NewComplianceJobs(leaveSvc, calendarSvc, auditSvc, complianceSvc).RegisterJobs(scheduler, cfg.Cron)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Env:            cfg.App.Env,
		Version:        version,
		AllowedOrigins: cfg.App.AllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
	}, JWTService, appHTTP.Handlers{
		Payroll:      appHTTP.NewPayrollHandler(payrollSvc),
		Leave:        appHTTP.NewLeaveHandler(leaveSvc),
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
		Compensation: appHTTP.NewCompensationHandler(compensationSvc),
		Calendar:     appHTTP.NewCalendarHandler(calendarSvc),
		Audit:        appHTTP.NewAuditHandler(auditSvc),
		Compliance:   appHTTP.NewComplianceHandler(complianceSvc),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
