package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/config"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compliance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
)

// ComplianceJobs holds the background work that keeps SLAs, calendars and
// the audit chain honest without a caller.
type ComplianceJobs struct {
	leave      leave.Service
	calendar   calendar.Service
	audit      audit.Service
	compliance compliance.Service
	clock      func() time.Time
}

func NewComplianceJobs(
	leaveService leave.Service,
	calendarService calendar.Service,
	auditService audit.Service,
	complianceService compliance.Service,
) *ComplianceJobs {
	return &ComplianceJobs{
		leave:      leaveService,
		calendar:   calendarService,
		audit:      auditService,
		compliance: complianceService,
		clock:      time.Now,
	}
}

func (j *ComplianceJobs) RegisterJobs(scheduler *Scheduler, cfg config.CronConfig) {
	scheduler.AddJob("sweep_leave_escalations", cfg.EscalationSweepInterval, j.SweepLeaveEscalations)
	scheduler.AddJob("refresh_public_holidays", cfg.HolidayRefreshInterval, j.RefreshPublicHolidays)
	scheduler.AddJob("verify_audit_chains", cfg.AuditVerifyInterval, j.VerifyAuditChains)
}

func (j *ComplianceJobs) SweepLeaveEscalations(ctx context.Context) error {
	result, err := j.leave.SweepEscalations(ctx, j.clock().UTC())
	if err != nil {
		return err
	}
	if len(result.Escalated) > 0 || result.Failed > 0 {
		slog.Info("Cron: leave escalation sweep finished",
			"escalated", len(result.Escalated),
			"awaiting_terminal_review", len(result.AwaitingTerminalReview),
			"retried_conflicts", result.RetriedConflicts,
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d leave requests failed to escalate", result.Failed)
	}
	return nil
}

// RefreshPublicHolidays keeps the current year fresh, and the next one from
// December on so January payroll has its holidays in place. A failure for
// one year does not stop the other.
func (j *ComplianceJobs) RefreshPublicHolidays(ctx context.Context) error {
	now := j.clock().UTC()
	years := []int{now.Year()}
	if now.Month() == time.December {
		years = append(years, now.Year()+1)
	}

	var errs []error
	for _, year := range years {
		if err := j.calendar.RefreshAllCompanies(ctx, year); err != nil {
			errs = append(errs, fmt.Errorf("year %d: %w", year, err))
		}
	}
	return errors.Join(errs...)
}

func (j *ComplianceJobs) VerifyAuditChains(ctx context.Context) error {
	companyIDs, err := j.audit.ListCompanies(ctx)
	if err != nil {
		return err
	}

	broken := 0
	var errs []error
	for _, companyID := range companyIDs {
		err := j.compliance.RequireIntact(ctx, companyID)
		switch {
		case err == nil:
		case errors.Is(err, audit.ErrChainBroken):
			broken++
			slog.Error("Cron: audit chain failed verification", "company_id", companyID, "error", err)
		default:
			errs = append(errs, fmt.Errorf("company %s: %w", companyID, err))
		}
	}
	if broken > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d companies", audit.ErrChainBroken, broken, len(companyIDs)))
	}
	return errors.Join(errs...)
}
