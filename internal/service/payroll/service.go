package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/config"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compensation"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

type PayrollServiceImpl struct {
	tx            database.Transactor
	repo          payroll.Repository
	calendar      calendar.Service
	attendance    attendance.Service
	compensation  compensation.Service
	leave         leave.Service
	audit         audit.Service
	lateGraceDays int
	clock         func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	repo payroll.Repository,
	calendarService calendar.Service,
	attendanceService attendance.Service,
	compensationService compensation.Service,
	leaveService leave.Service,
	auditService audit.Service,
	cfg config.PayrollConfig,
) payroll.Service {
	return &PayrollServiceImpl{
		tx:            tx,
		repo:          repo,
		calendar:      calendarService,
		attendance:    attendanceService,
		compensation:  compensationService,
		leave:         leaveService,
		audit:         auditService,
		lateGraceDays: cfg.LateGraceDays,
		clock:         time.Now,
	}
}

func validatePeriod(p payroll.Period) error {
	if !validator.IsValidYear(p.Year) || !validator.IsValidMonth(int(p.Month)) {
		return payroll.ErrInvalidPeriod
	}
	return nil
}

// Calculate implements payroll.Service.
func (s *PayrollServiceImpl) Calculate(ctx context.Context, companyID string, period payroll.Period) (payroll.Result, error) {
	if err := validatePeriod(period); err != nil {
		return payroll.Result{}, err
	}

	var result payroll.Result
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		result, err = s.calculate(txCtx, companyID, period)
		return err
	})
	if err != nil {
		return payroll.Result{}, err
	}

	slog.Info("Payroll calculated",
		"company_id", companyID,
		"period", period.String(),
		"employees", len(result.Records),
		"total_net", result.Summary.TotalNet,
	)
	return result, nil
}

// calculate prices every employee that has ever had a compensation profile
// and stores the figures. It must run inside a transaction.
func (s *PayrollServiceImpl) calculate(ctx context.Context, companyID string, period payroll.Period) (payroll.Result, error) {
	finalized, err := s.repo.CountFinalized(ctx, companyID, period)
	if err != nil {
		return payroll.Result{}, err
	}
	if finalized > 0 {
		return payroll.Result{}, payroll.ErrAlreadyFinalized
	}

	month, err := s.calendar.MonthView(ctx, companyID, period.Year, period.Month)
	if err != nil {
		return payroll.Result{}, fmt.Errorf("failed to resolve working days: %w", err)
	}
	first, last := period.Bounds()

	employeeIDs, err := s.compensation.ListEmployeeIDs(ctx, companyID)
	if err != nil {
		return payroll.Result{}, err
	}
	profiles, err := s.compensation.ListActiveForCompany(ctx, companyID, last)
	if err != nil {
		return payroll.Result{}, err
	}
	profileByEmployee := make(map[string]compensation.Profile, len(profiles))
	for _, p := range profiles {
		profileByEmployee[p.EmployeeID] = p
	}

	days, err := s.attendance.DaysBetween(ctx, companyID, first, last)
	if err != nil {
		return payroll.Result{}, err
	}
	daysByEmployee := make(map[string][]attendance.Day)
	for _, d := range days {
		daysByEmployee[d.EmployeeID] = append(daysByEmployee[d.EmployeeID], d)
	}

	approved, err := s.leave.ApprovedBetween(ctx, companyID, first, last)
	if err != nil {
		return payroll.Result{}, err
	}
	leaveByEmployee := make(map[string][]leave.Request)
	for _, r := range approved {
		leaveByEmployee[r.EmployeeID] = append(leaveByEmployee[r.EmployeeID], r)
	}

	records := make([]payroll.Record, 0, len(employeeIDs))
	for _, employeeID := range employeeIDs {
		in := payroll.Input{
			CompanyID:     companyID,
			EmployeeID:    employeeID,
			Month:         month,
			Days:          daysByEmployee[employeeID],
			ApprovedLeave: leaveByEmployee[employeeID],
			LateGraceDays: s.lateGraceDays,
		}
		if p, ok := profileByEmployee[employeeID]; ok {
			in.Profile = &p
		}

		stored, err := s.repo.Upsert(ctx, payroll.Calculate(in))
		if err != nil {
			return payroll.Result{}, err
		}
		records = append(records, stored)
	}

	return s.result(companyID, period, month, records), nil
}

func (s *PayrollServiceImpl) result(companyID string, period payroll.Period, month calendar.MonthView, records []payroll.Record) payroll.Result {
	return payroll.Result{
		Records: records,
		Summary: payroll.Summarize(records),
		Metadata: payroll.Metadata{
			CompanyID:     companyID,
			Period:        period.String(),
			WorkingDays:   month.WorkingDays(),
			Holidays:      month.Holidays(),
			Weekends:      month.Weekends(),
			TotalDays:     month.TotalDays(),
			LateGraceDays: s.lateGraceDays,
			Status:        payroll.RunStatus(records),
			CalculatedAt:  s.clock().UTC(),
		},
	}
}

// Process recalculates the period and moves every draft to processed. A
// period that is already processed is left as is and gets no new audit entry.
func (s *PayrollServiceImpl) Process(ctx context.Context, companyID, actorID string, period payroll.Period) (payroll.Result, error) {
	if err := validatePeriod(period); err != nil {
		return payroll.Result{}, err
	}

	var result payroll.Result
	var moved int
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		calculated, err := s.calculate(txCtx, companyID, period)
		if err != nil {
			return err
		}
		if len(calculated.Records) == 0 {
			return payroll.ErrNoRecords
		}

		moved, err = s.transition(txCtx, companyID, actorID, calculated.Records, payroll.StatusDraft, payroll.StatusProcessed)
		if err != nil {
			return err
		}
		if moved > 0 {
			if err := s.appendRunEntry(txCtx, companyID, actorID, period, audit.ActionPayrollProcessed, payroll.StatusProcessed, moved); err != nil {
				return err
			}
		}

		result, err = s.reload(txCtx, companyID, period)
		return err
	})
	if err != nil {
		s.logConflict(err, "process", companyID, period)
		return payroll.Result{}, err
	}

	slog.Info("Payroll processed",
		"company_id", companyID,
		"period", period.String(),
		"actor_id", actorID,
		"transitioned", moved,
	)
	return result, nil
}

// Approve moves a fully processed period to approved.
func (s *PayrollServiceImpl) Approve(ctx context.Context, companyID, actorID string, period payroll.Period) (payroll.Result, error) {
	return s.advance(ctx, companyID, actorID, period, payroll.StatusProcessed, payroll.StatusApproved, audit.ActionPayrollApproved)
}

// MarkPaid moves a fully approved period to paid.
func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, companyID, actorID string, period payroll.Period) (payroll.Result, error) {
	return s.advance(ctx, companyID, actorID, period, payroll.StatusApproved, payroll.StatusPaid, audit.ActionPayrollPaid)
}

func (s *PayrollServiceImpl) advance(ctx context.Context, companyID, actorID string, period payroll.Period, from, to payroll.Status, action audit.Action) (payroll.Result, error) {
	if err := validatePeriod(period); err != nil {
		return payroll.Result{}, err
	}

	var result payroll.Result
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		records, err := s.repo.ListByPeriod(txCtx, companyID, period)
		if err != nil {
			return err
		}
		if err := checkAdvance(records, from, to); err != nil {
			return err
		}

		moved, err := s.transition(txCtx, companyID, actorID, records, from, to)
		if err != nil {
			return err
		}
		if err := s.appendRunEntry(txCtx, companyID, actorID, period, action, to, moved); err != nil {
			return err
		}

		result, err = s.reload(txCtx, companyID, period)
		return err
	})
	if err != nil {
		s.logConflict(err, string(to), companyID, period)
		return payroll.Result{}, err
	}

	slog.Info("Payroll status advanced",
		"company_id", companyID,
		"period", period.String(),
		"actor_id", actorID,
		"status", to,
	)
	return result, nil
}

// checkAdvance requires every record to sit exactly at from.
func checkAdvance(records []payroll.Record, from, to payroll.Status) error {
	if len(records) == 0 {
		return payroll.ErrNoRecords
	}
	for _, r := range records {
		switch {
		case r.Status == payroll.StatusPaid:
			return payroll.ErrAlreadyPaid
		case r.Status.IsFinalized() && to == payroll.StatusApproved:
			return payroll.ErrAlreadyFinalized
		}
	}
	for _, r := range records {
		if r.Status != from {
			if to == payroll.StatusPaid {
				return payroll.ErrNotApproved
			}
			return payroll.ErrNotProcessed
		}
	}
	return nil
}

// transition applies from -> to on every record currently at from, each
// guarded by its version.
func (s *PayrollServiceImpl) transition(ctx context.Context, companyID, actorID string, records []payroll.Record, from, to payroll.Status) (int, error) {
	now := s.clock().UTC()
	moved := 0
	for _, r := range records {
		if r.Status != from {
			continue
		}
		err := s.repo.UpdateStatus(ctx, companyID, payroll.Transition{
			RecordID:        r.ID,
			ExpectedVersion: r.Version,
			From:            from,
			To:              to,
			By:              actorID,
			At:              now,
		})
		if err != nil {
			return 0, err
		}
		moved++
	}
	return moved, nil
}

func (s *PayrollServiceImpl) appendRunEntry(ctx context.Context, companyID, actorID string, period payroll.Period, action audit.Action, status payroll.Status, records int) error {
	decision := string(status)
	reason := fmt.Sprintf("%d records", records)
	_, err := s.audit.Append(ctx, audit.AppendRequest{
		CompanyID:  companyID,
		ActorID:    actorID,
		Action:     action,
		EntityType: audit.EntityPayrollRun,
		EntityID:   period.String(),
		Decision:   &decision,
		Reason:     &reason,
	})
	return err
}

func (s *PayrollServiceImpl) reload(ctx context.Context, companyID string, period payroll.Period) (payroll.Result, error) {
	records, err := s.repo.ListByPeriod(ctx, companyID, period)
	if err != nil {
		return payroll.Result{}, err
	}
	month, err := s.calendar.MonthView(ctx, companyID, period.Year, period.Month)
	if err != nil {
		return payroll.Result{}, fmt.Errorf("failed to resolve working days: %w", err)
	}
	return s.result(companyID, period, month, records), nil
}

// List returns the stored records without recalculating.
func (s *PayrollServiceImpl) List(ctx context.Context, companyID string, period payroll.Period) (payroll.Result, error) {
	if err := validatePeriod(period); err != nil {
		return payroll.Result{}, err
	}
	return s.reload(ctx, companyID, period)
}

func (s *PayrollServiceImpl) logConflict(err error, op, companyID string, period payroll.Period) {
	if errors.Is(err, payroll.ErrVersionConflict) {
		slog.Warn("Payroll transition lost a concurrent update",
			"company_id", companyID,
			"period", period.String(),
			"operation", op,
		)
	}
}
