package payroll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/config"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compensation"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite/sqlitetest"
	attendanceService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/attendance"
	auditService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/audit"
	calendarService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/calendar"
	compensationService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/compensation"
	leaveService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyID = "company-a"

// March 2026 with a Sunday-only weekend has 26 working days.
var march2026 = payroll.Period{Year: 2026, Month: time.March}

type noSource struct{}

func (noSource) PublicHolidays(context.Context, string, int) ([]calendar.PublicHoliday, error) {
	return nil, nil
}

type noNotifier struct{}

func (noNotifier) NotifyEscalation(context.Context, leave.EscalationNotice) error { return nil }

type fixture struct {
	svc          *PayrollServiceImpl
	audit        audit.Service
	calendar     calendar.Service
	attendance   attendance.Service
	compensation compensation.Service
	leave        leave.Service
}

func newFixture(t *testing.T) *fixture {
	db := sqlitetest.NewTestDB(t)
	tx := sqlite.NewTransactor(db)

	f := &fixture{}
	f.audit = auditService.NewAuditService(tx, sqlite.NewAuditRepository(db))
	f.calendar = calendarService.NewCalendarService(tx, sqlite.NewCalendarRepository(db), noSource{},
		calendar.Settings{CountryCode: "IN", Weekend: []time.Weekday{time.Sunday}})
	f.attendance = attendanceService.NewAttendanceService(sqlite.NewAttendanceRepository(db), f.calendar)
	f.compensation = compensationService.NewCompensationService(tx, sqlite.NewCompensationRepository(db), f.audit)
	f.leave = leaveService.NewLeaveService(tx, sqlite.NewLeaveRequestRepository(db), f.audit, f.calendar,
		noNotifier{}, leave.DefaultSLAPolicy, leave.SubmitRules{})
	f.svc = NewPayrollService(tx, sqlite.NewPayrollRepository(db), f.calendar, f.attendance, f.compensation,
		f.leave, f.audit, config.PayrollConfig{LateGraceDays: 3}).(*PayrollServiceImpl)
	f.svc.clock = func() time.Time { return time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) profile(t *testing.T, employeeID, effectiveFrom string, base int64, pfRate string) {
	_, err := f.compensation.CreateProfile(context.Background(), companyID, "hr-1", compensation.CreateProfileRequest{
		EmployeeID:    employeeID,
		EffectiveFrom: effectiveFrom,
		BaseSalary:    base,
		PFRate:        decimal.RequireFromString(pfRate),
	})
	require.NoError(t, err)
}

func (f *fixture) record(t *testing.T, employeeID, date, status string, leaveType *string) {
	_, err := f.attendance.RecordDay(context.Background(), companyID, attendance.RecordDayRequest{
		EmployeeID: employeeID,
		Date:       date,
		Status:     status,
		LeaveType:  leaveType,
	})
	require.NoError(t, err)
}

func (f *fixture) payrollEntries(t *testing.T) []audit.Entry {
	entries, err := f.audit.Export(context.Background(), companyID)
	require.NoError(t, err)
	var out []audit.Entry
	for _, e := range entries {
		if e.EntityType == audit.EntityPayrollRun {
			out = append(out, e)
		}
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestCalculate_UnpaidLeaveScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.profile(t, "emp-1", "2026-01-01", 30000, "12")
	f.record(t, "emp-1", "2026-03-02", "on_leave", strPtr("unpaid"))
	f.record(t, "emp-1", "2026-03-03", "on_leave", strPtr("unpaid"))
	f.record(t, "emp-1", "2026-03-04", "present", nil)

	result, err := f.svc.Calculate(ctx, companyID, march2026)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, 26, rec.WorkingDays)
	assert.Equal(t, payroll.Tally{Present: 1, UnpaidLeave: 2}, rec.Tally)
	assert.Equal(t, int64(1153), rec.PerDaySalary)
	assert.Equal(t, int64(2306), rec.Deductions.LOP)
	assert.Equal(t, int64(3600), rec.Deductions.PF)
	assert.Equal(t, int64(5906), rec.Deductions.Total)
	assert.Equal(t, int64(24094), rec.NetSalary)
	assert.Equal(t, payroll.StatusDraft, rec.Status)
	assert.Equal(t, 1, rec.Version)

	assert.Equal(t, 1, result.Summary.TotalEmployees)
	assert.Equal(t, int64(24094), result.Summary.AverageNet)
	assert.Equal(t, 26, result.Metadata.WorkingDays)
	assert.Equal(t, "2026-03", result.Metadata.Period)
	assert.Equal(t, payroll.StatusDraft, result.Metadata.Status)

	assert.Empty(t, f.payrollEntries(t), "calculate must not write to the audit chain")
}

func TestCalculate_RecalculationOverwritesDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.profile(t, "emp-1", "2026-01-01", 30000, "12")

	first, err := f.svc.Calculate(ctx, companyID, march2026)
	require.NoError(t, err)
	require.Len(t, first.Records, 1)
	assert.Equal(t, int64(26400), first.Records[0].NetSalary)

	f.record(t, "emp-1", "2026-03-09", "absent", nil)

	second, err := f.svc.Calculate(ctx, companyID, march2026)
	require.NoError(t, err)
	require.Len(t, second.Records, 1)
	assert.Equal(t, first.Records[0].ID, second.Records[0].ID)
	assert.Equal(t, 1, second.Records[0].Tally.Absent)
	assert.Equal(t, int64(26400-1153), second.Records[0].NetSalary)
	assert.Equal(t, 2, second.Records[0].Version)
}

func TestCalculate_ApprovedLeaveFillsWorkingDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.profile(t, "emp-1", "2026-01-01", 26000, "0")
	f.record(t, "emp-1", "2026-03-10", "absent", nil)
	f.record(t, "emp-1", "2026-03-12", "present", nil)

	submitted, err := f.leave.Submit(ctx, companyID, "emp-1", leave.SubmitRequest{
		EmployeeID: "emp-1",
		LeaveType:  "sick",
		StartDate:  "2026-03-10",
		EndDate:    "2026-03-12",
	})
	require.NoError(t, err)
	_, err = f.leave.Decide(ctx, companyID, submitted.ID, "mgr-1", leave.DecideRequest{Decision: "approve"})
	require.NoError(t, err)

	result, err := f.svc.Calculate(ctx, companyID, march2026)
	require.NoError(t, err)

	rec := result.Records[0]
	assert.Equal(t, payroll.Tally{Present: 1, PaidLeave: 2}, rec.Tally)
	assert.Zero(t, rec.Deductions.LOP)
	assert.Equal(t, int64(26000), rec.NetSalary)
}

func TestCalculate_EmployeeWithoutActiveProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.profile(t, "emp-1", "2026-01-01", 30000, "12")
	f.profile(t, "emp-2", "2026-04-01", 50000, "12")

	result, err := f.svc.Calculate(ctx, companyID, march2026)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	late := result.Records[1]
	assert.Equal(t, "emp-2", late.EmployeeID)
	assert.True(t, late.IsZero())
	assert.Zero(t, late.GrossSalary)
	assert.Zero(t, late.NetSalary)
	assert.Equal(t, payroll.StatusDraft, late.Status)

	assert.Equal(t, 1, result.Summary.TotalEmployees)
	assert.Equal(t, 1, result.Summary.ExcludedEmployees)
	assert.Equal(t, result.Records[0].NetSalary, result.Summary.AverageNet)
}

func TestCalculate_NetClampFlagsReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.compensation.CreateProfile(ctx, companyID, "hr-1", compensation.CreateProfileRequest{
		EmployeeID:      "emp-1",
		EffectiveFrom:   "2026-01-01",
		BaseSalary:      1000,
		OtherDeductions: 5000,
	})
	require.NoError(t, err)

	result, err := f.svc.Calculate(ctx, companyID, march2026)
	require.NoError(t, err)

	rec := result.Records[0]
	assert.Zero(t, rec.NetSalary)
	assert.True(t, rec.NeedsReview)
	assert.Equal(t, 1, result.Summary.NeedsReview)
}

func TestCalculate_InvalidPeriod(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Calculate(context.Background(), companyID, payroll.Period{Year: 2026, Month: 13})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.profile(t, "emp-1", "2026-01-01", 30000, "12")
	f.profile(t, "emp-2", "2026-01-01", 40000, "12")

	t.Run("approve before process is rejected", func(t *testing.T) {
		_, err := f.svc.Calculate(ctx, companyID, march2026)
		require.NoError(t, err)

		_, err = f.svc.Approve(ctx, companyID, "owner-1", march2026)
		assert.ErrorIs(t, err, payroll.ErrNotProcessed)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("mark paid before approval is rejected", func(t *testing.T) {
		_, err := f.svc.MarkPaid(ctx, companyID, "owner-1", march2026)
		assert.ErrorIs(t, err, payroll.ErrNotApproved)
	})

	t.Run("process", func(t *testing.T) {
		result, err := f.svc.Process(ctx, companyID, "hr-1", march2026)
		require.NoError(t, err)

		for _, rec := range result.Records {
			assert.Equal(t, payroll.StatusProcessed, rec.Status)
			require.NotNil(t, rec.ProcessedBy)
			assert.Equal(t, "hr-1", *rec.ProcessedBy)
			assert.NotNil(t, rec.ProcessedAt)
		}
		assert.Equal(t, payroll.StatusProcessed, result.Metadata.Status)
	})

	t.Run("process again is a no-op", func(t *testing.T) {
		result, err := f.svc.Process(ctx, companyID, "hr-1", march2026)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Summary.StatusCounts[payroll.StatusProcessed])
		assert.Len(t, f.payrollEntries(t), 1)
	})

	t.Run("recalculating processed figures keeps the status", func(t *testing.T) {
		f.record(t, "emp-1", "2026-03-09", "absent", nil)

		result, err := f.svc.Calculate(ctx, companyID, march2026)
		require.NoError(t, err)
		assert.Equal(t, payroll.StatusProcessed, result.Records[0].Status)
		assert.Equal(t, 1, result.Records[0].Tally.Absent)
	})

	t.Run("approve", func(t *testing.T) {
		result, err := f.svc.Approve(ctx, companyID, "owner-1", march2026)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Summary.StatusCounts[payroll.StatusApproved])
	})

	t.Run("finalized period cannot be recalculated", func(t *testing.T) {
		_, err := f.svc.Calculate(ctx, companyID, march2026)
		assert.ErrorIs(t, err, apperror.ErrAlreadyFinalized)

		_, err = f.svc.Process(ctx, companyID, "hr-1", march2026)
		assert.ErrorIs(t, err, apperror.ErrAlreadyFinalized)

		_, err = f.svc.Approve(ctx, companyID, "owner-1", march2026)
		assert.ErrorIs(t, err, apperror.ErrAlreadyFinalized)
	})

	t.Run("mark paid", func(t *testing.T) {
		result, err := f.svc.MarkPaid(ctx, companyID, "owner-1", march2026)
		require.NoError(t, err)
		for _, rec := range result.Records {
			assert.Equal(t, payroll.StatusPaid, rec.Status)
			require.NotNil(t, rec.PaidBy)
			assert.Equal(t, "owner-1", *rec.PaidBy)
		}

		_, err = f.svc.MarkPaid(ctx, companyID, "owner-1", march2026)
		assert.ErrorIs(t, err, payroll.ErrAlreadyPaid)
		assert.ErrorIs(t, err, apperror.ErrAlreadyFinalized)
	})

	t.Run("one audit entry per transition", func(t *testing.T) {
		entries := f.payrollEntries(t)
		require.Len(t, entries, 3)

		want := []struct {
			action   audit.Action
			decision string
			actor    string
		}{
			{audit.ActionPayrollProcessed, "processed", "hr-1"},
			{audit.ActionPayrollApproved, "approved", "owner-1"},
			{audit.ActionPayrollPaid, "paid", "owner-1"},
		}
		for i, w := range want {
			assert.Equal(t, w.action, entries[i].Action)
			assert.Equal(t, "2026-03", entries[i].EntityID)
			assert.Equal(t, w.actor, entries[i].ActorID)
			require.NotNil(t, entries[i].Decision)
			assert.Equal(t, w.decision, *entries[i].Decision)
		}

		report, err := f.audit.Verify(ctx, companyID)
		require.NoError(t, err)
		assert.True(t, report.IsValid)
	})
}

func TestProcess_NoRecords(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), companyID, "hr-1", march2026)
	assert.ErrorIs(t, err, payroll.ErrNoRecords)
	assert.Empty(t, f.payrollEntries(t))
}

func TestProcess_ConcurrentCallsTransitionOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.profile(t, "emp-1", "2026-01-01", 30000, "12")
	f.profile(t, "emp-2", "2026-01-01", 40000, "12")

	const callers = 6
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Process(ctx, companyID, "hr-1", march2026)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, apperror.ErrConflict)
		}
	}
	assert.Len(t, f.payrollEntries(t), 1)

	result, err := f.svc.List(ctx, companyID, march2026)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.StatusCounts[payroll.StatusProcessed])
}

func TestList_IsTenantScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.profile(t, "emp-1", "2026-01-01", 30000, "12")

	_, err := f.svc.Calculate(ctx, companyID, march2026)
	require.NoError(t, err)

	own, err := f.svc.List(ctx, companyID, march2026)
	require.NoError(t, err)
	assert.Len(t, own.Records, 1)

	other, err := f.svc.List(ctx, "company-b", march2026)
	require.NoError(t, err)
	assert.Empty(t, other.Records)
	assert.Equal(t, payroll.Status(""), other.Metadata.Status)
}
