package postgresql_test

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
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/attendance"
	auditService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/audit"
	calendarService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/calendar"
	compensationService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/compensation"
	leaveService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/leave"
	payrollService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noSource struct{}

func (noSource) PublicHolidays(context.Context, string, int) ([]calendar.PublicHoliday, error) {
	return nil, nil
}

type noNotifier struct{}

func (noNotifier) NotifyEscalation(context.Context, leave.EscalationNotice) error { return nil }

type engine struct {
	setup        *TestDatabaseSetup
	audit        audit.Service
	calendar     calendar.Service
	attendance   attendance.Service
	compensation compensation.Service
	leave        leave.Service
	payroll      payroll.Service
}

func newEngine(t *testing.T) *engine {
	setup := NewTestDatabase(t)
	db := setup.DB
	tx := postgresql.NewTransactor(db)

	e := &engine{setup: setup}
	e.audit = auditService.NewAuditService(tx, postgresql.NewAuditRepository(db))
	e.calendar = calendarService.NewCalendarService(tx, postgresql.NewCalendarRepository(db), noSource{},
		calendar.Settings{CountryCode: "IN", Weekend: []time.Weekday{time.Sunday}})
	e.attendance = attendanceService.NewAttendanceService(postgresql.NewAttendanceRepository(db), e.calendar)
	e.compensation = compensationService.NewCompensationService(tx, postgresql.NewCompensationRepository(db), e.audit)
	e.leave = leaveService.NewLeaveService(tx, postgresql.NewLeaveRequestRepository(db), e.audit, e.calendar,
		noNotifier{}, leave.DefaultSLAPolicy, leave.SubmitRules{})
	e.payroll = payrollService.NewPayrollService(tx, postgresql.NewPayrollRepository(db), e.calendar, e.attendance,
		e.compensation, e.leave, e.audit, config.PayrollConfig{LateGraceDays: 3})
	return e
}

func TestAuditChainConcurrentAppends(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	company := companyID()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.audit.Append(ctx, audit.AppendRequest{
				CompanyID:  company,
				ActorID:    "hr-1",
				Action:     audit.ActionCompensationCreated,
				EntityType: audit.EntityCompensationProfile,
				EntityID:   "emp-1",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := e.audit.Export(ctx, company)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	for i, entry := range entries {
		assert.Equal(t, int64(i+1), entry.Sequence)
	}

	report, err := e.audit.Verify(ctx, company)
	require.NoError(t, err)
	assert.True(t, report.IsValid)
	assert.Equal(t, int64(10), report.HeadSequence)
}

func TestVerifyDetectsTamperingPerCompany(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	require.NoError(t, e.setup.TruncateAllTables(ctx))

	intact, tampered := companyID(), companyID()
	for _, company := range []string{intact, tampered} {
		_, err := e.audit.Append(ctx, audit.AppendRequest{
			CompanyID:  company,
			ActorID:    "hr-1",
			Action:     audit.ActionCompensationCreated,
			EntityType: audit.EntityCompensationProfile,
			EntityID:   "emp-1",
		})
		require.NoError(t, err)
	}

	_, err := e.setup.DB.Exec(ctx, `UPDATE audit_entries SET actor_id = 'intruder' WHERE company_id = $1`, tampered)
	require.NoError(t, err)

	companies, err := e.audit.ListCompanies(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{intact, tampered}, companies)
	for _, company := range companies {
		report, err := e.audit.Verify(ctx, company)
		require.NoError(t, err)
		assert.Equal(t, company == intact, report.IsValid, company)
	}
}

func TestLeaveConcurrentDecisions(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	company := companyID()

	submitted, err := e.leave.Submit(ctx, company, "emp-1", leave.SubmitRequest{
		EmployeeID: "emp-1",
		LeaveType:  "casual",
		StartDate:  "2099-01-05",
		EndDate:    "2099-01-06",
	})
	require.NoError(t, err)

	decisions := []string{"approve", "reject"}
	errs := make([]error, len(decisions))
	var wg sync.WaitGroup
	for i, decision := range decisions {
		wg.Add(1)
		go func(i int, decision string) {
			defer wg.Done()
			_, errs[i] = e.leave.Decide(ctx, company, submitted.ID, "mgr-1", leave.DecideRequest{Decision: decision})
		}(i, decision)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		kind := apperror.Kind(err)
		assert.True(t, kind == apperror.ErrConflict || kind == apperror.ErrAlreadyResolved, err.Error())
	}
	assert.Equal(t, 1, succeeded)

	entries, err := e.audit.Export(ctx, company)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPayrollLifecycle(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	company := companyID()
	period := payroll.Period{Year: 2026, Month: time.March}

	_, err := e.compensation.CreateProfile(ctx, company, "hr-1", compensation.CreateProfileRequest{
		EmployeeID:    "emp-1",
		EffectiveFrom: "2026-01-01",
		BaseSalary:    30000,
		PFRate:        decimal.RequireFromString("12"),
	})
	require.NoError(t, err)
	unpaid := "unpaid"
	for _, date := range []string{"2026-03-02", "2026-03-03"} {
		_, err := e.attendance.RecordDay(ctx, company, attendance.RecordDayRequest{
			EmployeeID: "emp-1",
			Date:       date,
			Status:     "on_leave",
			LeaveType:  &unpaid,
		})
		require.NoError(t, err)
	}

	result, err := e.payroll.Process(ctx, company, "hr-1", period)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, int64(24094), result.Records[0].NetSalary)
	assert.Equal(t, payroll.StatusProcessed, result.Records[0].Status)

	_, err = e.payroll.Approve(ctx, company, "dir-1", period)
	require.NoError(t, err)
	_, err = e.payroll.Calculate(ctx, company, period)
	assert.ErrorIs(t, err, apperror.ErrAlreadyFinalized)

	result, err = e.payroll.MarkPaid(ctx, company, "hr-1", period)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusPaid, result.Metadata.Status)

	report, err := e.audit.Verify(ctx, company)
	require.NoError(t, err)
	assert.True(t, report.IsValid)
	assert.Equal(t, 4, report.TotalEntries)
}
