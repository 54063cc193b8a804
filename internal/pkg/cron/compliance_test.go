package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/config"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite/sqlitetest"
	auditService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/audit"
	calendarService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/calendar"
	complianceService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/compliance"
	leaveService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSource struct {
	years    []int
	failYear int
}

func (s *recordingSource) PublicHolidays(_ context.Context, _ string, year int) ([]calendar.PublicHoliday, error) {
	s.years = append(s.years, year)
	if year == s.failYear {
		return nil, errors.New("upstream returned 500")
	}
	return []calendar.PublicHoliday{{Date: time.Date(year, time.January, 26, 0, 0, 0, 0, time.UTC), Name: "Republic Day"}}, nil
}

type noNotifier struct{}

func (noNotifier) NotifyEscalation(context.Context, leave.EscalationNotice) error { return nil }

type jobsFixture struct {
	db       *database.SQLiteDB
	jobs     *ComplianceJobs
	leave    leave.Service
	calendar calendar.Service
	source   *recordingSource
}

func newJobsFixture(t *testing.T) *jobsFixture {
	db := sqlitetest.NewTestDB(t)
	tx := sqlite.NewTransactor(db)
	source := &recordingSource{}

	audits := auditService.NewAuditService(tx, sqlite.NewAuditRepository(db))
	cal := calendarService.NewCalendarService(tx, sqlite.NewCalendarRepository(db), source,
		calendar.Settings{CountryCode: "IN", Weekend: []time.Weekday{time.Saturday, time.Sunday}})
	leaves := leaveService.NewLeaveService(tx, sqlite.NewLeaveRequestRepository(db), audits, cal,
		noNotifier{}, leave.DefaultSLAPolicy, leave.SubmitRules{})

	return &jobsFixture{
		db:       db,
		jobs:     NewComplianceJobs(leaves, cal, audits, complianceService.NewComplianceService(audits, leaves)),
		leave:    leaves,
		calendar: cal,
		source:   source,
	}
}

func TestRegisterJobs(t *testing.T) {
	f := newJobsFixture(t)
	s := NewScheduler(context.Background())

	f.jobs.RegisterJobs(s, config.CronConfig{
		EscalationSweepInterval: time.Minute,
		HolidayRefreshInterval:  time.Hour,
		AuditVerifyInterval:     time.Hour,
	})

	assert.Equal(t, []string{"sweep_leave_escalations", "refresh_public_holidays", "verify_audit_chains"}, s.Jobs())
}

func TestSweepLeaveEscalations(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	submitted, err := f.leave.Submit(ctx, "company-a", "emp-1", leave.SubmitRequest{
		EmployeeID: "emp-1",
		LeaveType:  "casual",
		StartDate:  "2099-01-05",
		EndDate:    "2099-01-06",
	})
	require.NoError(t, err)

	f.jobs.clock = func() time.Time { return time.Now().Add(49 * time.Hour) }
	require.NoError(t, f.jobs.SweepLeaveEscalations(ctx))

	got, err := f.leave.Get(ctx, "company-a", submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, leave.RoleHR, got.ApproverRole)
}

func TestRefreshPublicHolidays(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	_, err := f.calendar.UpdateSettings(ctx, "company-a", calendar.UpdateSettingsRequest{
		CountryCode: "IN",
		WeekendDays: []string{"sunday"},
	})
	require.NoError(t, err)

	f.jobs.clock = func() time.Time { return time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, f.jobs.RefreshPublicHolidays(ctx))
	assert.Equal(t, []int{2026}, f.source.years)

	f.source.years = nil
	f.jobs.clock = func() time.Time { return time.Date(2026, time.December, 15, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, f.jobs.RefreshPublicHolidays(ctx))
	assert.Equal(t, []int{2026, 2027}, f.source.years)

	view, err := f.calendar.GetCalendar(ctx, "company-a", 2027)
	require.NoError(t, err)
	require.Len(t, view.Holidays, 1)
	assert.Equal(t, "Republic Day", view.Holidays[0].Name)
}

func TestRefreshPublicHolidays_CurrentYearFailureStillRefreshesNext(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	_, err := f.calendar.AddBlockedDate(ctx, "company-a", calendar.AddBlockedDateRequest{Date: "2026-12-31", Reason: "Year-end close"})
	require.NoError(t, err)

	f.source.failYear = 2026
	f.jobs.clock = func() time.Time { return time.Date(2026, time.December, 15, 0, 0, 0, 0, time.UTC) }
	err = f.jobs.RefreshPublicHolidays(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year 2026")
	assert.Equal(t, []int{2026, 2027}, f.source.years)

	view, err := f.calendar.GetCalendar(ctx, "company-a", 2027)
	require.NoError(t, err)
	assert.Len(t, view.Holidays, 1)
}

func TestVerifyAuditChains(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	for _, employeeID := range []string{"emp-1", "emp-2"} {
		_, err := f.leave.Submit(ctx, "company-b", employeeID, leave.SubmitRequest{
			EmployeeID: employeeID,
			LeaveType:  "sick",
			StartDate:  "2099-02-02",
			EndDate:    "2099-02-02",
		})
		require.NoError(t, err)
		_, err = f.leave.Submit(ctx, "company-a", employeeID, leave.SubmitRequest{
			EmployeeID: employeeID,
			LeaveType:  "sick",
			StartDate:  "2099-02-02",
			EndDate:    "2099-02-02",
		})
		require.NoError(t, err)
	}
	require.NoError(t, f.jobs.VerifyAuditChains(ctx))

	_, err := f.db.ExecContext(ctx,
		`UPDATE audit_entries SET entity_id = 'forged' WHERE company_id = ? AND sequence = 1`, "company-a")
	require.NoError(t, err)

	err = f.jobs.VerifyAuditChains(ctx)
	assert.ErrorIs(t, err, audit.ErrChainBroken)
	assert.ErrorIs(t, err, apperror.ErrIntegrityViolation)
	assert.Contains(t, err.Error(), "1 of 2 companies")
}
