package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compliance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite/sqlitetest"
	auditService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/audit"
	calendarService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/calendar"
	leaveService "github.com/cmlabs-hris/payroll-compliance-engine/internal/service/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noSource struct{}

func (noSource) PublicHolidays(context.Context, string, int) ([]calendar.PublicHoliday, error) {
	return nil, nil
}

type noNotifier struct{}

func (noNotifier) NotifyEscalation(context.Context, leave.EscalationNotice) error { return nil }

type fixture struct {
	db    *database.SQLiteDB
	svc   compliance.Service
	leave leave.Service
}

func newFixture(t *testing.T) *fixture {
	db := sqlitetest.NewTestDB(t)
	tx := sqlite.NewTransactor(db)

	audit := auditService.NewAuditService(tx, sqlite.NewAuditRepository(db))
	cal := calendarService.NewCalendarService(tx, sqlite.NewCalendarRepository(db), noSource{},
		calendar.Settings{CountryCode: "IN", Weekend: []time.Weekday{time.Saturday, time.Sunday}})
	leaves := leaveService.NewLeaveService(tx, sqlite.NewLeaveRequestRepository(db), audit, cal,
		noNotifier{}, leave.DefaultSLAPolicy, leave.SubmitRules{})

	return &fixture{db: db, svc: NewComplianceService(audit, leaves), leave: leaves}
}

func (f *fixture) submit(t *testing.T, employeeID string) string {
	resp, err := f.leave.Submit(context.Background(), "company-a", employeeID, leave.SubmitRequest{
		EmployeeID: employeeID,
		LeaveType:  "casual",
		StartDate:  "2099-01-05",
		EndDate:    "2099-01-06",
	})
	require.NoError(t, err)
	return resp.ID
}

func (f *fixture) decide(t *testing.T, id, decision string) {
	_, err := f.leave.Decide(context.Background(), "company-a", id, "mgr-1", leave.DecideRequest{Decision: decision})
	require.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slow := f.submit(t, "emp-1")
	rejected := f.submit(t, "emp-2")
	approved := f.submit(t, "emp-3")
	f.decide(t, approved, "approve")

	firstSweep := time.Now().Add(49 * time.Hour)
	_, err := f.leave.SweepEscalations(ctx, firstSweep)
	require.NoError(t, err)
	f.decide(t, rejected, "reject")

	t.Run("overdue below the last level", func(t *testing.T) {
		d, err := f.svc.Dashboard(ctx, "company-a", firstSweep.Add(25*time.Hour))
		require.NoError(t, err)

		assert.True(t, d.Integrity.IsValid)
		assert.Equal(t, 7, d.Integrity.TotalEntries)
		assert.Equal(t, map[int]int{1: 0, 2: 1, 3: 0}, d.SLA.PendingByLevel)
		assert.Equal(t, 1, d.SLA.Overdue)
		assert.Empty(t, d.SLA.AwaitingTerminalReview)
		assert.Equal(t, int64(2), d.SLA.Escalations)
		assert.Equal(t, 1, d.SLA.Approved)
		assert.Equal(t, 1, d.SLA.Rejected)
		assert.Equal(t, 0.67, d.SLA.BreachRate)
	})

	t.Run("awaiting terminal review", func(t *testing.T) {
		secondSweep := firstSweep.Add(25 * time.Hour)
		result, err := f.leave.SweepEscalations(ctx, secondSweep)
		require.NoError(t, err)
		require.Equal(t, []string{slow}, result.Escalated)

		d, err := f.svc.Dashboard(ctx, "company-a", secondSweep.Add(25*time.Hour))
		require.NoError(t, err)

		assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 1}, d.SLA.PendingByLevel)
		assert.Zero(t, d.SLA.Overdue)
		assert.Equal(t, []string{slow}, d.SLA.AwaitingTerminalReview)
		assert.Equal(t, int64(3), d.SLA.Escalations)
	})
}

func TestDashboard_EmptyCompany(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Dashboard(context.Background(), "company-z", time.Now())
	require.NoError(t, err)

	assert.True(t, d.Integrity.IsValid)
	assert.Zero(t, d.Integrity.TotalEntries)
	assert.Zero(t, d.SLA.BreachRate)
	assert.Zero(t, d.SLA.AvgResolutionHours)
	assert.Equal(t, "company-z", d.CompanyID)
}

func TestRequireIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, "emp-1")
	f.submit(t, "emp-2")

	require.NoError(t, f.svc.RequireIntact(ctx, "company-a"))

	_, err := f.db.ExecContext(ctx,
		`UPDATE audit_entries SET action = 'SUBMITTEE' WHERE company_id = ? AND sequence = 2`, "company-a")
	require.NoError(t, err)

	err = f.svc.RequireIntact(ctx, "company-a")
	assert.ErrorIs(t, err, apperror.ErrIntegrityViolation)
	assert.Contains(t, err.Error(), "sequence 2")

	d, err := f.svc.Dashboard(ctx, "company-a", time.Now())
	require.NoError(t, err, "a broken chain is reported, not raised")
	assert.False(t, d.Integrity.IsValid)
	require.Len(t, d.Integrity.InvalidEntries, 1)
	assert.Equal(t, int64(2), d.Integrity.InvalidEntries[0].Sequence)

	assert.NoError(t, f.svc.RequireIntact(ctx, "company-b"))
}

func TestSLAMetrics_AverageResolution(t *testing.T) {
	submitted := time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC)
	after := func(h int) *time.Time {
		ts := submitted.Add(time.Duration(h) * time.Hour)
		return &ts
	}
	approved, rejected := leave.DecisionApproved, leave.DecisionRejected

	m := slaMetrics([]leave.Request{
		{ID: "a", State: leave.StateResolved, Level: 1, Resolution: &approved, SubmittedAt: submitted, ResolvedAt: after(10)},
		{ID: "b", State: leave.StateResolved, Level: 2, Resolution: &rejected, SubmittedAt: submitted, ResolvedAt: after(55)},
		{ID: "c", State: leave.StatePending, Level: 1, SubmittedAt: submitted, Deadline: *after(48)},
	}, *after(20))

	assert.Equal(t, 32.5, m.AvgResolutionHours)
	assert.Equal(t, 0.33, m.BreachRate)
	assert.Equal(t, 1, m.PendingByLevel[1])
	assert.Zero(t, m.Overdue)
}
