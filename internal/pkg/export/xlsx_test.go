package export

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAuditWorkbook(t *testing.T) {
	decision := "approved"
	ts := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	entries := []audit.Entry{
		{Sequence: 1, Timestamp: ts, ActorID: "emp-1", Action: audit.ActionSubmitted, EntityType: audit.EntityLeaveRequest,
			EntityID: "req-1", PreviousHash: audit.GenesisHash, ContentHash: "aa"},
		{Sequence: 2, Timestamp: ts.Add(time.Hour), ActorID: "mgr-1", Action: audit.ActionApproved, EntityType: audit.EntityLeaveRequest,
			EntityID: "req-1", Decision: &decision, PreviousHash: "aa", ContentHash: "bb"},
	}
	report := audit.IntegrityReport{
		CompanyID:      "company-a",
		IsValid:        false,
		TotalEntries:   2,
		InvalidEntries: []audit.InvalidEntry{{Sequence: 2, Reason: "content hash mismatch"}},
		HeadSequence:   2,
		HeadHash:       "bb",
		VerifiedAt:     ts.Add(2 * time.Hour),
	}

	buf, err := AuditWorkbook(entries, report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{entriesSheet, integritySheet}, f.GetSheetList())

	rows, err := f.GetRows(entriesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, auditHeaders, rows[0])
	assert.Equal(t, []string{"2", "2026-03-02T11:00:00Z", "mgr-1", "APPROVED", "leave_request", "req-1", "approved", "", "aa", "bb"}, rows[2])

	status, err := f.GetCellValue(integritySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "INVALID", status)

	invalid, err := f.GetRows(integritySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "content hash mismatch"}, invalid[len(invalid)-1])
}

func TestAuditWorkbook_EmptyChain(t *testing.T) {
	buf, err := AuditWorkbook(nil, audit.IntegrityReport{CompanyID: "company-a", IsValid: true, HeadHash: audit.GenesisHash})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(entriesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	status, err := f.GetCellValue(integritySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "valid", status)
}
