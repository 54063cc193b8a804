package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite/sqlitetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (audit.Service, *database.SQLiteDB, database.Transactor) {
	db := sqlitetest.NewTestDB(t)
	tx := sqlite.NewTransactor(db)
	return NewAuditService(tx, sqlite.NewAuditRepository(db)), db, tx
}

func appendN(t *testing.T, svc audit.Service, companyID string, n int) []audit.Entry {
	ctx := context.Background()
	entries := make([]audit.Entry, 0, n)
	for i := 0; i < n; i++ {
		decision := "approved"
		e, err := svc.Append(ctx, audit.AppendRequest{
			CompanyID:  companyID,
			ActorID:    "user-1",
			Action:     audit.ActionApproved,
			EntityType: audit.EntityLeaveRequest,
			EntityID:   fmt.Sprintf("req-%d", i),
			Decision:   &decision,
		})
		require.NoError(t, err)
		entries = append(entries, e)
	}
	return entries
}

func TestAppend_LinksEntries(t *testing.T) {
	svc, _, _ := newTestService(t)

	entries := appendN(t, svc, "company-a", 3)

	assert.Equal(t, int64(1), entries[0].Sequence)
	assert.Equal(t, audit.GenesisHash, entries[0].PreviousHash)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, int64(i+1), entries[i].Sequence)
		assert.Equal(t, entries[i-1].ContentHash, entries[i].PreviousHash)
	}

	report, err := svc.Verify(context.Background(), "company-a")
	require.NoError(t, err)
	assert.True(t, report.IsValid)
	assert.Equal(t, 3, report.TotalEntries)
	assert.Equal(t, int64(3), report.HeadSequence)
	assert.Equal(t, entries[2].ContentHash, report.HeadHash)
	assert.Empty(t, report.InvalidEntries)
}

func TestAppend_ChainsArePerCompany(t *testing.T) {
	svc, _, _ := newTestService(t)

	a := appendN(t, svc, "company-a", 2)
	b := appendN(t, svc, "company-b", 1)

	assert.Equal(t, int64(2), a[1].Sequence)
	assert.Equal(t, int64(1), b[0].Sequence)
	assert.Equal(t, audit.GenesisHash, b[0].PreviousHash)
}

func TestAppend_RejectsInvalidRequest(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Append(context.Background(), audit.AppendRequest{CompanyID: "company-a", Action: "DELETED"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestAppend_JoinsCallerTransaction(t *testing.T) {
	svc, _, tx := newTestService(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := tx.WithinTx(ctx, func(txCtx context.Context) error {
		_, err := svc.Append(txCtx, audit.AppendRequest{
			CompanyID: "company-a", ActorID: "user-1", Action: audit.ActionSubmitted,
			EntityType: audit.EntityLeaveRequest, EntityID: "req-1",
		})
		require.NoError(t, err)
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	entries, err := svc.Export(ctx, "company-a")
	require.NoError(t, err)
	assert.Empty(t, entries)

	next := appendN(t, svc, "company-a", 1)
	assert.Equal(t, int64(1), next[0].Sequence)
}

func TestAppend_ConcurrentAppendsGetDistinctSequences(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	seqs := make(chan int64, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := svc.Append(ctx, audit.AppendRequest{
				CompanyID: "company-a", ActorID: "user-1", Action: audit.ActionSubmitted,
				EntityType: audit.EntityLeaveRequest, EntityID: fmt.Sprintf("req-%d", i),
			})
			assert.NoError(t, err)
			seqs <- e.Sequence
		}(i)
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	for s := range seqs {
		assert.False(t, seen[s], "sequence %d assigned twice", s)
		seen[s] = true
	}
	for s := int64(1); s <= writers; s++ {
		assert.True(t, seen[s], "sequence %d missing", s)
	}

	report, err := svc.Verify(ctx, "company-a")
	require.NoError(t, err)
	assert.True(t, report.IsValid)
}

func TestVerify_DetectsTamperedAction(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	appendN(t, svc, "company-a", 5)

	// flip one byte of the action of entry 3
	_, err := db.ExecContext(ctx,
		`UPDATE audit_entries SET action = 'APPROVEE' WHERE company_id = ? AND sequence = 3`, "company-a")
	require.NoError(t, err)

	report, err := svc.Verify(ctx, "company-a")
	require.NoError(t, err)
	assert.False(t, report.IsValid)
	require.Len(t, report.InvalidEntries, 1)
	assert.Equal(t, int64(3), report.InvalidEntries[0].Sequence)
	assert.Equal(t, "content hash mismatch", report.InvalidEntries[0].Reason)
}

func TestVerify_DetectsRehashedEntryAtSuccessor(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	entries := appendN(t, svc, "company-a", 4)

	forged := entries[1]
	forged.ActorID = "intruder"
	hash, err := audit.ComputeHash(forged)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`UPDATE audit_entries SET actor_id = ?, content_hash = ? WHERE company_id = ? AND sequence = 2`,
		forged.ActorID, hash, "company-a")
	require.NoError(t, err)

	report, err := svc.Verify(ctx, "company-a")
	require.NoError(t, err)
	assert.False(t, report.IsValid)
	require.Len(t, report.InvalidEntries, 1)
	assert.Equal(t, int64(3), report.InvalidEntries[0].Sequence)
	assert.Equal(t, "previous hash does not match predecessor", report.InvalidEntries[0].Reason)
}

func TestVerify_CollectsEveryFailure(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	appendN(t, svc, "company-a", 6)

	_, err := db.ExecContext(ctx, `UPDATE audit_entries SET entity_id = 'x' WHERE sequence IN (2, 5)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM audit_entries WHERE sequence = 4`)
	require.NoError(t, err)

	report, err := svc.Verify(ctx, "company-a")
	require.NoError(t, err)
	assert.False(t, report.IsValid)

	bySeq := make(map[int64][]string)
	for _, inv := range report.InvalidEntries {
		bySeq[inv.Sequence] = append(bySeq[inv.Sequence], inv.Reason)
	}
	assert.Contains(t, bySeq[2], "content hash mismatch")
	assert.Contains(t, bySeq[5], "content hash mismatch")
	assert.Contains(t, bySeq[5], "sequence gap: expected 4")
	assert.Contains(t, bySeq[5], "previous hash does not match predecessor")
	assert.Equal(t, 5, report.TotalEntries)
}

func TestVerify_DetectsTruncatedTail(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	appendN(t, svc, "company-a", 3)

	_, err := db.ExecContext(ctx, `DELETE FROM audit_entries WHERE sequence = 3`)
	require.NoError(t, err)

	report, err := svc.Verify(ctx, "company-a")
	require.NoError(t, err)
	assert.False(t, report.IsValid)
	require.Len(t, report.InvalidEntries, 1)
	assert.Equal(t, int64(3), report.InvalidEntries[0].Sequence)
}

func TestVerify_EmptyChainIsValid(t *testing.T) {
	svc, _, _ := newTestService(t)

	report, err := svc.Verify(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, report.IsValid)
	assert.Equal(t, 0, report.TotalEntries)
	assert.Equal(t, audit.GenesisHash, report.HeadHash)
}

func TestListCompanies(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	companies, err := svc.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Empty(t, companies)

	appendN(t, svc, "company-b", 1)
	appendN(t, svc, "company-a", 2)

	companies, err = svc.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"company-a", "company-b"}, companies)
}

func TestAppend_TimestampsFromClock(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 4, 10, 15, 30, 123456789, time.UTC)
	svc.(*AuditServiceImpl).clock = func() time.Time { return now }

	entries := appendN(t, svc, "company-a", 2)
	for _, e := range entries {
		assert.Equal(t, audit.NormalizeTimestamp(now), e.Timestamp)
	}

	report, err := svc.Verify(ctx, "company-a")
	require.NoError(t, err)
	assert.True(t, report.IsValid)
	assert.Equal(t, now, report.VerifiedAt)

	// The stored timestamp feeds the hash, so a fixed clock yields a fixed chain.
	other, _, _ := newTestService(t)
	other.(*AuditServiceImpl).clock = func() time.Time { return now }
	again := appendN(t, other, "company-a", 2)
	assert.Equal(t, entries[1].ContentHash, again[1].ContentHash)
}

func TestList_FiltersAndPages(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	appendN(t, svc, "company-a", 5)

	entityID := "req-2"
	resp, err := svc.List(ctx, "company-a", audit.ListEntriesQuery{EntityID: &entityID})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, int64(3), resp.Entries[0].Sequence)

	resp, err = svc.List(ctx, "company-a", audit.ListEntriesQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.TotalItems)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, int64(3), resp.Entries[0].Sequence)

	bad := "DELETED"
	_, err = svc.List(ctx, "company-a", audit.ListEntriesQuery{Action: &bad})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}
