package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
)

type AuditServiceImpl struct {
	tx    database.Transactor
	repo  audit.Repository
	clock func() time.Time
}

func NewAuditService(tx database.Transactor, repo audit.Repository) audit.Service {
	return &AuditServiceImpl{tx: tx, repo: repo, clock: time.Now}
}

// Append links a new entry to the company head. The head row is locked for
// the rest of the transaction, so concurrent appends for one company are
// serialized and never share or skip a sequence.
func (s *AuditServiceImpl) Append(ctx context.Context, req audit.AppendRequest) (audit.Entry, error) {
	if err := req.Validate(); err != nil {
		return audit.Entry{}, err
	}

	var entry audit.Entry
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		head, err := s.repo.LockHead(txCtx, req.CompanyID)
		if err != nil {
			return err
		}

		entry = audit.Entry{
			CompanyID:    req.CompanyID,
			Sequence:     head.Sequence + 1,
			Timestamp:    audit.NormalizeTimestamp(s.clock()),
			ActorID:      req.ActorID,
			Action:       req.Action,
			EntityType:   req.EntityType,
			EntityID:     req.EntityID,
			Decision:     req.Decision,
			Reason:       req.Reason,
			PreviousHash: head.Hash,
		}
		if entry.ContentHash, err = audit.ComputeHash(entry); err != nil {
			return fmt.Errorf("failed to hash audit entry: %w", err)
		}

		if err := s.repo.Insert(txCtx, entry); err != nil {
			return err
		}
		return s.repo.SaveHead(txCtx, audit.Head{
			CompanyID: entry.CompanyID,
			Sequence:  entry.Sequence,
			Hash:      entry.ContentHash,
		})
	})
	if err != nil {
		return audit.Entry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}

	slog.Debug("Audit entry appended",
		"company_id", entry.CompanyID,
		"sequence", entry.Sequence,
		"action", entry.Action,
		"entity_type", entry.EntityType,
		"entity_id", entry.EntityID,
	)
	return entry, nil
}

// Verify re-walks the whole chain and reports every problem it finds.
func (s *AuditServiceImpl) Verify(ctx context.Context, companyID string) (audit.IntegrityReport, error) {
	entries, err := s.repo.ListAll(ctx, companyID)
	if err != nil {
		return audit.IntegrityReport{}, err
	}
	head, err := s.repo.GetHead(ctx, companyID)
	if err != nil {
		return audit.IntegrityReport{}, err
	}

	report := VerifyChain(companyID, entries, head)
	report.VerifiedAt = s.clock().UTC()
	if !report.IsValid {
		slog.Warn("Audit chain verification failed",
			"company_id", companyID,
			"invalid_entries", len(report.InvalidEntries),
			"total_entries", report.TotalEntries,
		)
	}
	return report, nil
}

// VerifyChain checks entries, which must be ordered by sequence, against
// each other and against the stored head.
func VerifyChain(companyID string, entries []audit.Entry, head audit.Head) audit.IntegrityReport {
	report := audit.IntegrityReport{
		CompanyID:      companyID,
		IsValid:        true,
		TotalEntries:   len(entries),
		InvalidEntries: []audit.InvalidEntry{},
		HeadHash:       audit.GenesisHash,
	}
	fail := func(seq int64, reason string) {
		report.IsValid = false
		report.InvalidEntries = append(report.InvalidEntries, audit.InvalidEntry{Sequence: seq, Reason: reason})
	}

	expectedSeq := int64(1)
	expectedPrev := audit.GenesisHash
	for _, e := range entries {
		if e.Sequence != expectedSeq {
			fail(e.Sequence, fmt.Sprintf("sequence gap: expected %d", expectedSeq))
		}
		computed, err := audit.ComputeHash(e)
		if err != nil {
			fail(e.Sequence, fmt.Sprintf("cannot recompute hash: %v", err))
		} else if computed != e.ContentHash {
			fail(e.Sequence, "content hash mismatch")
		}
		if e.PreviousHash != expectedPrev {
			fail(e.Sequence, "previous hash does not match predecessor")
		}

		expectedSeq = e.Sequence + 1
		expectedPrev = e.ContentHash
		report.HeadSequence = e.Sequence
		report.HeadHash = e.ContentHash
	}

	if head.Sequence != report.HeadSequence || head.Hash != report.HeadHash {
		fail(head.Sequence, fmt.Sprintf("chain head mismatch: head at %d, last entry at %d", head.Sequence, report.HeadSequence))
	}
	return report
}

// ListCompanies returns every company that has an audit chain.
func (s *AuditServiceImpl) ListCompanies(ctx context.Context) ([]string, error) {
	return s.repo.ListCompanyIDs(ctx)
}

func (s *AuditServiceImpl) List(ctx context.Context, companyID string, query audit.ListEntriesQuery) (audit.ListEntriesResponse, error) {
	if err := query.Validate(); err != nil {
		return audit.ListEntriesResponse{}, err
	}
	filter := query.ToFilter()

	entries, total, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		return audit.ListEntriesResponse{}, err
	}

	resp := audit.ListEntriesResponse{
		Entries:    make([]audit.EntryResponse, 0, len(entries)),
		TotalItems: total,
		Page:       filter.Offset/filter.Limit + 1,
		Limit:      filter.Limit,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, audit.ToEntryResponse(e))
	}
	return resp, nil
}

func (s *AuditServiceImpl) Export(ctx context.Context, companyID string) ([]audit.Entry, error) {
	return s.repo.ListAll(ctx, companyID)
}
