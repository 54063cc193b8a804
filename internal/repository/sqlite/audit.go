package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
)

type auditRepository struct {
	db *database.SQLiteDB
}

func NewAuditRepository(db *database.SQLiteDB) audit.Repository {
	return &auditRepository{db: db}
}

const auditEntryColumns = `company_id, sequence, recorded_at, actor_id, action, entity_type, entity_id,
	decision, reason, previous_hash, content_hash`

// LockHead relies on the surrounding immediate transaction for exclusion;
// SQLite has no row locks.
func (r *auditRepository) LockHead(ctx context.Context, companyID string) (audit.Head, error) {
	q := GetQuerier(ctx, r.db)

	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_chain_heads (company_id, last_sequence, last_hash, updated_at)
		VALUES (?, 0, ?, ?)
		ON CONFLICT (company_id) DO NOTHING
	`, companyID, audit.GenesisHash, formatTimestamp(nowUTC()))
	if err != nil {
		return audit.Head{}, fmt.Errorf("failed to initialise audit head: %w", err)
	}

	head := audit.Head{CompanyID: companyID}
	err = q.QueryRowContext(ctx, `
		SELECT last_sequence, last_hash FROM audit_chain_heads WHERE company_id = ?
	`, companyID).Scan(&head.Sequence, &head.Hash)
	if err != nil {
		return audit.Head{}, fmt.Errorf("failed to lock audit head: %w", err)
	}
	return head, nil
}

func (r *auditRepository) SaveHead(ctx context.Context, head audit.Head) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.ExecContext(ctx, `
		UPDATE audit_chain_heads
		SET last_sequence = ?, last_hash = ?, updated_at = ?
		WHERE company_id = ?
	`, head.Sequence, head.Hash, formatTimestamp(nowUTC()), head.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to save audit head: %w", err)
	}
	return nil
}

func (r *auditRepository) Insert(ctx context.Context, e audit.Entry) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_entries (`+auditEntryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.CompanyID, e.Sequence, formatTimestamp(e.Timestamp), e.ActorID, string(e.Action), e.EntityType, e.EntityID,
		e.Decision, e.Reason, e.PreviousHash, e.ContentHash)
	if err != nil {
		if isUniqueViolation(err) {
			return audit.ErrSequenceTaken
		}
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) GetHead(ctx context.Context, companyID string) (audit.Head, error) {
	q := GetQuerier(ctx, r.db)

	head := audit.Head{CompanyID: companyID}
	err := q.QueryRowContext(ctx, `
		SELECT last_sequence, last_hash FROM audit_chain_heads WHERE company_id = ?
	`, companyID).Scan(&head.Sequence, &head.Hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			head.Hash = audit.GenesisHash
			return head, nil
		}
		return audit.Head{}, fmt.Errorf("failed to get audit head: %w", err)
	}
	return head, nil
}

func (r *auditRepository) ListAll(ctx context.Context, companyID string) ([]audit.Entry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+auditEntryColumns+`
		FROM audit_entries
		WHERE company_id = ?
		ORDER BY sequence
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows)
}

func (r *auditRepository) List(ctx context.Context, companyID string, filter audit.Filter) ([]audit.Entry, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := " WHERE company_id = ?"
	args := []interface{}{companyID}

	if filter.Action != nil {
		where += " AND action = ?"
		args = append(args, string(*filter.Action))
	}
	if filter.EntityType != nil {
		where += " AND entity_type = ?"
		args = append(args, *filter.EntityType)
	}
	if filter.EntityID != nil {
		where += " AND entity_id = ?"
		args = append(args, *filter.EntityID)
	}

	var total int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_entries"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		"SELECT "+auditEntryColumns+" FROM audit_entries"+where+" ORDER BY sequence DESC LIMIT ? OFFSET ?",
		append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanAuditEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *auditRepository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `SELECT company_id FROM audit_chain_heads ORDER BY company_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list audited companies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanAuditEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var action, recordedAt string
		var decision, reason sql.NullString
		if err := rows.Scan(
			&e.CompanyID, &e.Sequence, &recordedAt, &e.ActorID, &action, &e.EntityType, &e.EntityID,
			&decision, &reason, &e.PreviousHash, &e.ContentHash,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		ts, err := parseTimestamp(recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse audit timestamp: %w", err)
		}
		e.Timestamp = ts
		e.Action = audit.Action(action)
		e.Decision = nullString(decision)
		e.Reason = nullString(reason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
