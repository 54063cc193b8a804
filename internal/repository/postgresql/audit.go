package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.Repository {
	return &auditRepository{db: db}
}

const auditEntryColumns = `company_id, sequence, recorded_at, actor_id, action, entity_type, entity_id,
	decision, reason, previous_hash, content_hash`

func (r *auditRepository) LockHead(ctx context.Context, companyID string) (audit.Head, error) {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO audit_chain_heads (company_id, last_sequence, last_hash)
		VALUES ($1, 0, $2)
		ON CONFLICT (company_id) DO NOTHING
	`, companyID, audit.GenesisHash)
	if err != nil {
		return audit.Head{}, fmt.Errorf("failed to initialise audit head: %w", err)
	}

	head := audit.Head{CompanyID: companyID}
	err = q.QueryRow(ctx, `
		SELECT last_sequence, last_hash
		FROM audit_chain_heads
		WHERE company_id = $1
		FOR UPDATE
	`, companyID).Scan(&head.Sequence, &head.Hash)
	if err != nil {
		return audit.Head{}, fmt.Errorf("failed to lock audit head: %w", err)
	}
	return head, nil
}

func (r *auditRepository) SaveHead(ctx context.Context, head audit.Head) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE audit_chain_heads
		SET last_sequence = $2, last_hash = $3, updated_at = NOW()
		WHERE company_id = $1
	`, head.CompanyID, head.Sequence, head.Hash)
	if err != nil {
		return fmt.Errorf("failed to save audit head: %w", err)
	}
	return nil
}

func (r *auditRepository) Insert(ctx context.Context, e audit.Entry) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO audit_entries (`+auditEntryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.CompanyID, e.Sequence, e.Timestamp, e.ActorID, string(e.Action), e.EntityType, e.EntityID,
		e.Decision, e.Reason, e.PreviousHash, e.ContentHash)
	if err != nil {
		if isUniqueViolation(err, "pk_audit_entries") {
			return audit.ErrSequenceTaken
		}
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) GetHead(ctx context.Context, companyID string) (audit.Head, error) {
	q := GetQuerier(ctx, r.db)

	head := audit.Head{CompanyID: companyID}
	err := q.QueryRow(ctx, `
		SELECT last_sequence, last_hash FROM audit_chain_heads WHERE company_id = $1
	`, companyID).Scan(&head.Sequence, &head.Hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			head.Hash = audit.GenesisHash
			return head, nil
		}
		return audit.Head{}, fmt.Errorf("failed to get audit head: %w", err)
	}
	return head, nil
}

func (r *auditRepository) ListAll(ctx context.Context, companyID string) ([]audit.Entry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+auditEntryColumns+`
		FROM audit_entries
		WHERE company_id = $1
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

	where := " WHERE company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Action != nil {
		where += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, string(*filter.Action))
		argIdx++
	}
	if filter.EntityType != nil {
		where += fmt.Sprintf(" AND entity_type = $%d", argIdx)
		args = append(args, *filter.EntityType)
		argIdx++
	}
	if filter.EntityID != nil {
		where += fmt.Sprintf(" AND entity_id = $%d", argIdx)
		args = append(args, *filter.EntityID)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM audit_entries"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := "SELECT " + auditEntryColumns + " FROM audit_entries" + where +
		fmt.Sprintf(" ORDER BY sequence DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := q.Query(ctx, query, args...)
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

	rows, err := q.Query(ctx, `SELECT company_id FROM audit_chain_heads ORDER BY company_id`)
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

func scanAuditEntries(rows pgx.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var action string
		if err := rows.Scan(
			&e.CompanyID, &e.Sequence, &e.Timestamp, &e.ActorID, &action, &e.EntityType, &e.EntityID,
			&e.Decision, &e.Reason, &e.PreviousHash, &e.ContentHash,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = audit.Action(action)
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
