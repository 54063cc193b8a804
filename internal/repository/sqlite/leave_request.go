package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/google/uuid"
)

type leaveRequestRepository struct {
	db *database.SQLiteDB
}

func NewLeaveRequestRepository(db *database.SQLiteDB) leave.Repository {
	return &leaveRequestRepository{db: db}
}

const leaveRequestColumns = `id, company_id, employee_id, leave_type, start_date, end_date, reason, state, level,
	deadline, resolution, resolved_by, resolved_at, resolution_note, submitted_by, submitted_at, updated_at, version`

func (r *leaveRequestRepository) Create(ctx context.Context, req leave.Request) (leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	if req.ID == "" {
		req.ID = uuid.Must(uuid.NewV7()).String()
	}
	req.Version = 1
	req.UpdatedAt = req.SubmittedAt

	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_requests (`+leaveRequestColumns+`)
		VALUES (`+placeholders(18)+`)
	`, req.ID, req.CompanyID, req.EmployeeID, string(req.LeaveType), formatDate(req.StartDate), formatDate(req.EndDate),
		req.Reason, string(req.State), req.Level, formatTimestamp(req.Deadline), decisionArg(req.Resolution),
		req.ResolvedBy, formatNullTimestamp(req.ResolvedAt), req.ResolutionNote, req.SubmittedBy,
		formatTimestamp(req.SubmittedAt), formatTimestamp(req.UpdatedAt), req.Version)
	if err != nil {
		return leave.Request{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return req, nil
}

func (r *leaveRequestRepository) GetByID(ctx context.Context, companyID, id string) (leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRowContext(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE company_id = ? AND id = ?
	`, companyID, id)
	req, err := scanLeaveRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leave.Request{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Request{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return req, nil
}

func (r *leaveRequestRepository) List(ctx context.Context, companyID string, filter leave.Filter) ([]leave.Request, int64, error) {
	q := GetQuerier(ctx, r.db)

	var state interface{}
	if filter.State != nil {
		state = string(*filter.State)
	}
	var employeeID interface{}
	if filter.EmployeeID != nil {
		employeeID = *filter.EmployeeID
	}

	var total int64
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM leave_requests
		WHERE company_id = ?1
		  AND (?2 IS NULL OR state = ?2)
		  AND (?3 IS NULL OR employee_id = ?3)
	`, companyID, state, employeeID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE company_id = ?1
		  AND (?2 IS NULL OR state = ?2)
		  AND (?3 IS NULL OR employee_id = ?3)
		ORDER BY submitted_at DESC, id DESC
		LIMIT ?4 OFFSET ?5
	`, companyID, state, employeeID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	requests, err := collectLeaveRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *leaveRequestRepository) ListAll(ctx context.Context, companyID string) ([]leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE company_id = ?
		ORDER BY submitted_at, id
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()
	return collectLeaveRequests(rows)
}

func (r *leaveRequestRepository) ListOverdue(ctx context.Context, now time.Time) ([]leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE state = 'pending' AND deadline <= ?
		ORDER BY deadline, id
	`, formatTimestamp(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue leave requests: %w", err)
	}
	defer rows.Close()
	return collectLeaveRequests(rows)
}

func (r *leaveRequestRepository) ListApprovedInRange(ctx context.Context, companyID string, from, to time.Time) ([]leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE company_id = ?
		  AND state = 'resolved' AND resolution = 'approved'
		  AND start_date <= ? AND end_date >= ?
		ORDER BY employee_id, start_date
	`, companyID, formatDate(to), formatDate(from))
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave requests: %w", err)
	}
	defer rows.Close()
	return collectLeaveRequests(rows)
}

func (r *leaveRequestRepository) Update(ctx context.Context, req leave.Request, expectedVersion int) (leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	req.UpdatedAt = nowUTC()
	res, err := q.ExecContext(ctx, `
		UPDATE leave_requests
		SET state = ?,
			level = ?,
			deadline = ?,
			resolution = ?,
			resolved_by = ?,
			resolved_at = ?,
			resolution_note = ?,
			updated_at = ?,
			version = version + 1
		WHERE company_id = ? AND id = ? AND version = ? AND state = 'pending'
	`, string(req.State), req.Level, formatTimestamp(req.Deadline), decisionArg(req.Resolution), req.ResolvedBy,
		formatNullTimestamp(req.ResolvedAt), req.ResolutionNote, formatTimestamp(req.UpdatedAt),
		req.CompanyID, req.ID, expectedVersion)
	if err != nil {
		return leave.Request{}, fmt.Errorf("failed to update leave request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return leave.Request{}, fmt.Errorf("failed to update leave request: %w", err)
	}
	if n == 0 {
		return leave.Request{}, leave.ErrVersionConflict
	}
	req.Version = expectedVersion + 1
	return req, nil
}

func decisionArg(d *leave.Decision) interface{} {
	if d == nil {
		return nil
	}
	return string(*d)
}

func collectLeaveRequests(rows *sql.Rows) ([]leave.Request, error) {
	var requests []leave.Request
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanLeaveRequest(row rowScanner) (leave.Request, error) {
	var req leave.Request
	var leaveType, state, startDate, endDate, deadline, submittedAt, updatedAt string
	var resolution, resolvedBy, resolvedAt, note sql.NullString
	err := row.Scan(
		&req.ID, &req.CompanyID, &req.EmployeeID, &leaveType, &startDate, &endDate, &req.Reason,
		&state, &req.Level, &deadline, &resolution, &resolvedBy, &resolvedAt, &note,
		&req.SubmittedBy, &submittedAt, &updatedAt, &req.Version,
	)
	if err != nil {
		return leave.Request{}, err
	}

	if req.StartDate, err = parseDate(startDate); err != nil {
		return leave.Request{}, err
	}
	if req.EndDate, err = parseDate(endDate); err != nil {
		return leave.Request{}, err
	}
	if req.Deadline, err = parseTimestamp(deadline); err != nil {
		return leave.Request{}, err
	}
	if req.SubmittedAt, err = parseTimestamp(submittedAt); err != nil {
		return leave.Request{}, err
	}
	if req.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return leave.Request{}, err
	}
	if req.ResolvedAt, err = parseNullTimestamp(resolvedAt); err != nil {
		return leave.Request{}, err
	}

	req.LeaveType = attendance.LeaveType(leaveType)
	req.State = leave.State(state)
	req.ResolvedBy = nullString(resolvedBy)
	req.ResolutionNote = nullString(note)
	if resolution.Valid {
		d := leave.Decision(resolution.String)
		req.Resolution = &d
	}
	return req, nil
}
