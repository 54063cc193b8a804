package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepository struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.Repository {
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

	_, err := q.Exec(ctx, `
		INSERT INTO leave_requests (`+leaveRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, req.ID, req.CompanyID, req.EmployeeID, string(req.LeaveType), req.StartDate, req.EndDate, req.Reason,
		string(req.State), req.Level, req.Deadline, decisionArg(req.Resolution), req.ResolvedBy, req.ResolvedAt,
		req.ResolutionNote, req.SubmittedBy, req.SubmittedAt, req.UpdatedAt, req.Version)
	if err != nil {
		return leave.Request{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return req, nil
}

func (r *leaveRequestRepository) GetByID(ctx context.Context, companyID, id string) (leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRow(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE company_id = $1 AND id = $2
	`, companyID, id)
	req, err := scanLeaveRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Request{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Request{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return req, nil
}

func (r *leaveRequestRepository) List(ctx context.Context, companyID string, filter leave.Filter) ([]leave.Request, int64, error) {
	q := GetQuerier(ctx, r.db)

	var state, employeeID *string
	if filter.State != nil {
		s := string(*filter.State)
		state = &s
	}
	employeeID = filter.EmployeeID

	var total int64
	err := q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM leave_requests
		WHERE company_id = $1
		  AND ($2::text IS NULL OR state = $2)
		  AND ($3::text IS NULL OR employee_id = $3)
	`, companyID, state, employeeID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE company_id = $1
		  AND ($2::text IS NULL OR state = $2)
		  AND ($3::text IS NULL OR employee_id = $3)
		ORDER BY submitted_at DESC, id DESC
		LIMIT $4 OFFSET $5
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

	rows, err := q.Query(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE company_id = $1
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

	rows, err := q.Query(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE state = 'pending' AND deadline <= $1
		ORDER BY deadline, id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue leave requests: %w", err)
	}
	defer rows.Close()
	return collectLeaveRequests(rows)
}

func (r *leaveRequestRepository) ListApprovedInRange(ctx context.Context, companyID string, from, to time.Time) ([]leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+leaveRequestColumns+`
		FROM leave_requests
		WHERE company_id = $1
		  AND state = 'resolved' AND resolution = 'approved'
		  AND start_date <= $3 AND end_date >= $2
		ORDER BY employee_id, start_date
	`, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave requests: %w", err)
	}
	defer rows.Close()
	return collectLeaveRequests(rows)
}

func (r *leaveRequestRepository) Update(ctx context.Context, req leave.Request, expectedVersion int) (leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		UPDATE leave_requests
		SET state = $4,
			level = $5,
			deadline = $6,
			resolution = $7,
			resolved_by = $8,
			resolved_at = $9,
			resolution_note = $10,
			updated_at = NOW(),
			version = version + 1
		WHERE company_id = $1 AND id = $2 AND version = $3 AND state = 'pending'
		RETURNING version, updated_at
	`, req.CompanyID, req.ID, expectedVersion, string(req.State), req.Level, req.Deadline,
		decisionArg(req.Resolution), req.ResolvedBy, req.ResolvedAt, req.ResolutionNote,
	).Scan(&req.Version, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Request{}, leave.ErrVersionConflict
		}
		return leave.Request{}, fmt.Errorf("failed to update leave request: %w", err)
	}
	return req, nil
}

func decisionArg(d *leave.Decision) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

func collectLeaveRequests(rows pgx.Rows) ([]leave.Request, error) {
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

func scanLeaveRequest(row pgx.Row) (leave.Request, error) {
	var req leave.Request
	var leaveType, state string
	var resolution *string
	err := row.Scan(
		&req.ID, &req.CompanyID, &req.EmployeeID, &leaveType, &req.StartDate, &req.EndDate, &req.Reason,
		&state, &req.Level, &req.Deadline, &resolution, &req.ResolvedBy, &req.ResolvedAt, &req.ResolutionNote,
		&req.SubmittedBy, &req.SubmittedAt, &req.UpdatedAt, &req.Version,
	)
	if err != nil {
		return leave.Request{}, err
	}
	req.LeaveType = attendance.LeaveType(leaveType)
	req.State = leave.State(state)
	if resolution != nil {
		d := leave.Decision(*resolution)
		req.Resolution = &d
	}
	return req, nil
}
