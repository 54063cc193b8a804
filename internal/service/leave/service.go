package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

type LeaveServiceImpl struct {
	tx       database.Transactor
	repo     leave.Repository
	audit    audit.Service
	calendar calendar.Service
	notifier leave.Notifier
	policy   leave.SLAPolicy
	rules    leave.SubmitRules
	clock    func() time.Time
}

func NewLeaveService(
	tx database.Transactor,
	repo leave.Repository,
	auditService audit.Service,
	calendarService calendar.Service,
	notifier leave.Notifier,
	policy leave.SLAPolicy,
	rules leave.SubmitRules,
) leave.Service {
	return &LeaveServiceImpl{
		tx:       tx,
		repo:     repo,
		audit:    auditService,
		calendar: calendarService,
		notifier: notifier,
		policy:   policy,
		rules:    rules,
		clock:    time.Now,
	}
}

// Submit implements leave.Service.
func (s *LeaveServiceImpl) Submit(ctx context.Context, companyID, actorID string, req leave.SubmitRequest) (leave.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.RequestResponse{}, err
	}
	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)
	leaveType := attendance.LeaveType(req.LeaveType)
	now := s.clock().UTC()

	if err := s.rules.CheckNotice(leaveType, start, now); err != nil {
		return leave.RequestResponse{}, err
	}

	blocked, err := s.calendar.BlockedDatesBetween(ctx, companyID, start, end)
	if err != nil {
		return leave.RequestResponse{}, err
	}
	if len(blocked) > 0 {
		dates := make([]string, 0, len(blocked))
		for _, b := range blocked {
			dates = append(dates, calendar.DateKey(b.Date))
		}
		return leave.RequestResponse{}, fmt.Errorf("%w: %s", leave.ErrBlockedDate, strings.Join(dates, ", "))
	}

	if s.rules.LimitsConsecutive(leaveType) {
		days, err := s.workingDaysBetween(ctx, companyID, start, end)
		if err != nil {
			return leave.RequestResponse{}, err
		}
		if err := s.rules.CheckConsecutive(leaveType, days); err != nil {
			return leave.RequestResponse{}, err
		}
	}

	request := leave.Request{
		CompanyID:   companyID,
		EmployeeID:  req.EmployeeID,
		LeaveType:   leaveType,
		StartDate:   start,
		EndDate:     end,
		Reason:      req.Reason,
		State:       leave.StatePending,
		Level:       1,
		Deadline:    s.policy.InitialDeadline(start, now),
		SubmittedBy: actorID,
		SubmittedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		created, err := s.repo.Create(txCtx, request)
		if err != nil {
			return err
		}
		request = created

		var reason *string
		if request.Reason != "" {
			reason = &request.Reason
		}
		_, err = s.audit.Append(txCtx, audit.AppendRequest{
			CompanyID:  companyID,
			ActorID:    actorID,
			Action:     audit.ActionSubmitted,
			EntityType: audit.EntityLeaveRequest,
			EntityID:   request.ID,
			Reason:     reason,
		})
		return err
	})
	if err != nil {
		return leave.RequestResponse{}, err
	}

	slog.Info("Leave request submitted",
		"company_id", companyID,
		"request_id", request.ID,
		"employee_id", request.EmployeeID,
		"deadline", request.Deadline,
	)
	return leave.ToRequestResponse(request), nil
}

// workingDaysBetween counts the working days of the company calendar within
// [start, end].
func (s *LeaveServiceImpl) workingDaysBetween(ctx context.Context, companyID string, start, end time.Time) (int, error) {
	n := 0
	for month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !month.After(end); month = month.AddDate(0, 1, 0) {
		view, err := s.calendar.MonthView(ctx, companyID, month.Year(), month.Month())
		if err != nil {
			return 0, err
		}
		for _, d := range view.Days {
			if d.Kind == calendar.DayKindWorking && !d.Date.Before(start) && !d.Date.After(end) {
				n++
			}
		}
	}
	return n, nil
}

// Decide implements leave.Service.
func (s *LeaveServiceImpl) Decide(ctx context.Context, companyID, requestID, actorID string, req leave.DecideRequest) (leave.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.RequestResponse{}, err
	}
	decision, _ := leave.ParseDecision(strings.ToLower(req.Decision))
	now := s.clock().UTC()

	var updated leave.Request
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, companyID, requestID)
		if err != nil {
			return err
		}
		if current.State == leave.StateResolved {
			return leave.ErrAlreadyResolved
		}
		if req.Version != nil && *req.Version != current.Version {
			return leave.ErrVersionConflict
		}

		next := current
		next.State = leave.StateResolved
		next.Resolution = &decision
		next.ResolvedBy = &actorID
		next.ResolvedAt = &now
		next.ResolutionNote = req.Note

		updated, err = s.repo.Update(txCtx, next, current.Version)
		if err != nil {
			return err
		}

		action := audit.ActionApproved
		if decision == leave.DecisionRejected {
			action = audit.ActionRejected
		}
		decisionStr := string(decision)
		_, err = s.audit.Append(txCtx, audit.AppendRequest{
			CompanyID:  companyID,
			ActorID:    actorID,
			Action:     action,
			EntityType: audit.EntityLeaveRequest,
			EntityID:   requestID,
			Decision:   &decisionStr,
			Reason:     req.Note,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, leave.ErrVersionConflict) {
			slog.Warn("Leave decision lost a concurrent update",
				"company_id", companyID,
				"request_id", requestID,
				"actor_id", actorID,
			)
		}
		return leave.RequestResponse{}, err
	}

	slog.Info("Leave request resolved",
		"company_id", companyID,
		"request_id", requestID,
		"decision", decision,
		"level", updated.Level,
	)
	return leave.ToRequestResponse(updated), nil
}

func (s *LeaveServiceImpl) Get(ctx context.Context, companyID, requestID string) (leave.RequestResponse, error) {
	request, err := s.repo.GetByID(ctx, companyID, requestID)
	if err != nil {
		return leave.RequestResponse{}, err
	}
	return leave.ToRequestResponse(request), nil
}

func (s *LeaveServiceImpl) List(ctx context.Context, companyID string, query leave.ListQuery) (leave.ListResponse, error) {
	if err := query.Validate(); err != nil {
		return leave.ListResponse{}, err
	}

	requests, total, err := s.repo.List(ctx, companyID, query.ToFilter())
	if err != nil {
		return leave.ListResponse{}, err
	}

	resp := leave.ListResponse{
		Requests: make([]leave.RequestResponse, 0, len(requests)),
		Total:    total,
		Page:     query.Page,
		Limit:    query.Limit,
	}
	for _, r := range requests {
		resp.Requests = append(resp.Requests, leave.ToRequestResponse(r))
	}
	return resp, nil
}

func (s *LeaveServiceImpl) ListAll(ctx context.Context, companyID string) ([]leave.Request, error) {
	return s.repo.ListAll(ctx, companyID)
}

func (s *LeaveServiceImpl) ApprovedBetween(ctx context.Context, companyID string, from, to time.Time) ([]leave.Request, error) {
	return s.repo.ListApprovedInRange(ctx, companyID, from, to)
}
