package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
)

// maxSweepAttempts bounds how often one request is re-read after losing a
// version race within a single sweep.
const maxSweepAttempts = 3

type sweepOutcome int

const (
	outcomeEscalated sweepOutcome = iota
	outcomeSkipped
	outcomeTerminal
)

// SweepEscalations implements leave.Service. Each escalation commits on its
// own, so one failing request never holds back the rest.
func (s *LeaveServiceImpl) SweepEscalations(ctx context.Context, now time.Time) (leave.SweepResult, error) {
	now = now.UTC()
	result := leave.SweepResult{
		Escalated:              []string{},
		AwaitingTerminalReview: []string{},
		SweptAt:                now,
	}

	overdue, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		return result, err
	}

	var errs []error
	for _, request := range overdue {
		if request.AwaitingTerminalReview(now) {
			result.AwaitingTerminalReview = append(result.AwaitingTerminalReview, request.ID)
			continue
		}

		outcome, notice, retries, err := s.escalateWithRetry(ctx, request, now)
		result.RetriedConflicts += retries
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("request %s: %w", request.ID, err))
			slog.Error("Failed to escalate leave request",
				"company_id", request.CompanyID,
				"request_id", request.ID,
				"error", err,
			)
			continue
		}

		switch outcome {
		case outcomeEscalated:
			result.Escalated = append(result.Escalated, request.ID)
			s.notify(ctx, notice)
		case outcomeTerminal:
			result.AwaitingTerminalReview = append(result.AwaitingTerminalReview, request.ID)
		default:
			result.Skipped++
		}
	}

	if len(overdue) > 0 {
		slog.Info("Escalation sweep finished",
			"overdue", len(overdue),
			"escalated", len(result.Escalated),
			"awaiting_terminal_review", len(result.AwaitingTerminalReview),
			"retried_conflicts", result.RetriedConflicts,
			"failed", result.Failed,
		)
	}
	return result, errors.Join(errs...)
}

func (s *LeaveServiceImpl) escalateWithRetry(ctx context.Context, request leave.Request, now time.Time) (sweepOutcome, leave.EscalationNotice, int, error) {
	retries := 0
	for attempt := 1; ; attempt++ {
		outcome, notice, err := s.escalateOnce(ctx, request, now)
		if err == nil {
			return outcome, notice, retries, nil
		}
		if !errors.Is(err, leave.ErrVersionConflict) || attempt >= maxSweepAttempts {
			return outcomeSkipped, leave.EscalationNotice{}, retries, err
		}
		retries++
		slog.Debug("Escalation lost a version race, retrying",
			"request_id", request.ID,
			"attempt", attempt,
		)
	}
}

// escalateOnce re-reads the request and moves it one level up if it is
// still pending and due.
func (s *LeaveServiceImpl) escalateOnce(ctx context.Context, request leave.Request, now time.Time) (sweepOutcome, leave.EscalationNotice, error) {
	outcome := outcomeSkipped
	var notice leave.EscalationNotice

	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, request.CompanyID, request.ID)
		if err != nil {
			return err
		}
		if !current.IsDue(now) {
			return nil
		}
		if current.Level >= leave.MaxLevel {
			outcome = outcomeTerminal
			return nil
		}

		fromLevel := current.Level
		next := current
		next.Level = fromLevel + 1
		next.Deadline = now.Add(s.policy.For(next.Level))

		updated, err := s.repo.Update(txCtx, next, current.Version)
		if err != nil {
			return err
		}

		reason := fmt.Sprintf("SLA breached at level %d", fromLevel)
		if _, err := s.audit.Append(txCtx, audit.AppendRequest{
			CompanyID:  current.CompanyID,
			ActorID:    audit.SystemActor,
			Action:     audit.ActionEscalated,
			EntityType: audit.EntityLeaveRequest,
			EntityID:   current.ID,
			Reason:     &reason,
		}); err != nil {
			return err
		}

		outcome = outcomeEscalated
		notice = leave.EscalationNotice{
			Request:   updated,
			FromLevel: fromLevel,
			ToLevel:   updated.Level,
			Role:      leave.RoleForLevel(updated.Level),
		}
		return nil
	})
	if err != nil {
		return outcomeSkipped, leave.EscalationNotice{}, err
	}
	return outcome, notice, nil
}

// notify runs after commit. Delivery failures are logged only.
func (s *LeaveServiceImpl) notify(ctx context.Context, notice leave.EscalationNotice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyEscalation(ctx, notice); err != nil {
		slog.Warn("Failed to send escalation notice",
			"company_id", notice.Request.CompanyID,
			"request_id", notice.Request.ID,
			"to_level", notice.ToLevel,
			"error", err,
		)
	}
}
