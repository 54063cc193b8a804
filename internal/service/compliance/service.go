package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compliance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"golang.org/x/sync/errgroup"
)

type ComplianceServiceImpl struct {
	audit audit.Service
	leave leave.Service
}

func NewComplianceService(auditService audit.Service, leaveService leave.Service) compliance.Service {
	return &ComplianceServiceImpl{audit: auditService, leave: leaveService}
}

// Dashboard gathers the chain report and the SLA figures in parallel.
func (s *ComplianceServiceImpl) Dashboard(ctx context.Context, companyID string, now time.Time) (compliance.Dashboard, error) {
	var (
		report      audit.IntegrityReport
		requests    []leave.Request
		escalations int64
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		report, err = s.audit.Verify(gCtx, companyID)
		return err
	})

	g.Go(func() error {
		var err error
		requests, err = s.leave.ListAll(gCtx, companyID)
		return err
	})

	g.Go(func() error {
		action := string(audit.ActionEscalated)
		resp, err := s.audit.List(gCtx, companyID, audit.ListEntriesQuery{Action: &action, Limit: 1})
		if err != nil {
			return err
		}
		escalations = resp.TotalItems
		return nil
	})

	if err := g.Wait(); err != nil {
		return compliance.Dashboard{}, fmt.Errorf("failed to build compliance dashboard: %w", err)
	}

	sla := slaMetrics(requests, now)
	sla.Escalations = escalations

	if !report.IsValid {
		slog.Warn("Compliance dashboard served a broken audit chain",
			"company_id", companyID,
			"invalid_entries", len(report.InvalidEntries),
		)
	}

	return compliance.Dashboard{
		CompanyID:   companyID,
		GeneratedAt: now.UTC(),
		Integrity:   report,
		SLA:         sla,
	}, nil
}

func slaMetrics(requests []leave.Request, now time.Time) compliance.SLAMetrics {
	m := compliance.SLAMetrics{
		PendingByLevel:         make(map[int]int, leave.MaxLevel),
		AwaitingTerminalReview: []string{},
	}
	for level := 1; level <= leave.MaxLevel; level++ {
		m.PendingByLevel[level] = 0
	}

	var resolvedHours float64
	var resolved, breached int
	for _, r := range requests {
		if r.Level > 1 {
			breached++
		}

		if r.State == leave.StatePending {
			m.PendingByLevel[r.Level]++
			switch {
			case r.AwaitingTerminalReview(now):
				m.AwaitingTerminalReview = append(m.AwaitingTerminalReview, r.ID)
			case r.IsDue(now):
				m.Overdue++
			}
			continue
		}

		if r.Resolution != nil {
			switch *r.Resolution {
			case leave.DecisionApproved:
				m.Approved++
			case leave.DecisionRejected:
				m.Rejected++
			}
		}
		if r.ResolvedAt != nil {
			resolvedHours += r.ResolvedAt.Sub(r.SubmittedAt).Hours()
			resolved++
		}
	}

	if resolved > 0 {
		m.AvgResolutionHours = round2(resolvedHours / float64(resolved))
	}
	if len(requests) > 0 {
		m.BreachRate = round2(float64(breached) / float64(len(requests)))
	}
	return m
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// RequireIntact implements compliance.Service.
func (s *ComplianceServiceImpl) RequireIntact(ctx context.Context, companyID string) error {
	report, err := s.audit.Verify(ctx, companyID)
	if err != nil {
		return err
	}
	if !report.IsValid {
		return fmt.Errorf("%w: %d invalid entries, first at sequence %d",
			audit.ErrChainBroken, len(report.InvalidEntries), report.InvalidEntries[0].Sequence)
	}
	return nil
}
