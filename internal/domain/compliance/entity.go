package compliance

import (
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
)

// SLAMetrics describes how leave approvals are keeping up with their deadlines.
type SLAMetrics struct {
	// PendingByLevel counts pending requests per approval level, 1 to 3.
	PendingByLevel map[int]int `json:"pending_by_level"`
	// Overdue are past their deadline below the last level; the next sweep
	// escalates them.
	Overdue                int      `json:"overdue"`
	AwaitingTerminalReview []string `json:"awaiting_terminal_review"`
	Escalations            int64    `json:"escalations"`
	Approved               int      `json:"approved"`
	Rejected               int      `json:"rejected"`
	AvgResolutionHours     float64  `json:"avg_resolution_hours"`
	// BreachRate is the share of requests that escalated at least once.
	BreachRate float64 `json:"breach_rate"`
}

type Dashboard struct {
	CompanyID   string                `json:"company_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Integrity   audit.IntegrityReport `json:"integrity"`
	SLA         SLAMetrics            `json:"sla"`
}
