package leave

import (
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
)

// MaxLevel is the last approval level. Requests overdue at this level are
// reported but never escalated further.
const MaxLevel = 3

// State enum
type State string

const (
	StatePending  State = "pending"
	StateResolved State = "resolved"
)

func (s State) IsValid() bool {
	return s == StatePending || s == StateResolved
}

// Decision enum
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ParseDecision accepts both the verb and the past-tense form.
func ParseDecision(s string) (Decision, bool) {
	switch s {
	case "approve", string(DecisionApproved):
		return DecisionApproved, true
	case "reject", string(DecisionRejected):
		return DecisionRejected, true
	}
	return "", false
}

// ApproverRole enum
type ApproverRole string

const (
	RoleManager  ApproverRole = "manager"
	RoleHR       ApproverRole = "hr"
	RoleDirector ApproverRole = "director"
)

// RoleForLevel maps an approval level to the role that owns it.
func RoleForLevel(level int) ApproverRole {
	switch level {
	case 1:
		return RoleManager
	case 2:
		return RoleHR
	default:
		return RoleDirector
	}
}

// SLAPolicy holds how long each level may sit before escalating.
type SLAPolicy struct {
	Level1 time.Duration
	Level2 time.Duration
	Level3 time.Duration
}

var DefaultSLAPolicy = SLAPolicy{
	Level1: 48 * time.Hour,
	Level2: 24 * time.Hour,
	Level3: 24 * time.Hour,
}

func (p SLAPolicy) For(level int) time.Duration {
	switch level {
	case 1:
		return p.Level1
	case 2:
		return p.Level2
	default:
		return p.Level3
	}
}

// InitialDeadline is the level-1 deadline of a request submitted at now:
// the SLA, cut short when the leave itself starts earlier.
func (p SLAPolicy) InitialDeadline(start, now time.Time) time.Time {
	deadline := now.Add(p.Level1)
	startOfLeave := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	if startOfLeave.Before(deadline) {
		return startOfLeave
	}
	return deadline
}

// Request is a leave request moving through the approval levels.
// Resolution, ResolvedBy and ResolvedAt are set only once State is resolved.
type Request struct {
	ID             string
	CompanyID      string
	EmployeeID     string
	LeaveType      attendance.LeaveType
	StartDate      time.Time
	EndDate        time.Time
	Reason         string
	State          State
	Level          int
	Deadline       time.Time
	Resolution     *Decision
	ResolvedBy     *string
	ResolvedAt     *time.Time
	ResolutionNote *string
	SubmittedBy    string
	SubmittedAt    time.Time
	UpdatedAt      time.Time
	Version        int
}

// IsDue reports whether the deadline has passed while still pending.
func (r Request) IsDue(now time.Time) bool {
	return r.State == StatePending && !now.Before(r.Deadline)
}

// AwaitingTerminalReview reports whether the request is overdue at the last level.
func (r Request) AwaitingTerminalReview(now time.Time) bool {
	return r.IsDue(now) && r.Level >= MaxLevel
}

// Covers reports whether date falls within the leave, inclusive.
func (r Request) Covers(date time.Time) bool {
	return !date.Before(r.StartDate) && !date.After(r.EndDate)
}

// EscalationNotice is handed to the Notifier after an escalation commits.
type EscalationNotice struct {
	Request   Request
	FromLevel int
	ToLevel   int
	Role      ApproverRole
}

// SweepResult summarizes one escalation sweep.
type SweepResult struct {
	Escalated              []string  `json:"escalated"`
	AwaitingTerminalReview []string  `json:"awaiting_terminal_review"`
	RetriedConflicts       int       `json:"retried_conflicts"`
	Skipped                int       `json:"skipped"`
	Failed                 int       `json:"failed"`
	SweptAt                time.Time `json:"swept_at"`
}
