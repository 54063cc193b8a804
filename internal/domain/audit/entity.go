package audit

import "time"

// GenesisHash is the previous hash of the first entry in every company chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Action enum
type Action string

const (
	ActionSubmitted Action = "SUBMITTED"
	ActionEscalated Action = "ESCALATED"
	ActionApproved  Action = "APPROVED"
	ActionRejected  Action = "REJECTED"

	ActionPayrollProcessed Action = "PAYROLL_PROCESSED"
	ActionPayrollApproved  Action = "PAYROLL_APPROVED"
	ActionPayrollPaid      Action = "PAYROLL_PAID"

	ActionCompensationCreated Action = "COMPENSATION_CREATED"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionSubmitted, ActionEscalated, ActionApproved, ActionRejected,
		ActionPayrollProcessed, ActionPayrollApproved, ActionPayrollPaid,
		ActionCompensationCreated:
		return true
	}
	return false
}

// Entity types recorded in the chain.
const (
	EntityLeaveRequest        = "leave_request"
	EntityPayrollRun          = "payroll_run"
	EntityCompensationProfile = "compensation_profile"
)

// SystemActor is the actor id recorded for scheduler-driven transitions.
const SystemActor = "system"

// Entry is one immutable link of a company's audit chain.
type Entry struct {
	CompanyID    string
	Sequence     int64
	Timestamp    time.Time
	ActorID      string
	Action       Action
	EntityType   string
	EntityID     string
	Decision     *string
	Reason       *string
	PreviousHash string
	ContentHash  string
}

// Head is the per-company chain tip. It is only advanced by Append.
type Head struct {
	CompanyID string
	Sequence  int64
	Hash      string
}

type InvalidEntry struct {
	Sequence int64  `json:"sequence"`
	Reason   string `json:"reason"`
}

type IntegrityReport struct {
	CompanyID      string         `json:"company_id"`
	IsValid        bool           `json:"is_valid"`
	TotalEntries   int            `json:"total_entries"`
	InvalidEntries []InvalidEntry `json:"invalid_entries"`
	HeadSequence   int64          `json:"head_sequence"`
	HeadHash       string         `json:"head_hash"`
	VerifiedAt     time.Time      `json:"verified_at"`
}
