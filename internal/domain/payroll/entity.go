package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compensation"
)

// Status enum. The lifecycle is strictly draft -> processed -> approved -> paid.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusProcessed Status = "processed"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusProcessed, StatusApproved, StatusPaid:
		return true
	}
	return false
}

// IsFinalized reports whether figures can no longer be recalculated.
func (s Status) IsFinalized() bool {
	return s == StatusApproved || s == StatusPaid
}

// Period is a payroll month.
type Period struct {
	Year  int
	Month time.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Bounds returns the first and last day of the period.
func (p Period) Bounds() (time.Time, time.Time) {
	first := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// Tally counts working days by outcome. Weekends and holidays are never tallied.
type Tally struct {
	Present     int `json:"present_days"`
	Absent      int `json:"absent_days"`
	Half        int `json:"half_days"`
	Late        int `json:"late_days"`
	PaidLeave   int `json:"paid_leave_days"`
	UnpaidLeave int `json:"unpaid_leave_days"`
}

// AllowanceLine is one resolved allowance amount.
type AllowanceLine struct {
	Kind   compensation.AllowanceKind `json:"kind"`
	Amount int64                      `json:"amount"`
}

// Deductions holds each line rounded on its own. Total is their plain sum.
type Deductions struct {
	LOP             int64
	HalfDay         int64
	Late            int64
	PF              int64
	ProfessionalTax int64
	Insurance       int64
	Other           int64
	Total           int64
}

// Record is the payroll outcome for one employee and period.
type Record struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	Period      Period
	ProfileID   *string
	WorkingDays int
	Tally       Tally

	PerDaySalary    int64
	BaseSalary      int64
	Allowances      []AllowanceLine
	TotalAllowances int64
	Deductions      Deductions
	GrossSalary     int64
	NetSalary       int64
	NeedsReview     bool

	Status      Status
	Version     int
	ProcessedAt *time.Time
	ProcessedBy *string
	ApprovedAt  *time.Time
	ApprovedBy  *string
	PaidAt      *time.Time
	PaidBy      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsZero reports whether the record carries no figures because the employee
// had no working days or no active profile in the period.
func (r Record) IsZero() bool {
	return r.WorkingDays == 0 || r.ProfileID == nil
}

// Summary aggregates a period. Zero records are listed but left out of the
// totals and the average.
type Summary struct {
	TotalEmployees    int            `json:"total_employees"`
	ExcludedEmployees int            `json:"excluded_employees"`
	TotalGross        int64          `json:"total_gross"`
	TotalDeductions   int64          `json:"total_deductions"`
	TotalNet          int64          `json:"total_net"`
	AverageNet        int64          `json:"average_net"`
	NeedsReview       int            `json:"needs_review"`
	StatusCounts      map[Status]int `json:"status_counts"`
}

func Summarize(records []Record) Summary {
	s := Summary{StatusCounts: make(map[Status]int)}
	for _, r := range records {
		s.StatusCounts[r.Status]++
		if r.IsZero() {
			s.ExcludedEmployees++
			continue
		}
		s.TotalEmployees++
		s.TotalGross += r.GrossSalary
		s.TotalDeductions += r.Deductions.Total
		s.TotalNet += r.NetSalary
		if r.NeedsReview {
			s.NeedsReview++
		}
	}
	if s.TotalEmployees > 0 {
		s.AverageNet = s.TotalNet / int64(s.TotalEmployees)
	}
	return s
}

type Metadata struct {
	CompanyID     string    `json:"company_id"`
	Period        string    `json:"period"`
	WorkingDays   int       `json:"working_days"`
	Holidays      int       `json:"holidays"`
	Weekends      int       `json:"weekends"`
	TotalDays     int       `json:"total_days"`
	LateGraceDays int       `json:"late_grace_days"`
	Status        Status    `json:"status,omitempty"`
	CalculatedAt  time.Time `json:"calculated_at"`
}

// Result is what every Service operation returns.
type Result struct {
	Records  []Record
	Summary  Summary
	Metadata Metadata
}

var statusRank = map[Status]int{StatusDraft: 0, StatusProcessed: 1, StatusApproved: 2, StatusPaid: 3}

// RunStatus is the least advanced status among records, or "" when empty.
func RunStatus(records []Record) Status {
	var run Status
	for _, r := range records {
		if run == "" || statusRank[r.Status] < statusRank[run] {
			run = r.Status
		}
	}
	return run
}
