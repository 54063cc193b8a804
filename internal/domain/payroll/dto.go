package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

// PeriodRequest carries the path parameters of a payroll run.
type PeriodRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (r PeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "is out of range")
	}
	if !validator.IsValidMonth(r.Month) {
		errs.Add("month", "must be between 1 and 12")
	}
	return errs.Err()
}

func (r PeriodRequest) Period() Period {
	return Period{Year: r.Year, Month: time.Month(r.Month)}
}

type DeductionsResponse struct {
	LOP             int64 `json:"lop"`
	HalfDay         int64 `json:"half_day"`
	Late            int64 `json:"late"`
	PF              int64 `json:"pf"`
	ProfessionalTax int64 `json:"professional_tax"`
	Insurance       int64 `json:"insurance"`
	Other           int64 `json:"other"`
	Total           int64 `json:"total"`
}

type RecordResponse struct {
	ID              string             `json:"id"`
	EmployeeID      string             `json:"employee_id"`
	Period          string             `json:"period"`
	ProfileID       *string            `json:"profile_id,omitempty"`
	WorkingDays     int                `json:"working_days"`
	Tally           Tally              `json:"tally"`
	PerDaySalary    int64              `json:"per_day_salary"`
	BaseSalary      int64              `json:"base_salary"`
	Allowances      []AllowanceLine    `json:"allowances"`
	TotalAllowances int64              `json:"total_allowances"`
	GrossSalary     int64              `json:"gross_salary"`
	Deductions      DeductionsResponse `json:"deductions"`
	NetSalary       int64              `json:"net_salary"`
	NeedsReview     bool               `json:"needs_review"`
	Status          Status             `json:"status"`
	Version         int                `json:"version"`
	ProcessedAt     *time.Time         `json:"processed_at,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	PaidAt          *time.Time         `json:"paid_at,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func ToRecordResponse(r Record) RecordResponse {
	d := r.Deductions
	return RecordResponse{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		Period:          r.Period.String(),
		ProfileID:       r.ProfileID,
		WorkingDays:     r.WorkingDays,
		Tally:           r.Tally,
		PerDaySalary:    r.PerDaySalary,
		BaseSalary:      r.BaseSalary,
		Allowances:      r.Allowances,
		TotalAllowances: r.TotalAllowances,
		GrossSalary:     r.GrossSalary,
		Deductions: DeductionsResponse{
			LOP:             d.LOP,
			HalfDay:         d.HalfDay,
			Late:            d.Late,
			PF:              d.PF,
			ProfessionalTax: d.ProfessionalTax,
			Insurance:       d.Insurance,
			Other:           d.Other,
			Total:           d.Total,
		},
		NetSalary:   r.NetSalary,
		NeedsReview: r.NeedsReview,
		Status:      r.Status,
		Version:     r.Version,
		ProcessedAt: r.ProcessedAt,
		ApprovedAt:  r.ApprovedAt,
		PaidAt:      r.PaidAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type ResultResponse struct {
	Records  []RecordResponse `json:"records"`
	Summary  Summary          `json:"summary"`
	Metadata Metadata         `json:"metadata"`
}

func ToResultResponse(r Result) ResultResponse {
	records := make([]RecordResponse, 0, len(r.Records))
	for _, rec := range r.Records {
		records = append(records, ToRecordResponse(rec))
	}
	return ResultResponse{Records: records, Summary: r.Summary, Metadata: r.Metadata}
}
