package compensation

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateProfileRequest struct {
	EmployeeID      string          `json:"employee_id"`
	EffectiveFrom   string          `json:"effective_from"`
	BaseSalary      int64           `json:"base_salary"`
	Allowances      []Allowance     `json:"allowances"`
	PFRate          decimal.Decimal `json:"pf_rate"`
	ProfessionalTax int64           `json:"professional_tax"`
	InsuranceAmount int64           `json:"insurance_amount"`
	OtherDeductions int64           `json:"other_deductions"`
	GSTApplicable   bool            `json:"gst_applicable"`
}

func (r *CreateProfileRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "is required")
	}
	if _, ok := validator.IsValidDate(r.EffectiveFrom); !ok {
		errs.Add("effective_from", "must be in YYYY-MM-DD format")
	}
	if r.BaseSalary < 0 {
		errs.Add("base_salary", "must not be negative")
	}
	if !validator.IsPercentage(r.PFRate) {
		errs.Add("pf_rate", "must be between 0 and 100")
	}
	if r.ProfessionalTax < 0 {
		errs.Add("professional_tax", "must not be negative")
	}
	if r.InsuranceAmount < 0 {
		errs.Add("insurance_amount", "must not be negative")
	}
	if r.OtherDeductions < 0 {
		errs.Add("other_deductions", "must not be negative")
	}
	for i, a := range r.Allowances {
		field := fmt.Sprintf("allowances[%d]", i)
		if !a.Kind.IsValid() {
			errs.Add(field+".kind", "must be one of hra, travel, medical, special, other")
		}
		if !a.Mode.IsValid() {
			errs.Add(field+".mode", "must be flat or percent")
		}
		if a.Value.IsNegative() {
			errs.Add(field+".value", "must not be negative")
		}
		if a.Mode == AllowancePercent && !validator.IsPercentage(a.Value) {
			errs.Add(field+".value", "must be between 0 and 100")
		}
	}
	return errs.Err()
}

type ProfileResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EffectiveFrom   string          `json:"effective_from"`
	BaseSalary      int64           `json:"base_salary"`
	Allowances      []Allowance     `json:"allowances"`
	TotalAllowances int64           `json:"total_allowances"`
	PFRate          decimal.Decimal `json:"pf_rate"`
	ProfessionalTax int64           `json:"professional_tax"`
	InsuranceAmount int64           `json:"insurance_amount"`
	OtherDeductions int64           `json:"other_deductions"`
	GSTApplicable   bool            `json:"gst_applicable"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       string          `json:"created_at"`
}

func ToProfileResponse(p Profile) ProfileResponse {
	allowances := p.Allowances
	if allowances == nil {
		allowances = []Allowance{}
	}
	return ProfileResponse{
		ID:              p.ID,
		EmployeeID:      p.EmployeeID,
		EffectiveFrom:   p.EffectiveFrom.Format(validator.DateLayout),
		BaseSalary:      p.BaseSalary,
		Allowances:      allowances,
		TotalAllowances: p.TotalAllowances(),
		PFRate:          p.PFRate,
		ProfessionalTax: p.ProfessionalTax,
		InsuranceAmount: p.InsuranceAmount,
		OtherDeductions: p.OtherDeductions,
		GSTApplicable:   p.GSTApplicable,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
