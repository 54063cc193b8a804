package compensation

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllowanceKind enum
type AllowanceKind string

const (
	AllowanceHRA     AllowanceKind = "hra"
	AllowanceTravel  AllowanceKind = "travel"
	AllowanceMedical AllowanceKind = "medical"
	AllowanceSpecial AllowanceKind = "special"
	AllowanceOther   AllowanceKind = "other"
)

func (k AllowanceKind) IsValid() bool {
	switch k {
	case AllowanceHRA, AllowanceTravel, AllowanceMedical, AllowanceSpecial, AllowanceOther:
		return true
	}
	return false
}

// AllowanceMode enum
type AllowanceMode string

const (
	AllowanceFlat    AllowanceMode = "flat"
	AllowancePercent AllowanceMode = "percent"
)

func (m AllowanceMode) IsValid() bool {
	return m == AllowanceFlat || m == AllowancePercent
}

// Allowance is one earning line on top of the base salary. Value is minor
// units for flat allowances and a percentage of base for percent ones.
type Allowance struct {
	Kind  AllowanceKind   `json:"kind"`
	Mode  AllowanceMode   `json:"mode"`
	Value decimal.Decimal `json:"value"`
}

// Amount returns the line in minor units, rounded down.
func (a Allowance) Amount(base int64) int64 {
	if a.Mode == AllowancePercent {
		return PercentOf(base, a.Value)
	}
	return a.Value.Floor().IntPart()
}

// PercentOf returns floor(amount * pct / 100).
func PercentOf(amount int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(pct).Div(decimal.NewFromInt(100)).Floor().IntPart()
}

// Profile is one effective-dated version of an employee's pay structure.
// Versions are append-only; the active one at instant t has the greatest
// EffectiveFrom <= t.
type Profile struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	EffectiveFrom   time.Time
	BaseSalary      int64
	Allowances      []Allowance
	PFRate          decimal.Decimal
	ProfessionalTax int64
	InsuranceAmount int64
	OtherDeductions int64
	GSTApplicable   bool
	CreatedBy       string
	CreatedAt       time.Time
}

// TotalAllowances sums every allowance line against the base salary.
func (p Profile) TotalAllowances() int64 {
	var total int64
	for _, a := range p.Allowances {
		total += a.Amount(p.BaseSalary)
	}
	return total
}
