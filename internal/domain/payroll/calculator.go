package payroll

import (
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compensation"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
)

// Input is everything needed to price one employee for one period.
type Input struct {
	CompanyID     string
	EmployeeID    string
	Month         calendar.MonthView
	Profile       *compensation.Profile
	Days          []attendance.Day
	ApprovedLeave []leave.Request
	LateGraceDays int
}

// Calculate prices one employee. It is pure: the same input always yields
// the same figures. The returned record is a draft with no identity.
func Calculate(in Input) Record {
	rec := Record{
		CompanyID:   in.CompanyID,
		EmployeeID:  in.EmployeeID,
		Period:      Period{Year: in.Month.Year, Month: in.Month.Month},
		WorkingDays: in.Month.WorkingDays(),
		Allowances:  []AllowanceLine{},
		Status:      StatusDraft,
	}
	if rec.WorkingDays == 0 || in.Profile == nil {
		return rec
	}

	p := in.Profile
	profileID := p.ID
	rec.ProfileID = &profileID
	rec.Tally = TallyDays(in.Month, in.Days, in.ApprovedLeave)

	rec.BaseSalary = p.BaseSalary
	rec.PerDaySalary = p.BaseSalary / int64(rec.WorkingDays)
	for _, a := range p.Allowances {
		amount := a.Amount(p.BaseSalary)
		rec.Allowances = append(rec.Allowances, AllowanceLine{Kind: a.Kind, Amount: amount})
		rec.TotalAllowances += amount
	}
	rec.GrossSalary = rec.BaseSalary + rec.TotalAllowances

	rec.Deductions = deductions(rec.PerDaySalary, rec.Tally, p, in.LateGraceDays)

	rec.NetSalary = rec.GrossSalary - rec.Deductions.Total
	if rec.NetSalary < 0 {
		rec.NetSalary = 0
		rec.NeedsReview = true
	}
	return rec
}

func deductions(perDay int64, t Tally, p *compensation.Profile, grace int) Deductions {
	excessLate := t.Late - grace
	if excessLate < 0 {
		excessLate = 0
	}

	d := Deductions{
		LOP:             perDay * int64(t.UnpaidLeave+t.Absent),
		HalfDay:         perDay * int64(t.Half) / 2,
		Late:            perDay * int64(excessLate) / 4,
		PF:              compensation.PercentOf(p.BaseSalary, p.PFRate),
		ProfessionalTax: p.ProfessionalTax,
		Insurance:       p.InsuranceAmount,
		Other:           p.OtherDeductions,
	}
	d.Total = d.LOP + d.HalfDay + d.Late + d.PF + d.ProfessionalTax + d.Insurance + d.Other
	return d
}

// TallyDays scans the working days of the month. A day without an attendance
// row is not absent; an approved leave covering it, or covering an absent
// row, counts as leave of that type instead.
func TallyDays(month calendar.MonthView, days []attendance.Day, approved []leave.Request) Tally {
	byDate := make(map[string]attendance.Day, len(days))
	for _, d := range days {
		byDate[calendar.DateKey(d.Date)] = d
	}

	var t Tally
	for _, cd := range month.Days {
		if cd.Kind != calendar.DayKindWorking {
			continue
		}
		row, ok := byDate[calendar.DateKey(cd.Date)]
		if !ok || row.Status == attendance.StatusAbsent {
			if lt, covered := approvedLeaveOn(approved, cd); covered {
				t.addLeave(lt)
				continue
			}
		}
		if !ok {
			continue
		}

		switch row.Status {
		case attendance.StatusPresent:
			t.Present++
		case attendance.StatusLate:
			t.Late++
		case attendance.StatusHalfDay:
			t.Half++
		case attendance.StatusAbsent:
			if !row.IsHoliday {
				t.Absent++
			}
		case attendance.StatusOnLeave:
			lt := attendance.LeaveTypeUnpaid
			if row.LeaveType != nil {
				lt = *row.LeaveType
			}
			t.addLeave(lt)
		}
	}
	return t
}

func (t *Tally) addLeave(lt attendance.LeaveType) {
	if lt.IsPaid() {
		t.PaidLeave++
		return
	}
	t.UnpaidLeave++
}

func approvedLeaveOn(approved []leave.Request, day calendar.Day) (attendance.LeaveType, bool) {
	for _, r := range approved {
		if r.Covers(day.Date) {
			return r.LeaveType, true
		}
	}
	return "", false
}
