package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

type RecordDayRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	Status     string  `json:"status"`
	LeaveType  *string `json:"leave_type,omitempty"`
}

func (r *RecordDayRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "is required")
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "must be in YYYY-MM-DD format")
	}
	status := Status(r.Status)
	if !status.IsValid() {
		errs.Add("status", "must be one of present, absent, half_day, late, on_leave")
	}
	switch {
	case status == StatusOnLeave && r.LeaveType == nil:
		errs.Add("leave_type", "is required when status is on_leave")
	case status != StatusOnLeave && r.LeaveType != nil:
		errs.Add("leave_type", "is only allowed when status is on_leave")
	case r.LeaveType != nil && !LeaveType(*r.LeaveType).IsValid():
		errs.Add("leave_type", "must be one of paid, unpaid, sick, casual, comp_off")
	}
	return errs.Err()
}

type ListPeriodQuery struct {
	EmployeeID string
	From       string
	To         string
}

// Range validates and parses the query bounds.
func (q ListPeriodQuery) Range() (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	from, ok := validator.IsValidDate(q.From)
	if !ok {
		errs.Add("from", "must be in YYYY-MM-DD format")
	}
	to, ok := validator.IsValidDate(q.To)
	if !ok {
		errs.Add("to", "must be in YYYY-MM-DD format")
	}
	if err := errs.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return from, to, nil
}

type DayResponse struct {
	EmployeeID string     `json:"employee_id"`
	Date       string     `json:"date"`
	Status     Status     `json:"status"`
	LeaveType  *LeaveType `json:"leave_type,omitempty"`
	IsHoliday  bool       `json:"is_holiday"`
	IsBlocked  bool       `json:"is_blocked"`
	UpdatedAt  string     `json:"updated_at"`
}

func ToDayResponse(d Day) DayResponse {
	return DayResponse{
		EmployeeID: d.EmployeeID,
		Date:       d.Date.Format(validator.DateLayout),
		Status:     d.Status,
		LeaveType:  d.LeaveType,
		IsHoliday:  d.IsHoliday,
		IsBlocked:  d.IsBlocked,
		UpdatedAt:  d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
