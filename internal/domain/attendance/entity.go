package attendance

import (
	"time"
)

// Status enum
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half_day"
	StatusLate    Status = "late"
	StatusOnLeave Status = "on_leave"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusLate, StatusOnLeave:
		return true
	}
	return false
}

// LeaveType enum. Shared with leave requests.
type LeaveType string

const (
	LeaveTypePaid    LeaveType = "paid"
	LeaveTypeUnpaid  LeaveType = "unpaid"
	LeaveTypeSick    LeaveType = "sick"
	LeaveTypeCasual  LeaveType = "casual"
	LeaveTypeCompOff LeaveType = "comp_off"
)

var LeaveTypes = []LeaveType{LeaveTypePaid, LeaveTypeUnpaid, LeaveTypeSick, LeaveTypeCasual, LeaveTypeCompOff}

func (t LeaveType) IsValid() bool {
	for _, lt := range LeaveTypes {
		if t == lt {
			return true
		}
	}
	return false
}

// IsPaid reports whether a day of this leave carries salary.
func (t LeaveType) IsPaid() bool {
	return t.IsValid() && t != LeaveTypeUnpaid
}

// Day is the attendance of one employee on one date.
// (CompanyID, EmployeeID, Date) is unique; recording again replaces the row.
type Day struct {
	CompanyID  string
	EmployeeID string
	Date       time.Time
	Status     Status
	LeaveType  *LeaveType
	IsHoliday  bool
	IsBlocked  bool
	UpdatedAt  time.Time
}
