package leave

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
)

// SubmitRules are the per-leave-type guards checked when a request is
// submitted. A type missing from a map, or mapped to 0, is not limited.
type SubmitRules struct {
	// NoticeDays is the minimum number of days between today and the first
	// day of leave.
	NoticeDays map[attendance.LeaveType]int
	// MaxConsecutiveDays caps the working days a single request may cover.
	MaxConsecutiveDays map[attendance.LeaveType]int
}

// NewSubmitRules builds rules from configuration keyed by leave type name.
func NewSubmitRules(noticeDays, maxConsecutiveDays map[string]int) (SubmitRules, error) {
	notice, err := rulesByType("notice", noticeDays)
	if err != nil {
		return SubmitRules{}, err
	}
	consecutive, err := rulesByType("max consecutive", maxConsecutiveDays)
	if err != nil {
		return SubmitRules{}, err
	}
	return SubmitRules{NoticeDays: notice, MaxConsecutiveDays: consecutive}, nil
}

func rulesByType(name string, values map[string]int) (map[attendance.LeaveType]int, error) {
	out := make(map[attendance.LeaveType]int, len(values))
	for key, days := range values {
		t := attendance.LeaveType(key)
		if !t.IsValid() {
			return nil, fmt.Errorf("unknown leave type %q in %s rules", key, name)
		}
		if days < 0 {
			return nil, fmt.Errorf("%s days for %q must not be negative", name, key)
		}
		out[t] = days
	}
	return out, nil
}

// CheckNotice fails when start is fewer than the required days after the
// calendar day of now.
func (r SubmitRules) CheckNotice(leaveType attendance.LeaveType, start, now time.Time) error {
	required := r.NoticeDays[leaveType]
	if required <= 0 {
		return nil
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	given := int(start.Sub(today).Hours() / 24)
	if given < required {
		return fmt.Errorf("%w: %s leave needs %d days notice, %d given", ErrInsufficientNotice, leaveType, required, given)
	}
	return nil
}

// LimitsConsecutive reports whether leaveType has a consecutive-day cap.
func (r SubmitRules) LimitsConsecutive(leaveType attendance.LeaveType) bool {
	return r.MaxConsecutiveDays[leaveType] > 0
}

// CheckConsecutive fails when workingDays exceeds the cap for leaveType.
func (r SubmitRules) CheckConsecutive(leaveType attendance.LeaveType, workingDays int) error {
	limit := r.MaxConsecutiveDays[leaveType]
	if limit <= 0 || workingDays <= limit {
		return nil
	}
	return fmt.Errorf("%w: %s leave allows %d working days, %d requested", ErrTooManyConsecutiveDays, leaveType, limit, workingDays)
}
