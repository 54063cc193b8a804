package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

type SubmitRequest struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "is required")
	}
	if !attendance.LeaveType(r.LeaveType).IsValid() {
		errs.Add("leave_type", "must be one of paid, unpaid, sick, casual, comp_off")
	}
	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs.Add("start_date", "must be in YYYY-MM-DD format")
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs.Add("end_date", "must be in YYYY-MM-DD format")
	}
	if err := errs.Err(); err != nil {
		return err
	}
	if start.After(end) {
		return ErrInvalidDateRange
	}
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}

type DecideRequest struct {
	Decision string  `json:"decision"`
	Note     *string `json:"note,omitempty"`
	// Version, when set, is the version the actor saw. A newer stored
	// version fails with a conflict instead of applying the decision.
	Version *int `json:"version,omitempty"`
}

func (r *DecideRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := ParseDecision(strings.ToLower(r.Decision)); !ok {
		errs.Add("decision", "must be approve or reject")
	}
	if r.Version != nil && *r.Version < 1 {
		errs.Add("version", "must be positive")
	}
	return errs.Err()
}

type ListQuery struct {
	State      *string `json:"state,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (q *ListQuery) Validate() error {
	var errs validator.ValidationErrors

	if q.State != nil && !State(*q.State).IsValid() {
		errs.Add("state", "must be pending or resolved")
	}
	if q.Page < 0 {
		errs.Add("page", "must be positive")
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit < 0 || q.Limit > 100 {
		errs.Add("limit", "must be between 1 and 100")
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	return errs.Err()
}

func (q ListQuery) ToFilter() Filter {
	f := Filter{EmployeeID: q.EmployeeID, Limit: q.Limit, Offset: (q.Page - 1) * q.Limit}
	if q.State != nil {
		s := State(*q.State)
		f.State = &s
	}
	return f
}

type RequestResponse struct {
	ID             string               `json:"id"`
	EmployeeID     string               `json:"employee_id"`
	LeaveType      attendance.LeaveType `json:"leave_type"`
	StartDate      string               `json:"start_date"`
	EndDate        string               `json:"end_date"`
	Reason         string               `json:"reason"`
	State          State                `json:"state"`
	Level          int                  `json:"level"`
	ApproverRole   ApproverRole         `json:"approver_role"`
	Deadline       string               `json:"deadline"`
	Resolution     *Decision            `json:"resolution,omitempty"`
	ResolvedBy     *string              `json:"resolved_by,omitempty"`
	ResolvedAt     *string              `json:"resolved_at,omitempty"`
	ResolutionNote *string              `json:"resolution_note,omitempty"`
	SubmittedBy    string               `json:"submitted_by"`
	SubmittedAt    string               `json:"submitted_at"`
	Version        int                  `json:"version"`
}

func ToRequestResponse(r Request) RequestResponse {
	resp := RequestResponse{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		LeaveType:      r.LeaveType,
		StartDate:      r.StartDate.Format(validator.DateLayout),
		EndDate:        r.EndDate.Format(validator.DateLayout),
		Reason:         r.Reason,
		State:          r.State,
		Level:          r.Level,
		ApproverRole:   RoleForLevel(r.Level),
		Deadline:       r.Deadline.UTC().Format(time.RFC3339),
		Resolution:     r.Resolution,
		ResolvedBy:     r.ResolvedBy,
		ResolutionNote: r.ResolutionNote,
		SubmittedBy:    r.SubmittedBy,
		SubmittedAt:    r.SubmittedAt.UTC().Format(time.RFC3339),
		Version:        r.Version,
	}
	if r.ResolvedAt != nil {
		s := r.ResolvedAt.UTC().Format(time.RFC3339)
		resp.ResolvedAt = &s
	}
	return resp
}

type ListResponse struct {
	Requests []RequestResponse `json:"requests"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}
