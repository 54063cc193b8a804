package audit

import (
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

// AppendRequest is what writers hand to the chain; sequence, timestamp and
// hashes are assigned by Append.
type AppendRequest struct {
	CompanyID  string
	ActorID    string
	Action     Action
	EntityType string
	EntityID   string
	Decision   *string
	Reason     *string
}

func (r AppendRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.CompanyID) {
		errs.Add("company_id", "is required")
	}
	if validator.IsEmpty(r.ActorID) {
		errs.Add("actor_id", "is required")
	}
	if !r.Action.IsValid() {
		errs.Add("action", "is not a known audit action")
	}
	if validator.IsEmpty(r.EntityType) {
		errs.Add("entity_type", "is required")
	}
	if validator.IsEmpty(r.EntityID) {
		errs.Add("entity_id", "is required")
	}
	return errs.Err()
}

type ListEntriesQuery struct {
	Action     *string `json:"action,omitempty"`
	EntityType *string `json:"entity_type,omitempty"`
	EntityID   *string `json:"entity_id,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (q *ListEntriesQuery) Validate() error {
	var errs validator.ValidationErrors

	if q.Action != nil && !Action(*q.Action).IsValid() {
		errs.Add("action", "is not a known audit action")
	}
	if q.Page < 0 {
		errs.Add("page", "must be positive")
	}
	if q.Limit < 0 || q.Limit > 500 {
		errs.Add("limit", "must be between 1 and 500")
	}
	return errs.Err()
}

// ToFilter applies paging defaults.
func (q ListEntriesQuery) ToFilter() Filter {
	page, limit := q.Page, q.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 50
	}
	f := Filter{
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if q.Action != nil {
		a := Action(*q.Action)
		f.Action = &a
	}
	return f
}

type EntryResponse struct {
	Sequence     int64     `json:"sequence"`
	Timestamp    time.Time `json:"timestamp"`
	ActorID      string    `json:"actor_id"`
	Action       Action    `json:"action"`
	EntityType   string    `json:"entity_type"`
	EntityID     string    `json:"entity_id"`
	Decision     *string   `json:"decision,omitempty"`
	Reason       *string   `json:"reason,omitempty"`
	PreviousHash string    `json:"previous_hash"`
	ContentHash  string    `json:"content_hash"`
}

func ToEntryResponse(e Entry) EntryResponse {
	return EntryResponse{
		Sequence:     e.Sequence,
		Timestamp:    e.Timestamp,
		ActorID:      e.ActorID,
		Action:       e.Action,
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		Decision:     e.Decision,
		Reason:       e.Reason,
		PreviousHash: e.PreviousHash,
		ContentHash:  e.ContentHash,
	}
}

type ListEntriesResponse struct {
	Entries    []EntryResponse `json:"entries"`
	TotalItems int64           `json:"total_items"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}
