package leave

import (
	"context"
	"time"
)

type Filter struct {
	State      *State
	EmployeeID *string
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, request Request) (Request, error)
	GetByID(ctx context.Context, companyID, id string) (Request, error)
	List(ctx context.Context, companyID string, filter Filter) ([]Request, int64, error)
	// ListAll returns every request of the company, oldest first.
	ListAll(ctx context.Context, companyID string) ([]Request, error)
	// ListOverdue returns pending requests of every company whose deadline
	// is at or before now, earliest deadline first.
	ListOverdue(ctx context.Context, now time.Time) ([]Request, error)
	// ListApprovedInRange returns approved requests overlapping [from, to].
	ListApprovedInRange(ctx context.Context, companyID string, from, to time.Time) ([]Request, error)
	// Update writes request if the stored row is still pending at
	// expectedVersion, and bumps the version. Otherwise ErrVersionConflict.
	Update(ctx context.Context, request Request, expectedVersion int) (Request, error)
}

// Notifier delivers escalation notices to the approvers of the new level.
type Notifier interface {
	NotifyEscalation(ctx context.Context, notice EscalationNotice) error
}
