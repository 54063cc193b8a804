package payroll

import (
	"context"
	"time"
)

// Transition moves one record to a new status. By and At fill the
// lifecycle columns of the target status.
type Transition struct {
	RecordID        string
	ExpectedVersion int
	From            Status
	To              Status
	By              string
	At              time.Time
}

type Repository interface {
	ListByPeriod(ctx context.Context, companyID string, period Period) ([]Record, error)
	// Upsert inserts the record or overwrites the figures of an existing
	// draft or processed record, keeping its status. It returns
	// ErrAlreadyFinalized when the stored record is approved or paid.
	Upsert(ctx context.Context, rec Record) (Record, error)
	// UpdateStatus applies t only if the stored version and status still
	// match, otherwise it returns ErrVersionConflict.
	UpdateStatus(ctx context.Context, companyID string, t Transition) error
	CountFinalized(ctx context.Context, companyID string, period Period) (int, error)
}
