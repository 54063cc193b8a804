package compensation

import (
	"context"
	"time"
)

type Repository interface {
	// Create inserts a new version. A second version with the same
	// effective date returns ErrDuplicateEffectiveDate.
	Create(ctx context.Context, profile Profile) (Profile, error)
	ActiveAsOf(ctx context.Context, companyID, employeeID string, asOf time.Time) (Profile, error)
	// ListHistory returns every version, newest effective date first.
	ListHistory(ctx context.Context, companyID, employeeID string) ([]Profile, error)
	// ListActiveAsOf returns the active version of every employee that has one.
	ListActiveAsOf(ctx context.Context, companyID string, asOf time.Time) ([]Profile, error)
	// ListEmployeeIDs returns every employee with at least one version.
	ListEmployeeIDs(ctx context.Context, companyID string) ([]string, error)
}
