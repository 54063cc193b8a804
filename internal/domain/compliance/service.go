package compliance

import (
	"context"
	"time"
)

// Service is a read-only view over the audit chain and the leave ledger.
type Service interface {
	Dashboard(ctx context.Context, companyID string, now time.Time) (Dashboard, error)
	// RequireIntact returns an integrity violation when the company chain
	// fails verification.
	RequireIntact(ctx context.Context, companyID string) error
}
