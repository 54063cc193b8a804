package audit

import "context"

type Filter struct {
	Action     *Action
	EntityType *string
	EntityID   *string
	Limit      int
	Offset     int
}

// Repository persists the chain. All writes are expected to run inside a
// transaction started by the caller.
type Repository interface {
	// LockHead returns the chain head for companyID, creating a genesis head
	// when none exists, and holds a write lock on it until the transaction ends.
	LockHead(ctx context.Context, companyID string) (Head, error)
	SaveHead(ctx context.Context, head Head) error
	Insert(ctx context.Context, entry Entry) error

	GetHead(ctx context.Context, companyID string) (Head, error)
	// ListAll returns every entry of the company ordered by sequence.
	ListAll(ctx context.Context, companyID string) ([]Entry, error)
	List(ctx context.Context, companyID string, filter Filter) ([]Entry, int64, error)
	ListCompanyIDs(ctx context.Context) ([]string, error)
}
