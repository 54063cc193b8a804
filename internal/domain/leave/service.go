package leave

import (
	"context"
	"time"
)

type Service interface {
	Submit(ctx context.Context, companyID, actorID string, req SubmitRequest) (RequestResponse, error)
	// Decide resolves a pending request. Conflicts are returned to the
	// caller and never retried.
	Decide(ctx context.Context, companyID, requestID, actorID string, req DecideRequest) (RequestResponse, error)
	// SweepEscalations moves every overdue request one level up.
	SweepEscalations(ctx context.Context, now time.Time) (SweepResult, error)

	Get(ctx context.Context, companyID, requestID string) (RequestResponse, error)
	List(ctx context.Context, companyID string, query ListQuery) (ListResponse, error)
	ListAll(ctx context.Context, companyID string) ([]Request, error)
	ApprovedBetween(ctx context.Context, companyID string, from, to time.Time) ([]Request, error)
}
