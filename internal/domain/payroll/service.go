package payroll

import "context"

type Service interface {
	// Calculate prices every compensated employee and stores draft figures.
	// It does not change any status and writes no audit entry.
	Calculate(ctx context.Context, companyID string, period Period) (Result, error)
	Process(ctx context.Context, companyID, actorID string, period Period) (Result, error)
	Approve(ctx context.Context, companyID, actorID string, period Period) (Result, error)
	MarkPaid(ctx context.Context, companyID, actorID string, period Period) (Result, error)
	List(ctx context.Context, companyID string, period Period) (Result, error)
}
