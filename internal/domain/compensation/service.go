package compensation

import (
	"context"
	"time"
)

type Service interface {
	CreateProfile(ctx context.Context, companyID, actorID string, req CreateProfileRequest) (ProfileResponse, error)
	ActiveProfile(ctx context.Context, companyID, employeeID string, asOf time.Time) (Profile, error)
	ListHistory(ctx context.Context, companyID, employeeID string) ([]ProfileResponse, error)
	ListActiveForCompany(ctx context.Context, companyID string, asOf time.Time) ([]Profile, error)
	ListEmployeeIDs(ctx context.Context, companyID string) ([]string, error)
}
