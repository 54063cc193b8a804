package user

import "github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"

var (
	ErrInsufficientPermissions = apperror.New(apperror.ErrForbidden, "insufficient permissions")
	ErrCompanyIDRequired       = apperror.New(apperror.ErrUnauthorized, "company ID is required")
	ErrInvalidRole             = apperror.New(apperror.ErrUnauthorized, "invalid role claim")
)
