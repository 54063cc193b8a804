package leave

import "github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"

var (
	ErrLeaveRequestNotFound = apperror.New(apperror.ErrNotFound, "leave request not found")
	ErrAlreadyResolved      = apperror.New(apperror.ErrAlreadyResolved, "leave request already resolved")
	ErrVersionConflict      = apperror.New(apperror.ErrConflict, "leave request was modified concurrently")
	ErrBlockedDate          = apperror.New(apperror.ErrValidation, "leave range includes a blocked date")
	ErrInvalidDateRange     = apperror.New(apperror.ErrValidation, "start_date must not be after end_date")

	ErrInsufficientNotice     = apperror.New(apperror.ErrValidation, "leave request does not give enough notice")
	ErrTooManyConsecutiveDays = apperror.New(apperror.ErrValidation, "leave request covers too many consecutive working days")
)
