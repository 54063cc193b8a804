package attendance

import "github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"

var (
	ErrAbsentOnHoliday = apperror.New(apperror.ErrValidation, "an employee cannot be absent on a holiday")
	ErrInvalidRange    = apperror.New(apperror.ErrValidation, "from must not be after to")
)
