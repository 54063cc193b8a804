package compensation

import "github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"

var (
	ErrProfileNotFound        = apperror.New(apperror.ErrValidation, "no compensation profile is active for the employee")
	ErrDuplicateEffectiveDate = apperror.New(apperror.ErrConflict, "a profile with this effective date already exists")
)
