package payroll

import "github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"

var (
	ErrInvalidPeriod    = apperror.New(apperror.ErrValidation, "invalid payroll period")
	ErrNoRecords        = apperror.New(apperror.ErrValidation, "no payroll records for the period; calculate first")
	ErrNotProcessed     = apperror.New(apperror.ErrValidation, "every payroll record must be processed before approval")
	ErrNotApproved      = apperror.New(apperror.ErrValidation, "every payroll record must be approved before payment")
	ErrAlreadyFinalized = apperror.New(apperror.ErrAlreadyFinalized, "payroll for the period is already finalized")
	ErrAlreadyPaid      = apperror.New(apperror.ErrAlreadyFinalized, "payroll for the period is already paid")
	ErrVersionConflict  = apperror.New(apperror.ErrConflict, "payroll record was modified concurrently")
)
