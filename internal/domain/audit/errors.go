package audit

import "github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"

var (
	ErrSequenceTaken = apperror.New(apperror.ErrConflict, "audit sequence already assigned")
	ErrChainBroken   = apperror.New(apperror.ErrIntegrityViolation, "audit chain verification failed")
	ErrInvalidEntry  = apperror.New(apperror.ErrValidation, "audit entry is missing required fields")
	ErrUnknownAction = apperror.New(apperror.ErrValidation, "unknown audit action")
)
