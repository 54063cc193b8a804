package calendar

import "github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"

var (
	ErrSettingsNotFound       = apperror.New(apperror.ErrNotFound, "calendar settings not found")
	ErrHolidayNotFound        = apperror.New(apperror.ErrNotFound, "holiday not found")
	ErrBlockedDateNotFound    = apperror.New(apperror.ErrNotFound, "blocked date not found")
	ErrPublicHolidayImmutable = apperror.New(apperror.ErrValidation, "public holidays can only be changed by a refresh")
	ErrHolidaySourceFailed    = apperror.New(apperror.ErrUpstreamUnavailable, "holiday source unavailable")
	ErrInvalidPeriod          = apperror.New(apperror.ErrValidation, "invalid calendar period")
)
