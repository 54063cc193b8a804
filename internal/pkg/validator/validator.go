package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is(err, apperror.ErrValidation) match field errors.
func (v ValidationErrors) Unwrap() error {
	return apperror.ErrValidation
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns v as an error, or nil when empty.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var countryCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)

// IsValidCountryCode accepts ISO 3166-1 alpha-2 codes in upper case.
func IsValidCountryCode(code string) bool {
	return countryCodeRegex.MatchString(code)
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse(DateLayout, dateStr)
	return date, err == nil
}

// IsValidMonth reports whether month is in 1..12.
func IsValidMonth(month int) bool {
	return month >= 1 && month <= 12
}

// IsValidYear bounds payroll and calendar years to a sane window.
func IsValidYear(year int) bool {
	return year >= 1970 && year <= 9999
}

var hundred = decimal.NewFromInt(100)

// IsPercentage reports whether p is within [0, 100].
func IsPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}
