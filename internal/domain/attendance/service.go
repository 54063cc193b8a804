package attendance

import (
	"context"
	"time"
)

type Service interface {
	// RecordDay stores one day, deriving the holiday and blocked flags from
	// the company calendar.
	RecordDay(ctx context.Context, companyID string, req RecordDayRequest) (DayResponse, error)
	ListPeriod(ctx context.Context, companyID string, query ListPeriodQuery) ([]DayResponse, error)
	// DaysBetween is the raw ledger read used by payroll.
	DaysBetween(ctx context.Context, companyID string, from, to time.Time) ([]Day, error)
}
