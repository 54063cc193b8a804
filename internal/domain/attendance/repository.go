package attendance

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert replaces the row for (company, employee, date).
	Upsert(ctx context.Context, day Day) (Day, error)

	// ListByPeriod returns rows with from <= date <= to ordered by employee
	// then date. An empty employeeID returns every employee.
	ListByPeriod(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]Day, error)
}
