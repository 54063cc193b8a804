package calendar

import (
	"context"
	"time"
)

type Repository interface {
	GetSettings(ctx context.Context, companyID string) (Settings, error)
	UpsertSettings(ctx context.Context, settings Settings) (Settings, error)
	ListCompanyIDs(ctx context.Context) ([]string, error)

	// ListHolidays returns holidays with from <= date <= to ordered by date.
	ListHolidays(ctx context.Context, companyID string, from, to time.Time) ([]Holiday, error)
	GetHoliday(ctx context.Context, companyID string, date time.Time) (Holiday, error)
	// InsertHoliday is a no-op returning false when the date is already taken.
	InsertHoliday(ctx context.Context, holiday Holiday) (bool, error)
	// UpsertPublicHoliday stores a public holiday, taking over a custom one
	// on the same date.
	UpsertPublicHoliday(ctx context.Context, holiday Holiday) error
	DeleteCustomHoliday(ctx context.Context, companyID string, date time.Time) error
	// DeletePublicHolidays removes the non-custom holidays of one year.
	DeletePublicHolidays(ctx context.Context, companyID string, year int) (int64, error)

	ListBlockedDates(ctx context.Context, companyID string, from, to time.Time) ([]BlockedDate, error)
	InsertBlockedDate(ctx context.Context, blocked BlockedDate) (bool, error)
	DeleteBlockedDate(ctx context.Context, companyID string, date time.Time) error
}

// HolidaySource fetches public holidays from outside the system.
type HolidaySource interface {
	PublicHolidays(ctx context.Context, countryCode string, year int) ([]PublicHoliday, error)
}
