package calendar

import (
	"context"
	"time"
)

type Service interface {
	GetSettings(ctx context.Context, companyID string) (Settings, error)
	UpdateSettings(ctx context.Context, companyID string, req UpdateSettingsRequest) (SettingsResponse, error)

	MonthView(ctx context.Context, companyID string, year int, month time.Month) (MonthView, error)
	WorkingDays(ctx context.Context, companyID string, year, month int) (WorkingDaysResponse, error)
	GetCalendar(ctx context.Context, companyID string, year int) (CalendarResponse, error)

	AddCustomHoliday(ctx context.Context, companyID string, req AddHolidayRequest) (HolidayResponse, error)
	RemoveCustomHoliday(ctx context.Context, companyID string, date string) error
	AddBlockedDate(ctx context.Context, companyID string, req AddBlockedDateRequest) (BlockedDateResponse, error)
	RemoveBlockedDate(ctx context.Context, companyID string, date string) error
	// BlockedDatesBetween returns blocked dates with from <= date <= to.
	BlockedDatesBetween(ctx context.Context, companyID string, from, to time.Time) ([]BlockedDate, error)

	RefreshPublicHolidays(ctx context.Context, companyID string, year int) (RefreshResponse, error)
	// RefreshAllCompanies refreshes every company with saved settings.
	RefreshAllCompanies(ctx context.Context, year int) error
}
