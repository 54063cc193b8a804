package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

type CalendarServiceImpl struct {
	tx       database.Transactor
	repo     calendar.Repository
	source   calendar.HolidaySource
	defaults calendar.Settings
}

// NewCalendarService builds the calendar provider. defaults supplies the
// country and weekend used for companies that never saved settings.
func NewCalendarService(
	tx database.Transactor,
	repo calendar.Repository,
	source calendar.HolidaySource,
	defaults calendar.Settings,
) calendar.Service {
	return &CalendarServiceImpl{
		tx:       tx,
		repo:     repo,
		source:   source,
		defaults: defaults,
	}
}

// ========== SETTINGS ==========

func (s *CalendarServiceImpl) GetSettings(ctx context.Context, companyID string) (calendar.Settings, error) {
	settings, err := s.repo.GetSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, calendar.ErrSettingsNotFound) {
			return calendar.Settings{
				CompanyID:   companyID,
				CountryCode: s.defaults.CountryCode,
				Weekend:     s.defaults.Weekend,
			}, nil
		}
		return calendar.Settings{}, err
	}
	return settings, nil
}

func (s *CalendarServiceImpl) UpdateSettings(ctx context.Context, companyID string, req calendar.UpdateSettingsRequest) (calendar.SettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return calendar.SettingsResponse{}, err
	}

	saved, err := s.repo.UpsertSettings(ctx, calendar.Settings{
		CompanyID:   companyID,
		CountryCode: req.CountryCode,
		Weekend:     req.Weekend(),
	})
	if err != nil {
		return calendar.SettingsResponse{}, err
	}
	return calendar.ToSettingsResponse(saved), nil
}

// ========== WORKING DAYS ==========

func (s *CalendarServiceImpl) MonthView(ctx context.Context, companyID string, year int, month time.Month) (calendar.MonthView, error) {
	if !validator.IsValidYear(year) || !validator.IsValidMonth(int(month)) {
		return calendar.MonthView{}, calendar.ErrInvalidPeriod
	}

	settings, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return calendar.MonthView{}, err
	}

	from, to := calendar.MonthRange(year, month)
	holidays, err := s.repo.ListHolidays(ctx, companyID, from, to)
	if err != nil {
		return calendar.MonthView{}, err
	}
	blocked, err := s.repo.ListBlockedDates(ctx, companyID, from, to)
	if err != nil {
		return calendar.MonthView{}, err
	}

	return calendar.BuildMonthView(settings, year, month, holidays, blocked), nil
}

func (s *CalendarServiceImpl) WorkingDays(ctx context.Context, companyID string, year, month int) (calendar.WorkingDaysResponse, error) {
	view, err := s.MonthView(ctx, companyID, year, time.Month(month))
	if err != nil {
		return calendar.WorkingDaysResponse{}, err
	}
	return calendar.ToWorkingDaysResponse(view), nil
}

func (s *CalendarServiceImpl) GetCalendar(ctx context.Context, companyID string, year int) (calendar.CalendarResponse, error) {
	if !validator.IsValidYear(year) {
		return calendar.CalendarResponse{}, calendar.ErrInvalidPeriod
	}

	settings, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return calendar.CalendarResponse{}, err
	}
	from, to := calendar.YearRange(year)
	holidays, err := s.repo.ListHolidays(ctx, companyID, from, to)
	if err != nil {
		return calendar.CalendarResponse{}, err
	}
	blocked, err := s.repo.ListBlockedDates(ctx, companyID, from, to)
	if err != nil {
		return calendar.CalendarResponse{}, err
	}

	resp := calendar.CalendarResponse{
		Year:         year,
		Settings:     calendar.ToSettingsResponse(settings),
		Holidays:     make([]calendar.HolidayResponse, 0, len(holidays)),
		BlockedDates: make([]calendar.BlockedDateResponse, 0, len(blocked)),
	}
	for _, h := range holidays {
		resp.Holidays = append(resp.Holidays, calendar.ToHolidayResponse(h))
	}
	for _, b := range blocked {
		resp.BlockedDates = append(resp.BlockedDates, calendar.ToBlockedDateResponse(b))
	}
	return resp, nil
}

// ========== HOLIDAYS ==========

// AddCustomHoliday is idempotent per date. An existing holiday on the date,
// public or custom, is returned unchanged.
func (s *CalendarServiceImpl) AddCustomHoliday(ctx context.Context, companyID string, req calendar.AddHolidayRequest) (calendar.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return calendar.HolidayResponse{}, err
	}
	date, _ := validator.IsValidDate(req.Date)

	var holiday calendar.Holiday
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		inserted, err := s.repo.InsertHoliday(txCtx, calendar.Holiday{
			CompanyID: companyID,
			Date:      date,
			Name:      req.Name,
			IsCustom:  true,
		})
		if err != nil {
			return err
		}
		if !inserted {
			slog.Debug("Holiday already present, custom add ignored", "company_id", companyID, "date", req.Date)
		}
		holiday, err = s.repo.GetHoliday(txCtx, companyID, date)
		return err
	})
	if err != nil {
		return calendar.HolidayResponse{}, err
	}
	return calendar.ToHolidayResponse(holiday), nil
}

func (s *CalendarServiceImpl) RemoveCustomHoliday(ctx context.Context, companyID string, dateStr string) error {
	date, ok := validator.IsValidDate(dateStr)
	if !ok {
		return validator.ValidationErrors{{Field: "date", Message: "must be in YYYY-MM-DD format"}}
	}

	return s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		holiday, err := s.repo.GetHoliday(txCtx, companyID, date)
		if err != nil {
			return err
		}
		if !holiday.IsCustom {
			return calendar.ErrPublicHolidayImmutable
		}
		return s.repo.DeleteCustomHoliday(txCtx, companyID, date)
	})
}

// RefreshPublicHolidays replaces the non-custom holidays of year with the
// upstream list. A custom holiday on an upstream date becomes public, other
// custom holidays and blocked dates are left alone, and a failed fetch leaves
// the stored calendar untouched.
func (s *CalendarServiceImpl) RefreshPublicHolidays(ctx context.Context, companyID string, year int) (calendar.RefreshResponse, error) {
	if !validator.IsValidYear(year) {
		return calendar.RefreshResponse{}, calendar.ErrInvalidPeriod
	}
	settings, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return calendar.RefreshResponse{}, err
	}

	fetched, err := s.source.PublicHolidays(ctx, settings.CountryCode, year)
	if err != nil {
		if !errors.Is(err, apperror.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %v", calendar.ErrHolidaySourceFailed, err)
		}
		return calendar.RefreshResponse{}, err
	}

	resp := calendar.RefreshResponse{Year: year, CountryCode: settings.CountryCode, Fetched: len(fetched)}
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		removed, err := s.repo.DeletePublicHolidays(txCtx, companyID, year)
		if err != nil {
			return err
		}
		resp.Removed = removed

		for _, ph := range fetched {
			if ph.Date.Year() != year {
				continue
			}
			if err := s.repo.UpsertPublicHoliday(txCtx, calendar.Holiday{
				CompanyID: companyID,
				Date:      ph.Date,
				Name:      ph.Name,
			}); err != nil {
				return err
			}
			resp.Inserted++
		}
		return nil
	})
	if err != nil {
		return calendar.RefreshResponse{}, err
	}

	slog.Info("Public holidays refreshed",
		"company_id", companyID,
		"year", year,
		"country_code", settings.CountryCode,
		"fetched", resp.Fetched,
		"inserted", resp.Inserted,
	)
	return resp, nil
}

// RefreshAllCompanies refreshes every known company, including those still
// on the default settings.
func (s *CalendarServiceImpl) RefreshAllCompanies(ctx context.Context, year int) error {
	companyIDs, err := s.repo.ListCompanyIDs(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, companyID := range companyIDs {
		if _, err := s.RefreshPublicHolidays(ctx, companyID, year); err != nil {
			errs = append(errs, fmt.Errorf("company %s: %w", companyID, err))
		}
	}
	return errors.Join(errs...)
}

// ========== BLOCKED DATES ==========

func (s *CalendarServiceImpl) AddBlockedDate(ctx context.Context, companyID string, req calendar.AddBlockedDateRequest) (calendar.BlockedDateResponse, error) {
	if err := req.Validate(); err != nil {
		return calendar.BlockedDateResponse{}, err
	}
	date, _ := validator.IsValidDate(req.Date)

	var result calendar.BlockedDate
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.InsertBlockedDate(txCtx, calendar.BlockedDate{
			CompanyID: companyID,
			Date:      date,
			Reason:    req.Reason,
		}); err != nil {
			return err
		}
		blocked, err := s.repo.ListBlockedDates(txCtx, companyID, date, date)
		if err != nil {
			return err
		}
		if len(blocked) == 0 {
			return calendar.ErrBlockedDateNotFound
		}
		result = blocked[0]
		return nil
	})
	if err != nil {
		return calendar.BlockedDateResponse{}, err
	}
	return calendar.ToBlockedDateResponse(result), nil
}

func (s *CalendarServiceImpl) RemoveBlockedDate(ctx context.Context, companyID string, dateStr string) error {
	date, ok := validator.IsValidDate(dateStr)
	if !ok {
		return validator.ValidationErrors{{Field: "date", Message: "must be in YYYY-MM-DD format"}}
	}
	return s.repo.DeleteBlockedDate(ctx, companyID, date)
}

func (s *CalendarServiceImpl) BlockedDatesBetween(ctx context.Context, companyID string, from, to time.Time) ([]calendar.BlockedDate, error) {
	return s.repo.ListBlockedDates(ctx, companyID, from, to)
}
