package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type calendarRepository struct {
	db *database.DB
}

func NewCalendarRepository(db *database.DB) calendar.Repository {
	return &calendarRepository{db: db}
}

// ========== SETTINGS ==========

func (r *calendarRepository) GetSettings(ctx context.Context, companyID string) (calendar.Settings, error) {
	q := GetQuerier(ctx, r.db)

	var s calendar.Settings
	var weekend []int32
	err := q.QueryRow(ctx, `
		SELECT company_id, country_code, weekend_days, updated_at
		FROM calendar_settings
		WHERE company_id = $1
	`, companyID).Scan(&s.CompanyID, &s.CountryCode, &weekend, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return calendar.Settings{}, calendar.ErrSettingsNotFound
		}
		return calendar.Settings{}, fmt.Errorf("failed to get calendar settings: %w", err)
	}
	s.Weekend = toWeekdays(weekend)
	return s, nil
}

func (r *calendarRepository) UpsertSettings(ctx context.Context, settings calendar.Settings) (calendar.Settings, error) {
	q := GetQuerier(ctx, r.db)

	var s calendar.Settings
	var weekend []int32
	err := q.QueryRow(ctx, `
		INSERT INTO calendar_settings (company_id, country_code, weekend_days)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id) DO UPDATE SET
			country_code = EXCLUDED.country_code,
			weekend_days = EXCLUDED.weekend_days,
			updated_at = NOW()
		RETURNING company_id, country_code, weekend_days, updated_at
	`, settings.CompanyID, settings.CountryCode, fromWeekdays(settings.Weekend)).Scan(
		&s.CompanyID, &s.CountryCode, &weekend, &s.UpdatedAt,
	)
	if err != nil {
		return calendar.Settings{}, fmt.Errorf("failed to upsert calendar settings: %w", err)
	}
	s.Weekend = toWeekdays(weekend)
	return s, nil
}

// ListCompanyIDs returns every company known to any engine table, whether
// or not it saved calendar settings.
func (r *calendarRepository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT company_id FROM calendar_settings
		UNION SELECT company_id FROM holidays
		UNION SELECT company_id FROM blocked_dates
		UNION SELECT company_id FROM compensation_profiles
		UNION SELECT company_id FROM attendance_days
		UNION SELECT company_id FROM leave_requests
		UNION SELECT company_id FROM audit_chain_heads
		ORDER BY company_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ========== HOLIDAYS ==========

func (r *calendarRepository) ListHolidays(ctx context.Context, companyID string, from, to time.Time) ([]calendar.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT company_id, date, name, is_custom, created_at
		FROM holidays
		WHERE company_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		if err := rows.Scan(&h.CompanyID, &h.Date, &h.Name, &h.IsCustom, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (r *calendarRepository) GetHoliday(ctx context.Context, companyID string, date time.Time) (calendar.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	var h calendar.Holiday
	err := q.QueryRow(ctx, `
		SELECT company_id, date, name, is_custom, created_at
		FROM holidays
		WHERE company_id = $1 AND date = $2
	`, companyID, date).Scan(&h.CompanyID, &h.Date, &h.Name, &h.IsCustom, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return calendar.Holiday{}, calendar.ErrHolidayNotFound
		}
		return calendar.Holiday{}, fmt.Errorf("failed to get holiday: %w", err)
	}
	return h, nil
}

func (r *calendarRepository) InsertHoliday(ctx context.Context, holiday calendar.Holiday) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		INSERT INTO holidays (company_id, date, name, is_custom)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id, date) DO NOTHING
	`, holiday.CompanyID, holiday.Date, holiday.Name, holiday.IsCustom)
	if err != nil {
		return false, fmt.Errorf("failed to insert holiday: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *calendarRepository) UpsertPublicHoliday(ctx context.Context, holiday calendar.Holiday) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO holidays (company_id, date, name, is_custom)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT (company_id, date) DO UPDATE SET
			name = EXCLUDED.name,
			is_custom = FALSE
	`, holiday.CompanyID, holiday.Date, holiday.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert public holiday: %w", err)
	}
	return nil
}

func (r *calendarRepository) DeleteCustomHoliday(ctx context.Context, companyID string, date time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		DELETE FROM holidays WHERE company_id = $1 AND date = $2 AND is_custom = TRUE
	`, companyID, date)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return calendar.ErrHolidayNotFound
	}
	return nil
}

func (r *calendarRepository) DeletePublicHolidays(ctx context.Context, companyID string, year int) (int64, error) {
	q := GetQuerier(ctx, r.db)

	from, to := calendar.YearRange(year)
	tag, err := q.Exec(ctx, `
		DELETE FROM holidays
		WHERE company_id = $1 AND is_custom = FALSE AND date BETWEEN $2 AND $3
	`, companyID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to delete public holidays: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ========== BLOCKED DATES ==========

func (r *calendarRepository) ListBlockedDates(ctx context.Context, companyID string, from, to time.Time) ([]calendar.BlockedDate, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT company_id, date, reason, created_at
		FROM blocked_dates
		WHERE company_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked dates: %w", err)
	}
	defer rows.Close()

	var blocked []calendar.BlockedDate
	for rows.Next() {
		var b calendar.BlockedDate
		if err := rows.Scan(&b.CompanyID, &b.Date, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blocked date: %w", err)
		}
		blocked = append(blocked, b)
	}
	return blocked, rows.Err()
}

func (r *calendarRepository) InsertBlockedDate(ctx context.Context, blocked calendar.BlockedDate) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		INSERT INTO blocked_dates (company_id, date, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id, date) DO NOTHING
	`, blocked.CompanyID, blocked.Date, blocked.Reason)
	if err != nil {
		return false, fmt.Errorf("failed to insert blocked date: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *calendarRepository) DeleteBlockedDate(ctx context.Context, companyID string, date time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM blocked_dates WHERE company_id = $1 AND date = $2`, companyID, date)
	if err != nil {
		return fmt.Errorf("failed to delete blocked date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return calendar.ErrBlockedDateNotFound
	}
	return nil
}

func toWeekdays(days []int32) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}

func fromWeekdays(days []time.Weekday) []int32 {
	out := make([]int32, 0, len(days))
	for _, d := range days {
		out = append(out, int32(d))
	}
	return out
}
