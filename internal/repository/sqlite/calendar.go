package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
)

type calendarRepository struct {
	db *database.SQLiteDB
}

func NewCalendarRepository(db *database.SQLiteDB) calendar.Repository {
	return &calendarRepository{db: db}
}

// ========== SETTINGS ==========

func (r *calendarRepository) GetSettings(ctx context.Context, companyID string) (calendar.Settings, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRowContext(ctx, `
		SELECT company_id, country_code, weekend_days, updated_at
		FROM calendar_settings
		WHERE company_id = ?
	`, companyID)
	s, err := scanSettings(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calendar.Settings{}, calendar.ErrSettingsNotFound
		}
		return calendar.Settings{}, fmt.Errorf("failed to get calendar settings: %w", err)
	}
	return s, nil
}

func (r *calendarRepository) UpsertSettings(ctx context.Context, settings calendar.Settings) (calendar.Settings, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRowContext(ctx, `
		INSERT INTO calendar_settings (company_id, country_code, weekend_days, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (company_id) DO UPDATE SET
			country_code = excluded.country_code,
			weekend_days = excluded.weekend_days,
			updated_at = excluded.updated_at
		RETURNING company_id, country_code, weekend_days, updated_at
	`, settings.CompanyID, settings.CountryCode, encodeWeekdays(settings.Weekend), formatTimestamp(nowUTC()))
	s, err := scanSettings(row)
	if err != nil {
		return calendar.Settings{}, fmt.Errorf("failed to upsert calendar settings: %w", err)
	}
	return s, nil
}

// ListCompanyIDs returns every company known to any engine table, whether
// or not it saved calendar settings.
func (r *calendarRepository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSettings(row rowScanner) (calendar.Settings, error) {
	var s calendar.Settings
	var weekend, updatedAt string
	if err := row.Scan(&s.CompanyID, &s.CountryCode, &weekend, &updatedAt); err != nil {
		return calendar.Settings{}, err
	}
	days, err := decodeWeekdays(weekend)
	if err != nil {
		return calendar.Settings{}, err
	}
	s.Weekend = days
	if s.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return calendar.Settings{}, err
	}
	return s, nil
}

// ========== HOLIDAYS ==========

func (r *calendarRepository) ListHolidays(ctx context.Context, companyID string, from, to time.Time) ([]calendar.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT company_id, date, name, is_custom, created_at
		FROM holidays
		WHERE company_id = ? AND date BETWEEN ? AND ?
		ORDER BY date
	`, companyID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (r *calendarRepository) GetHoliday(ctx context.Context, companyID string, date time.Time) (calendar.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRowContext(ctx, `
		SELECT company_id, date, name, is_custom, created_at
		FROM holidays
		WHERE company_id = ? AND date = ?
	`, companyID, formatDate(date))
	h, err := scanHoliday(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calendar.Holiday{}, calendar.ErrHolidayNotFound
		}
		return calendar.Holiday{}, fmt.Errorf("failed to get holiday: %w", err)
	}
	return h, nil
}

func scanHoliday(row rowScanner) (calendar.Holiday, error) {
	var h calendar.Holiday
	var date, createdAt string
	if err := row.Scan(&h.CompanyID, &date, &h.Name, &h.IsCustom, &createdAt); err != nil {
		return calendar.Holiday{}, err
	}
	var err error
	if h.Date, err = parseDate(date); err != nil {
		return calendar.Holiday{}, err
	}
	if h.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return calendar.Holiday{}, err
	}
	return h, nil
}

func (r *calendarRepository) InsertHoliday(ctx context.Context, holiday calendar.Holiday) (bool, error) {
	q := GetQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `
		INSERT INTO holidays (company_id, date, name, is_custom, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (company_id, date) DO NOTHING
	`, holiday.CompanyID, formatDate(holiday.Date), holiday.Name, holiday.IsCustom, formatTimestamp(nowUTC()))
	if err != nil {
		return false, fmt.Errorf("failed to insert holiday: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert holiday: %w", err)
	}
	return n == 1, nil
}

func (r *calendarRepository) UpsertPublicHoliday(ctx context.Context, holiday calendar.Holiday) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.ExecContext(ctx, `
		INSERT INTO holidays (company_id, date, name, is_custom, created_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (company_id, date) DO UPDATE SET
			name = excluded.name,
			is_custom = 0
	`, holiday.CompanyID, formatDate(holiday.Date), holiday.Name, formatTimestamp(nowUTC()))
	if err != nil {
		return fmt.Errorf("failed to upsert public holiday: %w", err)
	}
	return nil
}

func (r *calendarRepository) DeleteCustomHoliday(ctx context.Context, companyID string, date time.Time) error {
	q := GetQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `
		DELETE FROM holidays WHERE company_id = ? AND date = ? AND is_custom = 1
	`, companyID, formatDate(date))
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return calendar.ErrHolidayNotFound
	}
	return nil
}

func (r *calendarRepository) DeletePublicHolidays(ctx context.Context, companyID string, year int) (int64, error) {
	q := GetQuerier(ctx, r.db)

	from, to := calendar.YearRange(year)
	res, err := q.ExecContext(ctx, `
		DELETE FROM holidays
		WHERE company_id = ? AND is_custom = 0 AND date BETWEEN ? AND ?
	`, companyID, formatDate(from), formatDate(to))
	if err != nil {
		return 0, fmt.Errorf("failed to delete public holidays: %w", err)
	}
	return res.RowsAffected()
}

// ========== BLOCKED DATES ==========

func (r *calendarRepository) ListBlockedDates(ctx context.Context, companyID string, from, to time.Time) ([]calendar.BlockedDate, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT company_id, date, reason, created_at
		FROM blocked_dates
		WHERE company_id = ? AND date BETWEEN ? AND ?
		ORDER BY date
	`, companyID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked dates: %w", err)
	}
	defer rows.Close()

	var blocked []calendar.BlockedDate
	for rows.Next() {
		var b calendar.BlockedDate
		var date, createdAt string
		if err := rows.Scan(&b.CompanyID, &date, &b.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan blocked date: %w", err)
		}
		if b.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("failed to parse blocked date: %w", err)
		}
		if b.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse blocked date: %w", err)
		}
		blocked = append(blocked, b)
	}
	return blocked, rows.Err()
}

func (r *calendarRepository) InsertBlockedDate(ctx context.Context, blocked calendar.BlockedDate) (bool, error) {
	q := GetQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `
		INSERT INTO blocked_dates (company_id, date, reason, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (company_id, date) DO NOTHING
	`, blocked.CompanyID, formatDate(blocked.Date), blocked.Reason, formatTimestamp(nowUTC()))
	if err != nil {
		return false, fmt.Errorf("failed to insert blocked date: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert blocked date: %w", err)
	}
	return n == 1, nil
}

func (r *calendarRepository) DeleteBlockedDate(ctx context.Context, companyID string, date time.Time) error {
	q := GetQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `DELETE FROM blocked_dates WHERE company_id = ? AND date = ?`, companyID, formatDate(date))
	if err != nil {
		return fmt.Errorf("failed to delete blocked date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return calendar.ErrBlockedDateNotFound
	}
	return nil
}

func encodeWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(s string) ([]time.Weekday, error) {
	days := []time.Weekday{}
	if s == "" {
		return days, nil
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}
