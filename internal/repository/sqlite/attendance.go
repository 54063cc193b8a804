package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.SQLiteDB
}

func NewAttendanceRepository(db *database.SQLiteDB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Upsert(ctx context.Context, day attendance.Day) (attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	var leaveType interface{}
	if day.LeaveType != nil {
		leaveType = string(*day.LeaveType)
	}
	day.UpdatedAt = nowUTC()

	_, err := q.ExecContext(ctx, `
		INSERT INTO attendance_days (company_id, employee_id, date, status, leave_type, is_holiday, is_blocked, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, employee_id, date) DO UPDATE SET
			status = excluded.status,
			leave_type = excluded.leave_type,
			is_holiday = excluded.is_holiday,
			is_blocked = excluded.is_blocked,
			updated_at = excluded.updated_at
	`, day.CompanyID, day.EmployeeID, formatDate(day.Date), string(day.Status), leaveType,
		day.IsHoliday, day.IsBlocked, formatTimestamp(day.UpdatedAt))
	if err != nil {
		return attendance.Day{}, fmt.Errorf("failed to upsert attendance day: %w", err)
	}
	return day, nil
}

func (r *attendanceRepository) ListByPeriod(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT company_id, employee_id, date, status, leave_type, is_holiday, is_blocked, updated_at
		FROM attendance_days
		WHERE company_id = ?
		  AND (? = '' OR employee_id = ?)
		  AND date BETWEEN ? AND ?
		ORDER BY employee_id, date
	`, companyID, employeeID, employeeID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance days: %w", err)
	}
	defer rows.Close()

	var days []attendance.Day
	for rows.Next() {
		var d attendance.Day
		var date, status, updatedAt string
		var leaveType sql.NullString
		if err := rows.Scan(&d.CompanyID, &d.EmployeeID, &date, &status, &leaveType, &d.IsHoliday, &d.IsBlocked, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance day: %w", err)
		}
		if d.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("failed to parse attendance date: %w", err)
		}
		if d.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse attendance timestamp: %w", err)
		}
		d.Status = attendance.Status(status)
		if leaveType.Valid {
			lt := attendance.LeaveType(leaveType.String)
			d.LeaveType = &lt
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
