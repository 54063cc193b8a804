package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Upsert(ctx context.Context, day attendance.Day) (attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	var leaveType *string
	if day.LeaveType != nil {
		lt := string(*day.LeaveType)
		leaveType = &lt
	}

	err := q.QueryRow(ctx, `
		INSERT INTO attendance_days (company_id, employee_id, date, status, leave_type, is_holiday, is_blocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id, employee_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			leave_type = EXCLUDED.leave_type,
			is_holiday = EXCLUDED.is_holiday,
			is_blocked = EXCLUDED.is_blocked,
			updated_at = NOW()
		RETURNING updated_at
	`, day.CompanyID, day.EmployeeID, day.Date, string(day.Status), leaveType, day.IsHoliday, day.IsBlocked).Scan(&day.UpdatedAt)
	if err != nil {
		return attendance.Day{}, fmt.Errorf("failed to upsert attendance day: %w", err)
	}
	return day, nil
}

func (r *attendanceRepository) ListByPeriod(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT company_id, employee_id, date, status, leave_type, is_holiday, is_blocked, updated_at
		FROM attendance_days
		WHERE company_id = $1
		  AND ($2::text = '' OR employee_id = $2)
		  AND date BETWEEN $3 AND $4
		ORDER BY employee_id, date
	`, companyID, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance days: %w", err)
	}
	defer rows.Close()

	var days []attendance.Day
	for rows.Next() {
		var d attendance.Day
		var status string
		var leaveType *string
		if err := rows.Scan(&d.CompanyID, &d.EmployeeID, &d.Date, &status, &leaveType, &d.IsHoliday, &d.IsBlocked, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance day: %w", err)
		}
		d.Status = attendance.Status(status)
		if leaveType != nil {
			lt := attendance.LeaveType(*leaveType)
			d.LeaveType = &lt
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
