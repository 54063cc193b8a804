package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type payrollRepository struct {
	db *database.SQLiteDB
}

func NewPayrollRepository(db *database.SQLiteDB) payroll.Repository {
	return &payrollRepository{db: db}
}

const payrollColumns = `id, company_id, employee_id, period_month, period_year, profile_id,
	working_days, present_days, absent_days, half_days, late_days, paid_leave_days, unpaid_leave_days,
	per_day_salary, base_salary, allowances_detail, total_allowances,
	lop_deduction, half_day_deduction, late_deduction, pf_deduction,
	professional_tax, insurance_amount, other_deductions, total_deductions,
	gross_salary, net_salary, needs_review, status, version,
	processed_at, processed_by, approved_at, approved_by, paid_at, paid_by, created_at, updated_at`

func (r *payrollRepository) ListByPeriod(ctx context.Context, companyID string, period payroll.Period) ([]payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+payrollColumns+`
		FROM payroll_records
		WHERE company_id = ? AND period_year = ? AND period_month = ?
		ORDER BY employee_id
	`, companyID, period.Year, int(period.Month))
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.Record
	for rows.Next() {
		rec, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *payrollRepository) Upsert(ctx context.Context, rec payroll.Record) (payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	allowances, err := json.Marshal(rec.Allowances)
	if err != nil {
		return payroll.Record{}, fmt.Errorf("failed to encode allowances: %w", err)
	}
	t, d := rec.Tally, rec.Deductions
	now := formatTimestamp(nowUTC())

	row := q.QueryRowContext(ctx, `
		INSERT INTO payroll_records (
			id, company_id, employee_id, period_month, period_year, profile_id,
			working_days, present_days, absent_days, half_days, late_days, paid_leave_days, unpaid_leave_days,
			per_day_salary, base_salary, allowances_detail, total_allowances,
			lop_deduction, half_day_deduction, late_deduction, pf_deduction,
			professional_tax, insurance_amount, other_deductions, total_deductions,
			gross_salary, net_salary, needs_review, status, created_at, updated_at
		) VALUES (`+placeholders(28)+`, 'draft', ?, ?)
		ON CONFLICT (company_id, employee_id, period_month, period_year) DO UPDATE SET
			profile_id = excluded.profile_id,
			working_days = excluded.working_days,
			present_days = excluded.present_days,
			absent_days = excluded.absent_days,
			half_days = excluded.half_days,
			late_days = excluded.late_days,
			paid_leave_days = excluded.paid_leave_days,
			unpaid_leave_days = excluded.unpaid_leave_days,
			per_day_salary = excluded.per_day_salary,
			base_salary = excluded.base_salary,
			allowances_detail = excluded.allowances_detail,
			total_allowances = excluded.total_allowances,
			lop_deduction = excluded.lop_deduction,
			half_day_deduction = excluded.half_day_deduction,
			late_deduction = excluded.late_deduction,
			pf_deduction = excluded.pf_deduction,
			professional_tax = excluded.professional_tax,
			insurance_amount = excluded.insurance_amount,
			other_deductions = excluded.other_deductions,
			total_deductions = excluded.total_deductions,
			gross_salary = excluded.gross_salary,
			net_salary = excluded.net_salary,
			needs_review = excluded.needs_review,
			version = payroll_records.version + 1,
			updated_at = excluded.updated_at
		WHERE payroll_records.status IN ('draft', 'processed')
		RETURNING `+payrollColumns,
		uuid.Must(uuid.NewV7()).String(), rec.CompanyID, rec.EmployeeID, int(rec.Period.Month), rec.Period.Year, rec.ProfileID,
		rec.WorkingDays, t.Present, t.Absent, t.Half, t.Late, t.PaidLeave, t.UnpaidLeave,
		rec.PerDaySalary, rec.BaseSalary, string(allowances), rec.TotalAllowances,
		d.LOP, d.HalfDay, d.Late, d.PF,
		d.ProfessionalTax, d.Insurance, d.Other, d.Total,
		rec.GrossSalary, rec.NetSalary, rec.NeedsReview, now, now,
	)
	stored, err := scanPayrollRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.Record{}, payroll.ErrAlreadyFinalized
		}
		return payroll.Record{}, fmt.Errorf("failed to upsert payroll record: %w", err)
	}
	return stored, nil
}

func (r *payrollRepository) UpdateStatus(ctx context.Context, companyID string, t payroll.Transition) error {
	q := GetQuerier(ctx, r.db)

	var atColumn, byColumn string
	switch t.To {
	case payroll.StatusProcessed:
		atColumn, byColumn = "processed_at", "processed_by"
	case payroll.StatusApproved:
		atColumn, byColumn = "approved_at", "approved_by"
	case payroll.StatusPaid:
		atColumn, byColumn = "paid_at", "paid_by"
	default:
		return fmt.Errorf("no transition into payroll status %q", t.To)
	}

	res, err := q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE payroll_records
		SET status = ?, %s = ?, %s = ?, version = version + 1, updated_at = ?
		WHERE company_id = ? AND id = ? AND version = ? AND status = ?
	`, atColumn, byColumn), string(t.To), formatTimestamp(t.At), t.By, formatTimestamp(nowUTC()),
		companyID, t.RecordID, t.ExpectedVersion, string(t.From))
	if err != nil {
		return fmt.Errorf("failed to update payroll status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update payroll status: %w", err)
	}
	if n == 0 {
		return payroll.ErrVersionConflict
	}
	return nil
}

func (r *payrollRepository) CountFinalized(ctx context.Context, companyID string, period payroll.Period) (int, error) {
	q := GetQuerier(ctx, r.db)

	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payroll_records
		WHERE company_id = ? AND period_year = ? AND period_month = ? AND status IN ('approved', 'paid')
	`, companyID, period.Year, int(period.Month)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count finalized payroll records: %w", err)
	}
	return n, nil
}

func scanPayrollRecord(row rowScanner) (payroll.Record, error) {
	var rec payroll.Record
	var month int
	var status, allowances, createdAt, updatedAt string
	var profileID, processedAt, processedBy, approvedAt, approvedBy, paidAt, paidBy sql.NullString
	t, d := &rec.Tally, &rec.Deductions
	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &month, &rec.Period.Year, &profileID,
		&rec.WorkingDays, &t.Present, &t.Absent, &t.Half, &t.Late, &t.PaidLeave, &t.UnpaidLeave,
		&rec.PerDaySalary, &rec.BaseSalary, &allowances, &rec.TotalAllowances,
		&d.LOP, &d.HalfDay, &d.Late, &d.PF,
		&d.ProfessionalTax, &d.Insurance, &d.Other, &d.Total,
		&rec.GrossSalary, &rec.NetSalary, &rec.NeedsReview, &status, &rec.Version,
		&processedAt, &processedBy, &approvedAt, &approvedBy, &paidAt, &paidBy,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return payroll.Record{}, err
	}
	rec.Period.Month = time.Month(month)
	rec.Status = payroll.Status(status)
	rec.ProfileID = nullString(profileID)
	rec.ProcessedBy = nullString(processedBy)
	rec.ApprovedBy = nullString(approvedBy)
	rec.PaidBy = nullString(paidBy)
	if rec.ProcessedAt, err = parseNullTimestamp(processedAt); err != nil {
		return payroll.Record{}, err
	}
	if rec.ApprovedAt, err = parseNullTimestamp(approvedAt); err != nil {
		return payroll.Record{}, err
	}
	if rec.PaidAt, err = parseNullTimestamp(paidAt); err != nil {
		return payroll.Record{}, err
	}
	if rec.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return payroll.Record{}, err
	}
	if rec.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return payroll.Record{}, err
	}
	if err := json.Unmarshal([]byte(allowances), &rec.Allowances); err != nil {
		return payroll.Record{}, fmt.Errorf("failed to decode allowances: %w", err)
	}
	return rec, nil
}
