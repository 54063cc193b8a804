package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.Repository {
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

	rows, err := q.Query(ctx, `
		SELECT `+payrollColumns+`
		FROM payroll_records
		WHERE company_id = $1 AND period_year = $2 AND period_month = $3
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

	row := q.QueryRow(ctx, `
		INSERT INTO payroll_records (
			id, company_id, employee_id, period_month, period_year, profile_id,
			working_days, present_days, absent_days, half_days, late_days, paid_leave_days, unpaid_leave_days,
			per_day_salary, base_salary, allowances_detail, total_allowances,
			lop_deduction, half_day_deduction, late_deduction, pf_deduction,
			professional_tax, insurance_amount, other_deductions, total_deductions,
			gross_salary, net_salary, needs_review, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, 'draft'
		)
		ON CONFLICT ON CONSTRAINT uk_payroll_employee_period DO UPDATE SET
			profile_id = EXCLUDED.profile_id,
			working_days = EXCLUDED.working_days,
			present_days = EXCLUDED.present_days,
			absent_days = EXCLUDED.absent_days,
			half_days = EXCLUDED.half_days,
			late_days = EXCLUDED.late_days,
			paid_leave_days = EXCLUDED.paid_leave_days,
			unpaid_leave_days = EXCLUDED.unpaid_leave_days,
			per_day_salary = EXCLUDED.per_day_salary,
			base_salary = EXCLUDED.base_salary,
			allowances_detail = EXCLUDED.allowances_detail,
			total_allowances = EXCLUDED.total_allowances,
			lop_deduction = EXCLUDED.lop_deduction,
			half_day_deduction = EXCLUDED.half_day_deduction,
			late_deduction = EXCLUDED.late_deduction,
			pf_deduction = EXCLUDED.pf_deduction,
			professional_tax = EXCLUDED.professional_tax,
			insurance_amount = EXCLUDED.insurance_amount,
			other_deductions = EXCLUDED.other_deductions,
			total_deductions = EXCLUDED.total_deductions,
			gross_salary = EXCLUDED.gross_salary,
			net_salary = EXCLUDED.net_salary,
			needs_review = EXCLUDED.needs_review,
			version = payroll_records.version + 1,
			updated_at = NOW()
		WHERE payroll_records.status IN ('draft', 'processed')
		RETURNING `+payrollColumns,
		uuid.Must(uuid.NewV7()).String(), rec.CompanyID, rec.EmployeeID, int(rec.Period.Month), rec.Period.Year, rec.ProfileID,
		rec.WorkingDays, t.Present, t.Absent, t.Half, t.Late, t.PaidLeave, t.UnpaidLeave,
		rec.PerDaySalary, rec.BaseSalary, allowances, rec.TotalAllowances,
		d.LOP, d.HalfDay, d.Late, d.PF,
		d.ProfessionalTax, d.Insurance, d.Other, d.Total,
		rec.GrossSalary, rec.NetSalary, rec.NeedsReview,
	)
	stored, err := scanPayrollRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Record{}, payroll.ErrAlreadyFinalized
		}
		return payroll.Record{}, fmt.Errorf("failed to upsert payroll record: %w", err)
	}
	return stored, nil
}

func (r *payrollRepository) UpdateStatus(ctx context.Context, companyID string, t payroll.Transition) error {
	q := GetQuerier(ctx, r.db)

	atColumn, byColumn, err := lifecycleColumns(t.To)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, fmt.Sprintf(`
		UPDATE payroll_records
		SET status = $1, %s = $2, %s = $3, version = version + 1, updated_at = NOW()
		WHERE company_id = $4 AND id = $5 AND version = $6 AND status = $7
	`, atColumn, byColumn), string(t.To), t.At, t.By, companyID, t.RecordID, t.ExpectedVersion, string(t.From))
	if err != nil {
		return fmt.Errorf("failed to update payroll status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrVersionConflict
	}
	return nil
}

func (r *payrollRepository) CountFinalized(ctx context.Context, companyID string, period payroll.Period) (int, error) {
	q := GetQuerier(ctx, r.db)

	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM payroll_records
		WHERE company_id = $1 AND period_year = $2 AND period_month = $3 AND status IN ('approved', 'paid')
	`, companyID, period.Year, int(period.Month)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count finalized payroll records: %w", err)
	}
	return n, nil
}

func lifecycleColumns(to payroll.Status) (string, string, error) {
	switch to {
	case payroll.StatusProcessed:
		return "processed_at", "processed_by", nil
	case payroll.StatusApproved:
		return "approved_at", "approved_by", nil
	case payroll.StatusPaid:
		return "paid_at", "paid_by", nil
	}
	return "", "", fmt.Errorf("no transition into payroll status %q", to)
}

func scanPayrollRecord(row pgx.Row) (payroll.Record, error) {
	var rec payroll.Record
	var month int
	var status string
	var allowances []byte
	t, d := &rec.Tally, &rec.Deductions
	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &month, &rec.Period.Year, &rec.ProfileID,
		&rec.WorkingDays, &t.Present, &t.Absent, &t.Half, &t.Late, &t.PaidLeave, &t.UnpaidLeave,
		&rec.PerDaySalary, &rec.BaseSalary, &allowances, &rec.TotalAllowances,
		&d.LOP, &d.HalfDay, &d.Late, &d.PF,
		&d.ProfessionalTax, &d.Insurance, &d.Other, &d.Total,
		&rec.GrossSalary, &rec.NetSalary, &rec.NeedsReview, &status, &rec.Version,
		&rec.ProcessedAt, &rec.ProcessedBy, &rec.ApprovedAt, &rec.ApprovedBy, &rec.PaidAt, &rec.PaidBy,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return payroll.Record{}, err
	}
	rec.Period.Month = time.Month(month)
	rec.Status = payroll.Status(status)
	if err := json.Unmarshal(allowances, &rec.Allowances); err != nil {
		return payroll.Record{}, fmt.Errorf("failed to decode allowances: %w", err)
	}
	return rec, nil
}
