package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compensation"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type compensationRepository struct {
	db *database.SQLiteDB
}

func NewCompensationRepository(db *database.SQLiteDB) compensation.Repository {
	return &compensationRepository{db: db}
}

const profileColumns = `id, company_id, employee_id, effective_from, base_salary, allowances, pf_rate,
	professional_tax, insurance_amount, other_deductions, gst_applicable, created_by, created_at`

func (r *compensationRepository) Create(ctx context.Context, p compensation.Profile) (compensation.Profile, error) {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	if p.Allowances == nil {
		p.Allowances = []compensation.Allowance{}
	}
	allowances, err := json.Marshal(p.Allowances)
	if err != nil {
		return compensation.Profile{}, fmt.Errorf("failed to encode allowances: %w", err)
	}
	p.CreatedAt = nowUTC()

	_, err = q.ExecContext(ctx, `
		INSERT INTO compensation_profiles (`+profileColumns+`)
		VALUES (`+placeholders(13)+`)
	`, p.ID, p.CompanyID, p.EmployeeID, formatDate(p.EffectiveFrom), p.BaseSalary, string(allowances), p.PFRate.String(),
		p.ProfessionalTax, p.InsuranceAmount, p.OtherDeductions, p.GSTApplicable, p.CreatedBy, formatTimestamp(p.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return compensation.Profile{}, compensation.ErrDuplicateEffectiveDate
		}
		return compensation.Profile{}, fmt.Errorf("failed to create compensation profile: %w", err)
	}
	return p, nil
}

func (r *compensationRepository) ActiveAsOf(ctx context.Context, companyID, employeeID string, asOf time.Time) (compensation.Profile, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM compensation_profiles
		WHERE company_id = ? AND employee_id = ? AND effective_from <= ?
		ORDER BY effective_from DESC
		LIMIT 1
	`, companyID, employeeID, formatDate(asOf))
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return compensation.Profile{}, compensation.ErrProfileNotFound
		}
		return compensation.Profile{}, fmt.Errorf("failed to get active compensation profile: %w", err)
	}
	return p, nil
}

func (r *compensationRepository) ListHistory(ctx context.Context, companyID, employeeID string) ([]compensation.Profile, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM compensation_profiles
		WHERE company_id = ? AND employee_id = ?
		ORDER BY effective_from DESC
	`, companyID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list compensation history: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (r *compensationRepository) ListActiveAsOf(ctx context.Context, companyID string, asOf time.Time) ([]compensation.Profile, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM compensation_profiles p
		WHERE p.company_id = ?
		  AND p.effective_from = (
			SELECT MAX(v.effective_from)
			FROM compensation_profiles v
			WHERE v.company_id = p.company_id AND v.employee_id = p.employee_id AND v.effective_from <= ?
		  )
		ORDER BY p.employee_id
	`, companyID, formatDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to list active compensation profiles: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (r *compensationRepository) ListEmployeeIDs(ctx context.Context, companyID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT employee_id FROM compensation_profiles WHERE company_id = ? ORDER BY employee_id
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list compensated employees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectProfiles(rows *sql.Rows) ([]compensation.Profile, error) {
	var profiles []compensation.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compensation profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func scanProfile(row rowScanner) (compensation.Profile, error) {
	var p compensation.Profile
	var effectiveFrom, allowances, pfRate, createdAt string
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.EmployeeID, &effectiveFrom, &p.BaseSalary, &allowances, &pfRate,
		&p.ProfessionalTax, &p.InsuranceAmount, &p.OtherDeductions, &p.GSTApplicable, &p.CreatedBy, &createdAt,
	)
	if err != nil {
		return compensation.Profile{}, err
	}
	if p.EffectiveFrom, err = parseDate(effectiveFrom); err != nil {
		return compensation.Profile{}, err
	}
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return compensation.Profile{}, err
	}
	if err := json.Unmarshal([]byte(allowances), &p.Allowances); err != nil {
		return compensation.Profile{}, fmt.Errorf("failed to decode allowances: %w", err)
	}
	if p.PFRate, err = decimal.NewFromString(pfRate); err != nil {
		return compensation.Profile{}, fmt.Errorf("failed to decode pf_rate: %w", err)
	}
	return p, nil
}
