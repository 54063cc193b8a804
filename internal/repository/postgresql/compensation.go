package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compensation"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type compensationRepository struct {
	db *database.DB
}

func NewCompensationRepository(db *database.DB) compensation.Repository {
	return &compensationRepository{db: db}
}

const profileColumns = `id, company_id, employee_id, effective_from, base_salary, allowances, pf_rate::text,
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

	err = q.QueryRow(ctx, `
		INSERT INTO compensation_profiles (
			id, company_id, employee_id, effective_from, base_salary, allowances, pf_rate,
			professional_tax, insurance_amount, other_deductions, gst_applicable, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11, $12)
		RETURNING created_at
	`, p.ID, p.CompanyID, p.EmployeeID, p.EffectiveFrom, p.BaseSalary, allowances, p.PFRate.String(),
		p.ProfessionalTax, p.InsuranceAmount, p.OtherDeductions, p.GSTApplicable, p.CreatedBy,
	).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "uk_compensation_effective") {
			return compensation.Profile{}, compensation.ErrDuplicateEffectiveDate
		}
		return compensation.Profile{}, fmt.Errorf("failed to create compensation profile: %w", err)
	}
	return p, nil
}

func (r *compensationRepository) ActiveAsOf(ctx context.Context, companyID, employeeID string, asOf time.Time) (compensation.Profile, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM compensation_profiles
		WHERE company_id = $1 AND employee_id = $2 AND effective_from <= $3
		ORDER BY effective_from DESC
		LIMIT 1
	`, companyID, employeeID, asOf)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return compensation.Profile{}, compensation.ErrProfileNotFound
		}
		return compensation.Profile{}, fmt.Errorf("failed to get active compensation profile: %w", err)
	}
	return p, nil
}

func (r *compensationRepository) ListHistory(ctx context.Context, companyID, employeeID string) ([]compensation.Profile, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+profileColumns+`
		FROM compensation_profiles
		WHERE company_id = $1 AND employee_id = $2
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

	rows, err := q.Query(ctx, `
		SELECT DISTINCT ON (employee_id) `+profileColumns+`
		FROM compensation_profiles
		WHERE company_id = $1 AND effective_from <= $2
		ORDER BY employee_id, effective_from DESC
	`, companyID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list active compensation profiles: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (r *compensationRepository) ListEmployeeIDs(ctx context.Context, companyID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT DISTINCT employee_id FROM compensation_profiles WHERE company_id = $1 ORDER BY employee_id
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

func collectProfiles(rows pgx.Rows) ([]compensation.Profile, error) {
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

func scanProfile(row pgx.Row) (compensation.Profile, error) {
	var p compensation.Profile
	var allowances []byte
	var pfRate string
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.EmployeeID, &p.EffectiveFrom, &p.BaseSalary, &allowances, &pfRate,
		&p.ProfessionalTax, &p.InsuranceAmount, &p.OtherDeductions, &p.GSTApplicable, &p.CreatedBy, &p.CreatedAt,
	)
	if err != nil {
		return compensation.Profile{}, err
	}
	if err := json.Unmarshal(allowances, &p.Allowances); err != nil {
		return compensation.Profile{}, fmt.Errorf("failed to decode allowances: %w", err)
	}
	if p.PFRate, err = decimal.NewFromString(pfRate); err != nil {
		return compensation.Profile{}, fmt.Errorf("failed to decode pf_rate: %w", err)
	}
	return p, nil
}
