package compensation

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compensation"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

type CompensationServiceImpl struct {
	tx    database.Transactor
	repo  compensation.Repository
	audit audit.Service
}

func NewCompensationService(tx database.Transactor, repo compensation.Repository, auditService audit.Service) compensation.Service {
	return &CompensationServiceImpl{tx: tx, repo: repo, audit: auditService}
}

// CreateProfile stores a new effective-dated version and records it in the
// audit chain within the same transaction.
func (s *CompensationServiceImpl) CreateProfile(ctx context.Context, companyID, actorID string, req compensation.CreateProfileRequest) (compensation.ProfileResponse, error) {
	if err := req.Validate(); err != nil {
		return compensation.ProfileResponse{}, err
	}
	effectiveFrom, _ := validator.IsValidDate(req.EffectiveFrom)

	var created compensation.Profile
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, compensation.Profile{
			CompanyID:       companyID,
			EmployeeID:      req.EmployeeID,
			EffectiveFrom:   effectiveFrom,
			BaseSalary:      req.BaseSalary,
			Allowances:      req.Allowances,
			PFRate:          req.PFRate,
			ProfessionalTax: req.ProfessionalTax,
			InsuranceAmount: req.InsuranceAmount,
			OtherDeductions: req.OtherDeductions,
			GSTApplicable:   req.GSTApplicable,
			CreatedBy:       actorID,
		})
		if err != nil {
			return err
		}

		reason := "effective from " + req.EffectiveFrom
		_, err = s.audit.Append(txCtx, audit.AppendRequest{
			CompanyID:  companyID,
			ActorID:    actorID,
			Action:     audit.ActionCompensationCreated,
			EntityType: audit.EntityCompensationProfile,
			EntityID:   created.ID,
			Reason:     &reason,
		})
		return err
	})
	if err != nil {
		return compensation.ProfileResponse{}, err
	}

	slog.Info("Compensation profile created",
		"company_id", companyID,
		"employee_id", created.EmployeeID,
		"profile_id", created.ID,
		"effective_from", req.EffectiveFrom,
	)
	return compensation.ToProfileResponse(created), nil
}

func (s *CompensationServiceImpl) ActiveProfile(ctx context.Context, companyID, employeeID string, asOf time.Time) (compensation.Profile, error) {
	return s.repo.ActiveAsOf(ctx, companyID, employeeID, asOf)
}

func (s *CompensationServiceImpl) ListHistory(ctx context.Context, companyID, employeeID string) ([]compensation.ProfileResponse, error) {
	profiles, err := s.repo.ListHistory(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	resp := make([]compensation.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, compensation.ToProfileResponse(p))
	}
	return resp, nil
}

func (s *CompensationServiceImpl) ListActiveForCompany(ctx context.Context, companyID string, asOf time.Time) ([]compensation.Profile, error) {
	return s.repo.ListActiveAsOf(ctx, companyID, asOf)
}

func (s *CompensationServiceImpl) ListEmployeeIDs(ctx context.Context, companyID string) ([]string, error) {
	return s.repo.ListEmployeeIDs(ctx, companyID)
}
