package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compensation"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type CompensationHandler interface {
	CreateProfile(w http.ResponseWriter, r *http.Request)
	ListHistory(w http.ResponseWriter, r *http.Request)
	ActiveProfile(w http.ResponseWriter, r *http.Request)
}

type compensationHandlerImpl struct {
	compensationService compensation.Service
}

func NewCompensationHandler(compensationService compensation.Service) CompensationHandler {
	return &compensationHandlerImpl{compensationService: compensationService}
}

func (h *compensationHandlerImpl) CreateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req compensation.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateProfile decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.compensationService.CreateProfile(r.Context(), claims.CompanyID, claims.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Compensation profile created successfully", result)
}

func (h *compensationHandlerImpl) ListHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	result, err := h.compensationService.ListHistory(r.Context(), claims.CompanyID, chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ActiveProfile resolves the profile in force on ?as_of=, today when omitted.
func (h *compensationHandlerImpl) ActiveProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, ok := validator.IsValidDate(v)
		if !ok {
			response.HandleError(w, validator.ValidationErrors{{Field: "as_of", Message: "must be in YYYY-MM-DD format"}})
			return
		}
		asOf = parsed
	}

	profile, err := h.compensationService.ActiveProfile(r.Context(), claims.CompanyID, chi.URLParam(r, "employeeID"), asOf)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, compensation.ToProfileResponse(profile))
}
