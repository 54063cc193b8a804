package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Calculate(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.Service
}

func NewPayrollHandler(payrollService payroll.Service) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// periodFromPath parses /{year}/{month}. Non-numeric segments fail validation
// the same way out-of-range ones do.
func periodFromPath(r *http.Request) (payroll.Period, error) {
	year, _ := strconv.Atoi(chi.URLParam(r, "year"))
	month, _ := strconv.Atoi(chi.URLParam(r, "month"))

	req := payroll.PeriodRequest{Year: year, Month: month}
	if err := req.Validate(); err != nil {
		return payroll.Period{}, err
	}
	return req.Period(), nil
}

// List implements PayrollHandler.
func (h *payrollHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	period, err := periodFromPath(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.List(r.Context(), claims.CompanyID, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.ToResultResponse(result))
}

// Calculate implements PayrollHandler.
func (h *payrollHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	period, err := periodFromPath(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.Calculate(r.Context(), claims.CompanyID, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll calculated successfully", payroll.ToResultResponse(result))
}

// Process implements PayrollHandler.
func (h *payrollHandlerImpl) Process(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.payrollService.Process, "Payroll processed successfully")
}

// Approve implements PayrollHandler.
func (h *payrollHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.payrollService.Approve, "Payroll approved successfully")
}

// MarkPaid implements PayrollHandler.
func (h *payrollHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.payrollService.MarkPaid, "Payroll marked as paid")
}

type payrollTransition func(ctx context.Context, companyID, actorID string, period payroll.Period) (payroll.Result, error)

func (h *payrollHandlerImpl) transition(w http.ResponseWriter, r *http.Request, apply payrollTransition, message string) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	period, err := periodFromPath(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := apply(r.Context(), claims.CompanyID, claims.UserID, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, payroll.ToResultResponse(result))
}
