package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/compliance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/response"
)

type ComplianceHandler interface {
	Dashboard(w http.ResponseWriter, r *http.Request)
}

type complianceHandlerImpl struct {
	complianceService compliance.Service
	clock             func() time.Time
}

func NewComplianceHandler(complianceService compliance.Service) ComplianceHandler {
	return &complianceHandlerImpl{complianceService: complianceService, clock: time.Now}
}

func (h *complianceHandlerImpl) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	dashboard, err := h.complianceService.Dashboard(r.Context(), claims.CompanyID, h.clock().UTC())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, dashboard)
}
