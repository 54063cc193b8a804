package http

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AuditHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type auditHandlerImpl struct {
	auditService audit.Service
}

func NewAuditHandler(auditService audit.Service) AuditHandler {
	return &auditHandlerImpl{auditService: auditService}
}

// List implements AuditHandler.
func (h *auditHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	query := audit.ListEntriesQuery{
		Action:     queryString(r, "action"),
		EntityType: queryString(r, "entity_type"),
		EntityID:   queryString(r, "entity_id"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 50),
	}
	if err := query.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.auditService.List(r.Context(), claims.CompanyID, query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Entries, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalItems,
		TotalPages: totalPages(result.TotalItems, result.Limit),
	})
}

// Verify implements AuditHandler. A broken chain is still a 200: the report
// is the answer.
func (h *auditHandlerImpl) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	report, err := h.auditService.Verify(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report)
}

// Export implements AuditHandler.
func (h *auditHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	entries, err := h.auditService.Export(ctx, claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	report, err := h.auditService.Verify(ctx, claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	buf, err := export.AuditWorkbook(entries, report)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("audit-%s-%s.xlsx", claims.CompanyID, report.VerifiedAt.Format("20060102"))
	response.Attachment(w, xlsxContentType, filename, buf.Bytes())
}
