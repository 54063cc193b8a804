package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type LeaveHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.Service
}

func NewLeaveHandler(leaveService leave.Service) LeaveHandler {
	return &LeaveHandlerImpl{leaveService: leaveService}
}

// Submit implements LeaveHandler.
func (l *LeaveHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req leave.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Submit leave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	// Employees file for themselves only.
	if claims.Role == user.RoleEmployee {
		if req.EmployeeID == "" {
			req.EmployeeID = claims.UserID
		}
		if req.EmployeeID != claims.UserID {
			response.HandleError(w, user.ErrInsufficientPermissions)
			return
		}
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.Submit(r.Context(), claims.CompanyID, claims.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted successfully", result)
}

// Decide implements LeaveHandler.
func (l *LeaveHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Leave request ID is required", nil)
		return
	}

	var req leave.DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Decide leave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.Decide(r.Context(), claims.CompanyID, requestID, claims.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Leave request resolved"
	if result.Resolution != nil {
		message = "Leave request " + string(*result.Resolution)
	}
	response.SuccessWithMessage(w, message, result)
}

// Get implements LeaveHandler.
func (l *LeaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	result, err := l.leaveService.Get(r.Context(), claims.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements LeaveHandler.
func (l *LeaveHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	query := leave.ListQuery{
		State:      queryString(r, "state"),
		EmployeeID: queryString(r, "employee_id"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
	}
	if err := query.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.List(r.Context(), claims.CompanyID, query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Requests, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.Total,
		TotalPages: totalPages(result.Total, result.Limit),
	})
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
