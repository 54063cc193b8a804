package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/response"
	"github.com/goccy/go-json"
)

type AttendanceHandler interface {
	Record(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.Service
}

func NewAttendanceHandler(attendanceService attendance.Service) AttendanceHandler {
	return &attendanceHandlerImpl{attendanceService: attendanceService}
}

// Record implements AttendanceHandler.
func (h *attendanceHandlerImpl) Record(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req attendance.RecordDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Record attendance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.RecordDay(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	// Parse query parameters
	query := attendance.ListPeriodQuery{
		EmployeeID: r.URL.Query().Get("employee_id"),
		From:       r.URL.Query().Get("from"),
		To:         r.URL.Query().Get("to"),
	}

	results, err := h.attendanceService.ListPeriod(r.Context(), claims.CompanyID, query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}
