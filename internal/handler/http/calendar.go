package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type CalendarHandler interface {
	GetSettings(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)

	WorkingDays(w http.ResponseWriter, r *http.Request)
	GetYear(w http.ResponseWriter, r *http.Request)

	AddHoliday(w http.ResponseWriter, r *http.Request)
	RemoveHoliday(w http.ResponseWriter, r *http.Request)
	AddBlockedDate(w http.ResponseWriter, r *http.Request)
	RemoveBlockedDate(w http.ResponseWriter, r *http.Request)

	Refresh(w http.ResponseWriter, r *http.Request)
}

type calendarHandlerImpl struct {
	calendarService calendar.Service
}

func NewCalendarHandler(calendarService calendar.Service) CalendarHandler {
	return &calendarHandlerImpl{calendarService: calendarService}
}

// ========== SETTINGS ==========

func (h *calendarHandlerImpl) GetSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	settings, err := h.calendarService.GetSettings(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, calendar.ToSettingsResponse(settings))
}

func (h *calendarHandlerImpl) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req calendar.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.calendarService.UpdateSettings(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== VIEWS ==========

func (h *calendarHandlerImpl) WorkingDays(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	year, _ := strconv.Atoi(chi.URLParam(r, "year"))
	month, _ := strconv.Atoi(chi.URLParam(r, "month"))

	result, err := h.calendarService.WorkingDays(r.Context(), claims.CompanyID, year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *calendarHandlerImpl) GetYear(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	year, _ := strconv.Atoi(chi.URLParam(r, "year"))

	result, err := h.calendarService.GetCalendar(r.Context(), claims.CompanyID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== OVERRIDES ==========

func (h *calendarHandlerImpl) AddHoliday(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req calendar.AddHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("AddHoliday decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.calendarService.AddCustomHoliday(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Holiday added successfully", result)
}

func (h *calendarHandlerImpl) RemoveHoliday(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	if err := h.calendarService.RemoveCustomHoliday(r.Context(), claims.CompanyID, chi.URLParam(r, "date")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Holiday removed successfully", nil)
}

func (h *calendarHandlerImpl) AddBlockedDate(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req calendar.AddBlockedDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("AddBlockedDate decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.calendarService.AddBlockedDate(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Blocked date added successfully", result)
}

func (h *calendarHandlerImpl) RemoveBlockedDate(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	if err := h.calendarService.RemoveBlockedDate(r.Context(), claims.CompanyID, chi.URLParam(r, "date")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Blocked date removed successfully", nil)
}

// Refresh re-fetches public holidays for the year and replaces the stored set.
func (h *calendarHandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	year, _ := strconv.Atoi(chi.URLParam(r, "year"))

	result, err := h.calendarService.RefreshPublicHolidays(r.Context(), claims.CompanyID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
