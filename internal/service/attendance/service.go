package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	repo     attendance.Repository
	calendar calendar.Service
}

func NewAttendanceService(repo attendance.Repository, calendarService calendar.Service) attendance.Service {
	return &AttendanceServiceImpl{repo: repo, calendar: calendarService}
}

// RecordDay implements attendance.Service.
func (s *AttendanceServiceImpl) RecordDay(ctx context.Context, companyID string, req attendance.RecordDayRequest) (attendance.DayResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.DayResponse{}, err
	}
	date, _ := validator.IsValidDate(req.Date)

	view, err := s.calendar.MonthView(ctx, companyID, date.Year(), date.Month())
	if err != nil {
		return attendance.DayResponse{}, err
	}
	calDay, _ := view.Day(date)

	day := attendance.Day{
		CompanyID:  companyID,
		EmployeeID: req.EmployeeID,
		Date:       date,
		Status:     attendance.Status(req.Status),
		IsHoliday:  calDay.Kind == calendar.DayKindHoliday,
		IsBlocked:  calDay.IsBlocked,
	}
	if req.LeaveType != nil {
		lt := attendance.LeaveType(*req.LeaveType)
		day.LeaveType = &lt
	}
	if day.IsHoliday && day.Status == attendance.StatusAbsent {
		return attendance.DayResponse{}, attendance.ErrAbsentOnHoliday
	}

	saved, err := s.repo.Upsert(ctx, day)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	slog.Debug("Attendance recorded",
		"company_id", companyID,
		"employee_id", saved.EmployeeID,
		"date", req.Date,
		"status", saved.Status,
	)
	return attendance.ToDayResponse(saved), nil
}

func (s *AttendanceServiceImpl) ListPeriod(ctx context.Context, companyID string, query attendance.ListPeriodQuery) ([]attendance.DayResponse, error) {
	from, to, err := query.Range()
	if err != nil {
		return nil, err
	}

	days, err := s.repo.ListByPeriod(ctx, companyID, query.EmployeeID, from, to)
	if err != nil {
		return nil, err
	}

	resp := make([]attendance.DayResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, attendance.ToDayResponse(d))
	}
	return resp, nil
}

func (s *AttendanceServiceImpl) DaysBetween(ctx context.Context, companyID string, from, to time.Time) ([]attendance.Day, error) {
	return s.repo.ListByPeriod(ctx, companyID, "", from, to)
}
