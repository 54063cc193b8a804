package calendar

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/validator"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type UpdateSettingsRequest struct {
	CountryCode string   `json:"country_code"`
	WeekendDays []string `json:"weekend_days"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	r.CountryCode = strings.ToUpper(strings.TrimSpace(r.CountryCode))
	if !validator.IsValidCountryCode(r.CountryCode) {
		errs.Add("country_code", "must be an ISO 3166-1 alpha-2 code")
	}
	if len(r.WeekendDays) > 6 {
		errs.Add("weekend_days", "must leave at least one working day")
	}
	for _, d := range r.WeekendDays {
		if _, ok := weekdayNames[strings.ToLower(d)]; !ok {
			errs.Add("weekend_days", "contains an unknown weekday: "+d)
			break
		}
	}
	return errs.Err()
}

// Weekend returns the parsed weekday set. Call after Validate.
func (r UpdateSettingsRequest) Weekend() []time.Weekday {
	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for _, d := range r.WeekendDays {
		wd := weekdayNames[strings.ToLower(d)]
		if !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	return days
}

type AddHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func (r *AddHolidayRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "must be in YYYY-MM-DD format")
	}
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "is required")
	}
	return errs.Err()
}

type AddBlockedDateRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

func (r *AddBlockedDateRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "must be in YYYY-MM-DD format")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "is required")
	}
	return errs.Err()
}

type SettingsResponse struct {
	CompanyID   string   `json:"company_id"`
	CountryCode string   `json:"country_code"`
	WeekendDays []string `json:"weekend_days"`
}

func ToSettingsResponse(s Settings) SettingsResponse {
	resp := SettingsResponse{CompanyID: s.CompanyID, CountryCode: s.CountryCode, WeekendDays: []string{}}
	for _, d := range s.Weekend {
		resp.WeekendDays = append(resp.WeekendDays, strings.ToLower(d.String()))
	}
	return resp
}

type HolidayResponse struct {
	Date     string `json:"date"`
	Name     string `json:"name"`
	IsCustom bool   `json:"is_custom"`
}

func ToHolidayResponse(h Holiday) HolidayResponse {
	return HolidayResponse{Date: DateKey(h.Date), Name: h.Name, IsCustom: h.IsCustom}
}

type BlockedDateResponse struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

func ToBlockedDateResponse(b BlockedDate) BlockedDateResponse {
	return BlockedDateResponse{Date: DateKey(b.Date), Reason: b.Reason}
}

type DayResponse struct {
	Date        string  `json:"date"`
	Kind        DayKind `json:"kind"`
	HolidayName string  `json:"holiday_name,omitempty"`
	IsBlocked   bool    `json:"is_blocked"`
}

type WorkingDaysResponse struct {
	Year        int           `json:"year"`
	Month       int           `json:"month"`
	WorkingDays int           `json:"working_days"`
	Holidays    int           `json:"holidays"`
	Weekends    int           `json:"weekends"`
	TotalDays   int           `json:"total_days"`
	Days        []DayResponse `json:"days"`
}

func ToWorkingDaysResponse(v MonthView) WorkingDaysResponse {
	resp := WorkingDaysResponse{
		Year:        v.Year,
		Month:       int(v.Month),
		WorkingDays: v.WorkingDays(),
		Holidays:    v.Holidays(),
		Weekends:    v.Weekends(),
		TotalDays:   v.TotalDays(),
		Days:        make([]DayResponse, 0, len(v.Days)),
	}
	for _, d := range v.Days {
		resp.Days = append(resp.Days, DayResponse{
			Date:        DateKey(d.Date),
			Kind:        d.Kind,
			HolidayName: d.HolidayName,
			IsBlocked:   d.IsBlocked,
		})
	}
	return resp
}

type CalendarResponse struct {
	Year         int                   `json:"year"`
	Settings     SettingsResponse      `json:"settings"`
	Holidays     []HolidayResponse     `json:"holidays"`
	BlockedDates []BlockedDateResponse `json:"blocked_dates"`
}

type RefreshResponse struct {
	Year        int    `json:"year"`
	CountryCode string `json:"country_code"`
	Fetched     int    `json:"fetched"`
	Removed     int64  `json:"removed"`
	Inserted    int    `json:"inserted"`
}
