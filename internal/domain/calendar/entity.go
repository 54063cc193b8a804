package calendar

import (
	"time"
)

// Holiday - public or company-specific non-working day. Date is unique per company.
type Holiday struct {
	CompanyID string
	Date      time.Time
	Name      string
	IsCustom  bool
	CreatedAt time.Time
}

// BlockedDate gates leave submissions only; it never changes working-day counts.
type BlockedDate struct {
	CompanyID string
	Date      time.Time
	Reason    string
	CreatedAt time.Time
}

// Settings - company calendar configuration
type Settings struct {
	CompanyID   string
	CountryCode string
	Weekend     []time.Weekday
	UpdatedAt   time.Time
}

func (s Settings) IsWeekend(d time.Weekday) bool {
	for _, w := range s.Weekend {
		if w == d {
			return true
		}
	}
	return false
}

// PublicHoliday is a holiday as reported by the upstream source.
type PublicHoliday struct {
	Date time.Time
	Name string
}

// DayKind enum
type DayKind string

const (
	DayKindWorking DayKind = "working"
	DayKindWeekend DayKind = "weekend"
	DayKindHoliday DayKind = "holiday"
)

type Day struct {
	Date        time.Time
	Kind        DayKind
	HolidayName string
	IsBlocked   bool
}

// MonthView classifies every day of a month exactly once. Weekend wins over
// holiday, so a holiday on a Saturday is still counted as a weekend day.
type MonthView struct {
	CompanyID string
	Year      int
	Month     time.Month
	Days      []Day
}

func (m MonthView) WorkingDays() int { return m.count(DayKindWorking) }
func (m MonthView) Holidays() int    { return m.count(DayKindHoliday) }
func (m MonthView) Weekends() int    { return m.count(DayKindWeekend) }
func (m MonthView) TotalDays() int   { return len(m.Days) }

func (m MonthView) count(kind DayKind) int {
	n := 0
	for _, d := range m.Days {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Day returns the classification of date, which must fall inside the month.
func (m MonthView) Day(date time.Time) (Day, bool) {
	idx := date.Day() - 1
	if date.Year() != m.Year || date.Month() != m.Month || idx < 0 || idx >= len(m.Days) {
		return Day{}, false
	}
	return m.Days[idx], true
}

// BuildMonthView classifies each day of year/month using settings, the
// holidays of that month and its blocked dates.
func BuildMonthView(settings Settings, year int, month time.Month, holidays []Holiday, blocked []BlockedDate) MonthView {
	holidayByDate := make(map[string]string, len(holidays))
	for _, h := range holidays {
		holidayByDate[DateKey(h.Date)] = h.Name
	}
	blockedByDate := make(map[string]bool, len(blocked))
	for _, b := range blocked {
		blockedByDate[DateKey(b.Date)] = true
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	view := MonthView{CompanyID: settings.CompanyID, Year: year, Month: month}
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		day := Day{Date: d, Kind: DayKindWorking, IsBlocked: blockedByDate[DateKey(d)]}
		name, isHoliday := holidayByDate[DateKey(d)]
		switch {
		case settings.IsWeekend(d.Weekday()):
			day.Kind = DayKindWeekend
			day.HolidayName = name
		case isHoliday:
			day.Kind = DayKindHoliday
			day.HolidayName = name
		}
		view.Days = append(view.Days, day)
	}
	return view
}

// DateKey formats t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// MonthRange returns the first and last day of the month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// YearRange returns the first and last day of the year.
func YearRange(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}
