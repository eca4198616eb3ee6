/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the clock engine's value types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DURATIONS:
  Every duration is sent three ways so clients never re-derive them:
  minutes (integer), text ("8h 48min", balances signed "+0h 12min") and
  decimal hours ("8.8", two places, as a JSON string).

PUNCH FIELDS:
  Record punches use the stored names entry, lunchOut, lunchReturn, exit
  with "HH:MM" text; an absent punch is an empty string.

VALIDATION:
  Request types carry go-playground/validator tags. Handlers call
  Handler.decode, which decodes and validates in one step.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/horacerta/timeclock/clock"
	"github.com/horacerta/timeclock/store/sqlite"
	"github.com/horacerta/timeclock/timesheet"
)

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateUserRequest struct {
	ID    string `json:"id" validate:"omitempty,max=64"`
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
}

func toUserDTO(u sqlite.User) UserDTO {
	return UserDTO{
		ID:        string(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// DURATIONS
// =============================================================================

type DurationDTO struct {
	Minutes int             `json:"minutes"`
	Text    string          `json:"text"`
	Hours   decimal.Decimal `json:"hours"`
}

func durationDTO(d clock.Duration) DurationDTO {
	return DurationDTO{Minutes: d.Minutes(), Text: clock.FormatDuration(d), Hours: d.Hours()}
}

func balanceDTO(d clock.Duration) DurationDTO {
	return DurationDTO{Minutes: d.Minutes(), Text: clock.FormatBalance(d), Hours: d.Hours()}
}

// =============================================================================
// RECORDS AND PUNCHES
// =============================================================================

type RecordDTO struct {
	ID          string       `json:"id,omitempty"`
	Date        string       `json:"date"`
	Entry       string       `json:"entry"`
	LunchOut    string       `json:"lunchOut"`
	LunchReturn string       `json:"lunchReturn"`
	Exit        string       `json:"exit"`
	State       string       `json:"state"`
	Resolved    bool         `json:"resolved"`
	Total       *DurationDTO `json:"total,omitempty"`
	Balance     *DurationDTO `json:"balance,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
}

func toRecordDTO(r clock.DayRecord) RecordDTO {
	dto := RecordDTO{
		ID:          string(r.ID),
		Date:        r.Date.String(),
		Entry:       r.Entry.String(),
		LunchOut:    r.LunchOut.String(),
		LunchReturn: r.LunchReturn.String(),
		Exit:        r.Exit.String(),
		State:       clock.StateOf(r).String(),
		Resolved:    r.Resolved(),
	}
	if total, ok := r.Total(); ok {
		balance, _ := r.Balance()
		t, b := durationDTO(total), balanceDTO(balance)
		dto.Total, dto.Balance = &t, &b
	}
	if !r.UpdatedAt.IsZero() {
		dto.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func toRecordDTOs(records []clock.DayRecord) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toRecordDTO(r)
	}
	return dtos
}

// PunchRequest registers one punch. Without date and time the punch is
// taken now; a date requires a time.
type PunchRequest struct {
	Type string `json:"type" validate:"required,oneof=entry lunchOut lunchReturn exit"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time string `json:"time" validate:"required_with=Date"`
}

// EditDayRequest replaces the four punches of a day. Empty clears a punch.
type EditDayRequest struct {
	Entry       string `json:"entry"`
	LunchOut    string `json:"lunchOut"`
	LunchReturn string `json:"lunchReturn"`
	Exit        string `json:"exit"`
}

func (r EditDayRequest) toEdit() timesheet.DayEdit {
	return timesheet.DayEdit{Entry: r.Entry, LunchOut: r.LunchOut, LunchReturn: r.LunchReturn, Exit: r.Exit}
}

// =============================================================================
// SCHEDULE
// =============================================================================

// UpdateScheduleRequest is a partial schedule update; absent fields keep
// their current value.
type UpdateScheduleRequest struct {
	StartTime          *string `json:"startTime"`
	EndTime            *string `json:"endTime"`
	LunchStartTime     *string `json:"lunchStartTime"`
	LunchEndTime       *string `json:"lunchEndTime"`
	WorkDays           *[]int  `json:"workDays"`
	ExpectedDailyHours *string `json:"expectedDailyHours"`
	BreakTime          *string `json:"breakTime"`
}

func (r UpdateScheduleRequest) toPatch() (clock.SchedulePatch, error) {
	var p clock.SchedulePatch
	for _, f := range []struct {
		text *string
		dst  **clock.TimeOfDay
	}{
		{r.StartTime, &p.Start},
		{r.EndTime, &p.End},
		{r.LunchStartTime, &p.LunchStart},
		{r.LunchEndTime, &p.LunchEnd},
	} {
		if f.text == nil {
			continue
		}
		t, err := clock.ParseTimeOfDay(*f.text)
		if err != nil {
			return clock.SchedulePatch{}, err
		}
		*f.dst = &t
	}
	for _, f := range []struct {
		text *string
		dst  **clock.Duration
	}{
		{r.ExpectedDailyHours, &p.ExpectedDaily},
		{r.BreakTime, &p.Break},
	} {
		if f.text == nil {
			continue
		}
		d, err := clock.ParseDuration(*f.text)
		if err != nil {
			return clock.SchedulePatch{}, err
		}
		*f.dst = &d
	}
	if r.WorkDays != nil {
		var set clock.WeekdaySet
		for _, d := range *r.WorkDays {
			if d < int(time.Sunday) || d > int(time.Saturday) {
				return clock.SchedulePatch{}, fmt.Errorf("%w: work day %d outside 0-6", clock.ErrInvalidSchedule, d)
			}
			set |= clock.NewWeekdaySet(time.Weekday(d))
		}
		p.WorkDays = &set
	}
	return p, nil
}

// =============================================================================
// DASHBOARD AND REPORTS
// =============================================================================

type AggregateDTO struct {
	Key     string      `json:"key"`
	Start   string      `json:"start"`
	End     string      `json:"end"`
	Days    int         `json:"days"`
	Total   DurationDTO `json:"total"`
	Average DurationDTO `json:"average"`
	Balance DurationDTO `json:"balance"`
}

func toAggregateDTO(a clock.Aggregate, schedule clock.WorkSchedule) AggregateDTO {
	return AggregateDTO{
		Key:     a.Key,
		Start:   a.Period.Start.String(),
		End:     a.Period.End.String(),
		Days:    a.Days,
		Total:   durationDTO(a.Total),
		Average: durationDTO(a.Average),
		Balance: balanceDTO(a.Balance(schedule)),
	}
}

type DayPointDTO struct {
	Date     string      `json:"date"`
	Weekday  string      `json:"weekday"`
	Resolved bool        `json:"resolved"`
	Total    DurationDTO `json:"total"`
	Balance  DurationDTO `json:"balance"`
}

type DistributionDTO struct {
	Regular DurationDTO `json:"regular"`
	Extra   DurationDTO `json:"extra"`
	Break   DurationDTO `json:"break"`
}

type PresenceDayDTO struct {
	Date    string `json:"date"`
	Present bool   `json:"present"`
}

type PresenceDTO struct {
	Year        int              `json:"year"`
	PresentDays int              `json:"present_days"`
	Days        []PresenceDayDTO `json:"days"`
}

func toPresenceDTO(c clock.CalendarYear) PresenceDTO {
	days := make([]PresenceDayDTO, len(c.Days))
	for i, d := range c.Days {
		days[i] = PresenceDayDTO{Date: d.Date.String(), Present: d.Present}
	}
	return PresenceDTO{Year: c.Year, PresentDays: c.PresentDays(), Days: days}
}

type DashboardDTO struct {
	Today        string            `json:"today"`
	TodayRecord  RecordDTO         `json:"today_record"`
	TodayTotal   DurationDTO       `json:"today_total"`
	NextPunch    string            `json:"next_punch,omitempty"`
	DayClosed    bool              `json:"day_closed"`
	Week         AggregateDTO      `json:"week"`
	WeekGoal     DurationDTO       `json:"week_goal"`
	WeekSeries   []DayPointDTO     `json:"week_series"`
	Month        AggregateDTO      `json:"month"`
	Balance      DurationDTO       `json:"balance"`
	Distribution DistributionDTO   `json:"distribution"`
	Monthly      []AggregateDTO    `json:"monthly"`
	Presence     PresenceDTO       `json:"presence"`
	Schedule     clock.ScheduleDoc `json:"schedule"`
}

func toDashboardDTO(d timesheet.Dashboard) DashboardDTO {
	series := make([]DayPointDTO, len(d.WeekSeries))
	for i, p := range d.WeekSeries {
		series[i] = DayPointDTO{
			Date:     p.Date.String(),
			Weekday:  p.Date.Weekday().String(),
			Resolved: p.Resolved,
			Total:    durationDTO(p.Total),
			Balance:  balanceDTO(p.Balance),
		}
	}
	monthly := make([]AggregateDTO, len(d.Monthly))
	for i, a := range d.Monthly {
		monthly[i] = toAggregateDTO(a, d.Schedule)
	}

	return DashboardDTO{
		Today:       d.Today.String(),
		TodayRecord: toRecordDTO(d.TodayRecord),
		TodayTotal:  durationDTO(d.TodayTotal),
		NextPunch:   string(d.NextPunch),
		DayClosed:   d.DayClosed,
		Week:        toAggregateDTO(d.Week, d.Schedule),
		WeekGoal:    durationDTO(d.WeekGoal),
		WeekSeries:  series,
		Month:       toAggregateDTO(d.Month, d.Schedule),
		Balance:     balanceDTO(d.Balance),
		Distribution: DistributionDTO{
			Regular: durationDTO(d.Distribution.Regular),
			Extra:   durationDTO(d.Distribution.Extra),
			Break:   durationDTO(d.Distribution.Break),
		},
		Monthly:  monthly,
		Presence: toPresenceDTO(d.Presence),
		Schedule: d.Schedule.Doc(),
	}
}

type MonthlyReportDTO struct {
	Month      string      `json:"month"`
	WorkedDays int         `json:"worked_days"`
	Total      DurationDTO `json:"total"`
	Average    DurationDTO `json:"average"`
	Balance    DurationDTO `json:"balance"`
	Scheduled  DurationDTO `json:"scheduled"`
	Days       []RecordDTO `json:"days"`
}

func toMonthlyReportDTO(r timesheet.MonthlyReport) MonthlyReportDTO {
	return MonthlyReportDTO{
		Month:      r.Month.String(),
		WorkedDays: r.WorkedDays,
		Total:      durationDTO(r.Total),
		Average:    durationDTO(r.Average),
		Balance:    balanceDTO(r.Balance),
		Scheduled:  durationDTO(r.Scheduled),
		Days:       toRecordDTOs(r.Days),
	}
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
