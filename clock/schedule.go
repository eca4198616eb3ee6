package clock

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// WORK SCHEDULE - The expected target of one user
// =============================================================================

// WorkSchedule is the configured daily target of a user.
type WorkSchedule struct {
	ExpectedDaily Duration
	Break         Duration
	WorkDays      WeekdaySet

	// Nominal times shown on the settings screen. They do not enter any
	// computation; totals come from actual punches.
	Start      TimeOfDay
	End        TimeOfDay
	LunchStart TimeOfDay
	LunchEnd   TimeOfDay
}

const (
	DefaultExpectedDaily = 8*Hour + 48*Minute
	DefaultBreak         = 1 * Hour
)

// DefaultSchedule is what a user gets on first access.
func DefaultSchedule() WorkSchedule {
	return WorkSchedule{
		ExpectedDaily: DefaultExpectedDaily,
		Break:         DefaultBreak,
		WorkDays:      NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		Start:         NewTimeOfDay(9, 0),
		End:           NewTimeOfDay(18, 0),
		LunchStart:    NewTimeOfDay(12, 0),
		LunchEnd:      NewTimeOfDay(13, 0),
	}
}

// Validate checks that the schedule can be used as a baseline.
func (s WorkSchedule) Validate() error {
	if s.ExpectedDaily <= 0 || s.ExpectedDaily > 24*Hour {
		return fmt.Errorf("%w: expected daily time must be within (0h, 24h]", ErrInvalidSchedule)
	}
	if s.Break < 0 || s.Break >= 24*Hour {
		return fmt.Errorf("%w: break must be within [0h, 24h)", ErrInvalidSchedule)
	}
	if s.WorkDays == 0 {
		return fmt.Errorf("%w: at least one work day is required", ErrInvalidSchedule)
	}
	for _, t := range []TimeOfDay{s.Start, s.End, s.LunchStart, s.LunchEnd} {
		if !t.Valid() {
			return fmt.Errorf("%w: time %d outside the day", ErrInvalidSchedule, int(t))
		}
	}
	return nil
}

// SchedulePatch is a partial schedule update. Nil fields are left unchanged.
type SchedulePatch struct {
	ExpectedDaily *Duration
	Break         *Duration
	WorkDays      *WeekdaySet
	Start         *TimeOfDay
	End           *TimeOfDay
	LunchStart    *TimeOfDay
	LunchEnd      *TimeOfDay
}

// Apply returns s with the patch applied, or ErrInvalidSchedule.
func (p SchedulePatch) Apply(s WorkSchedule) (WorkSchedule, error) {
	if p.ExpectedDaily != nil {
		s.ExpectedDaily = *p.ExpectedDaily
	}
	if p.Break != nil {
		s.Break = *p.Break
	}
	if p.WorkDays != nil {
		s.WorkDays = *p.WorkDays
	}
	if p.Start != nil {
		s.Start = *p.Start
	}
	if p.End != nil {
		s.End = *p.End
	}
	if p.LunchStart != nil {
		s.LunchStart = *p.LunchStart
	}
	if p.LunchEnd != nil {
		s.LunchEnd = *p.LunchEnd
	}
	if err := s.Validate(); err != nil {
		return WorkSchedule{}, err
	}
	return s, nil
}

// =============================================================================
// WEEKDAY SET
// =============================================================================

// WeekdaySet is a bit set of time.Weekday values.
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

func (s WeekdaySet) Contains(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }

// Weekdays returns the members, Sunday first.
func (s WeekdaySet) Weekdays() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// MarshalJSON stores the set as weekday numbers, e.g. [1,2,3,4,5].
func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	days := make([]int, 0, 7)
	for _, d := range s.Weekdays() {
		days = append(days, int(d))
	}
	return json.Marshal(days)
}

func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var days []int
	if err := json.Unmarshal(data, &days); err != nil {
		return err
	}
	var set WeekdaySet
	for _, d := range days {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidSchedule, d)
		}
		set |= 1 << uint(d)
	}
	*s = set
	return nil
}

// =============================================================================
// SCHEDULE DOCUMENT - Persisted form
// =============================================================================

// ScheduleDoc is the stored representation of a WorkSchedule. Field names
// and "HH:MM" text values are kept compatible with previously exported data.
type ScheduleDoc struct {
	StartTime          string     `json:"startTime"`
	EndTime            string     `json:"endTime"`
	LunchStartTime     string     `json:"lunchStartTime"`
	LunchEndTime       string     `json:"lunchEndTime"`
	WorkDays           WeekdaySet `json:"workDays"`
	ExpectedDailyHours string     `json:"expectedDailyHours"`
	BreakTime          string     `json:"breakTime"`
}

// Doc converts a schedule to its stored form.
func (s WorkSchedule) Doc() ScheduleDoc {
	return ScheduleDoc{
		StartTime:          s.Start.String(),
		EndTime:            s.End.String(),
		LunchStartTime:     s.LunchStart.String(),
		LunchEndTime:       s.LunchEnd.String(),
		WorkDays:           s.WorkDays,
		ExpectedDailyHours: FormatClock(s.ExpectedDaily),
		BreakTime:          FormatClock(s.Break),
	}
}

// Schedule parses a stored document. Missing fields fall back to defaults.
func (d ScheduleDoc) Schedule() (WorkSchedule, error) {
	s := DefaultSchedule()
	var err error
	if d.ExpectedDailyHours != "" {
		if s.ExpectedDaily, err = ParseDuration(d.ExpectedDailyHours); err != nil {
			return WorkSchedule{}, err
		}
	}
	if d.BreakTime != "" {
		if s.Break, err = ParseDuration(d.BreakTime); err != nil {
			return WorkSchedule{}, err
		}
	}
	if d.WorkDays != 0 {
		s.WorkDays = d.WorkDays
	}
	for _, f := range []struct {
		text string
		dst  *TimeOfDay
	}{
		{d.StartTime, &s.Start},
		{d.EndTime, &s.End},
		{d.LunchStartTime, &s.LunchStart},
		{d.LunchEndTime, &s.LunchEnd},
	} {
		if f.text == "" {
			continue
		}
		if *f.dst, err = ParseTimeOfDay(f.text); err != nil {
			return WorkSchedule{}, err
		}
	}
	return s, s.Validate()
}
