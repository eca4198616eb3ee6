/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	punches for demos. Each scenario creates users and a few weeks of day
	records ending yesterday, so dashboards and reports have data to show.

AVAILABLE SCENARIOS:

	regular-month: One user keeping close to the 8h48 target
	overtime:      One user staying late, building a positive balance
	open-days:     One user with days left without exit or lunch return
	team:          All three users above

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create users
 3. Save one full-day edit per work day, walking back from yesterday

Punch times vary per day but are derived from the date alone, so loading
a scenario twice on the same day gives the same data.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "team"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add its users to scenarioUsers

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/horacerta/timeclock/clock"
	"github.com/horacerta/timeclock/store/sqlite"
	"github.com/horacerta/timeclock/timesheet"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "regular-month",
		Name:        "Regular Month",
		Description: "Four weeks of full days close to the daily target",
	},
	{
		ID:          "overtime",
		Name:        "Overtime",
		Description: "Late exits every day, accumulating a positive balance",
	},
	{
		ID:          "open-days",
		Name:        "Open Days",
		Description: "Some days without exit or lunch return, left out of totals",
	},
	{
		ID:          "team",
		Name:        "Team",
		Description: "Three users with regular, overtime and open days",
	},
}

// scenarioDays is how many work days each scenario user gets.
const scenarioDays = 20

// dayPattern builds the punches of the n-th seeded day (0 is yesterday's
// work day) for one kind of user.
type dayPattern func(d clock.Date, n int) timesheet.DayEdit

type scenarioUser struct {
	user    sqlite.User
	pattern dayPattern
}

var (
	regularUser = scenarioUser{
		user:    sqlite.User{ID: "user-ana", Name: "Ana Souza", Email: "ana@example.com"},
		pattern: regularDay,
	}
	overtimeUser = scenarioUser{
		user:    sqlite.User{ID: "user-bruno", Name: "Bruno Lima", Email: "bruno@example.com"},
		pattern: overtimeDay,
	}
	openDaysUser = scenarioUser{
		user:    sqlite.User{ID: "user-carla", Name: "Carla Dias", Email: "carla@example.com"},
		pattern: openDay,
	}
)

var scenarioUsers = map[string][]scenarioUser{
	"regular-month": {regularUser},
	"overtime":      {overtimeUser},
	"open-days":     {openDaysUser},
	"team":          {regularUser, overtimeUser, openDaysUser},
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, "Invalid request body", err)
		return
	}
	users, ok := scenarioUsers[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()

	h.mu.Lock()
	defer h.mu.Unlock()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		h.writeServiceError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := h.seed(ctx, users); err != nil {
		h.writeServiceError(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID), zap.Int("users", len(users)))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) seed(ctx context.Context, users []scenarioUser) error {
	days := seedDates(h.Service.Today(), scenarioDays)
	for _, su := range users {
		if _, err := h.Store.SaveUser(ctx, su.user); err != nil {
			return err
		}
		for n, d := range days {
			if _, err := h.Service.EditDay(ctx, su.user.ID, d, su.pattern(d, n)); err != nil {
				return fmt.Errorf("seeding %s on %s: %w", su.user.ID, d, err)
			}
		}
	}
	return nil
}

// seedDates returns the last n Monday-to-Friday dates before today, most
// recent first.
func seedDates(today clock.Date, n int) []clock.Date {
	workDays := clock.DefaultSchedule().WorkDays
	dates := make([]clock.Date, 0, n)
	for d := today.AddDays(-1); len(dates) < n; d = d.AddDays(-1) {
		if workDays.Contains(d.Weekday()) {
			dates = append(dates, d)
		}
	}
	return dates
}

// jitter returns a deterministic offset in [-spread, spread] minutes.
func jitter(d clock.Date, salt, spread int) clock.Duration {
	v := (d.Day()*salt + int(d.Month())*7) % (2*spread + 1)
	return clock.Duration(v - spread)
}

func regularDay(d clock.Date, _ int) timesheet.DayEdit {
	entry := clock.NewTimeOfDay(9, 0) + clock.TimeOfDay(jitter(d, 7, 10))
	lunchOut := clock.NewTimeOfDay(12, 0) + clock.TimeOfDay(jitter(d, 3, 5))
	lunchReturn := lunchOut + clock.TimeOfDay(clock.DefaultBreak)
	exit := entry + clock.TimeOfDay(clock.DefaultExpectedDaily+clock.DefaultBreak) + clock.TimeOfDay(jitter(d, 11, 15))
	return timesheet.DayEdit{
		Entry:       entry.String(),
		LunchOut:    lunchOut.String(),
		LunchReturn: lunchReturn.String(),
		Exit:        exit.String(),
	}
}

func overtimeDay(d clock.Date, n int) timesheet.DayEdit {
	edit := regularDay(d, n)
	exit := clock.MustParseTimeOfDay(edit.Exit) + clock.TimeOfDay(60+jitter(d, 5, 30))
	edit.Exit = exit.String()
	return edit
}

// openDay leaves every fifth day without exit and every seventh without
// lunch return; the most recent day is always complete.
func openDay(d clock.Date, n int) timesheet.DayEdit {
	edit := regularDay(d, n)
	switch {
	case n > 0 && n%5 == 0:
		edit.Exit = ""
	case n > 0 && n%7 == 0:
		edit.LunchReturn = ""
	}
	return edit
}
