/*
handlers.go - HTTP API handlers for the time clock

PURPOSE:
  Exposes the timesheet service via REST API. Handles HTTP request and
  response, JSON serialization, and delegates to the service and the
  user directory.

ENDPOINTS:
  Users:
    GET    /api/users                          List users
    POST   /api/users                          Create user
    GET    /api/users/{id}                     Get user
    DELETE /api/users/{id}                     Delete user and records

  Punches and records:
    POST   /api/users/{id}/punches             Register a punch (now by default)
    GET    /api/users/{id}/records             Resolved records
    PUT    /api/users/{id}/days/{date}         Replace a day's punches
    DELETE /api/users/{id}/records/{recordID}  Delete one record
    DELETE /api/users/{id}/records             Delete all records

  Schedule:
    GET    /api/users/{id}/schedule            Get (defaults on first read)
    PUT    /api/users/{id}/schedule            Partial update

  Read models:
    GET    /api/users/{id}/dashboard?date=     Dashboard for a day
    GET    /api/users/{id}/reports/monthly?month=YYYY-MM
    GET    /api/users/{id}/presence?year=      Year heatmap
    GET    /api/users/{id}/pending             Past days left open
    GET    /api/users/{id}/export?from=&to=    Spreadsheet download

REQUEST FLOW:
  1. Parse path, query and body
  2. Validate input (validator tags, then engine parsing)
  3. Call the timesheet service
  4. Serialize response
  5. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed times, invalid schedule
  - 404: User or record not found
  - 409: Punch out of sequence, email already in use
  - 422: Punch times that contradict each other
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/horacerta/timeclock/clock"
	"github.com/horacerta/timeclock/export"
	"github.com/horacerta/timeclock/store/sqlite"
	"github.com/horacerta/timeclock/timesheet"
)

// errBadBody marks request bodies that are not valid JSON.
var errBadBody = errors.New("invalid request body")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *timesheet.Service
	Logger  *zap.Logger

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over the store, running the timesheet
// service against it.
func NewHandler(store *sqlite.Store, service *timesheet.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:    store,
		Service:  service,
		Logger:   logger,
		validate: validator.New(),
	}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to list users", err)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.GetUser(r.Context(), userID(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// CreateUser creates a user. The ID is generated when omitted.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, "Invalid request body", err)
		return
	}

	u, err := h.Store.SaveUser(r.Context(), sqlite.User{
		ID:    clock.UserID(req.ID),
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeServiceError(w, r, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

// DeleteUser removes a user together with their records and schedule.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteUser(r.Context(), userID(r)); err != nil {
		h.writeServiceError(w, r, "Failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PUNCH AND RECORD HANDLERS
// =============================================================================

// RegisterPunch registers one punch for the user.
// POST /api/users/{id}/punches
func (h *Handler) RegisterPunch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := userID(r)

	var req PunchRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, "Invalid punch", err)
		return
	}
	if _, err := h.Store.GetUser(ctx, id); err != nil {
		h.writeServiceError(w, r, "Failed to register punch", err)
		return
	}

	punch := clock.PunchType(req.Type)
	var (
		rec clock.DayRecord
		err error
	)
	if req.Time == "" {
		rec, err = h.Service.Punch(ctx, id, punch, h.Service.Now())
	} else {
		date := h.Service.Today()
		if req.Date != "" {
			if date, err = clock.ParseDate(req.Date); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
				return
			}
		}
		rec, err = h.Service.RegisterPunch(ctx, id, date, punch, req.Time)
	}
	if err != nil {
		h.writeServiceError(w, r, "Failed to register punch", err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// ListRecords returns the user's records, resolved against their schedule.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(snap.Records))
}

// EditDay replaces the four punches of one day. Clearing every punch
// deletes the day.
// PUT /api/users/{id}/days/{date}
func (h *Handler) EditDay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := userID(r)

	date, err := clock.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	var req EditDayRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, "Invalid day edit", err)
		return
	}
	if _, err := h.Store.GetUser(ctx, id); err != nil {
		h.writeServiceError(w, r, "Failed to edit day", err)
		return
	}

	rec, err := h.Service.EditDay(ctx, id, date, req.toEdit())
	if err != nil {
		h.writeServiceError(w, r, "Failed to edit day", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// DeleteRecord deletes one of the user's records.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	recordID := clock.RecordID(chi.URLParam(r, "recordID"))
	if err := h.Service.DeleteRecord(r.Context(), userID(r), recordID); err != nil {
		h.writeServiceError(w, r, "Failed to delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearRecords deletes every record of the user. The schedule is kept.
func (h *Handler) ClearRecords(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ClearRecords(r.Context(), userID(r)); err != nil {
		h.writeServiceError(w, r, "Failed to clear records", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GetSchedule returns the user's schedule in its stored form.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.Service.Schedule(r.Context(), userID(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to get schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, schedule.Doc())
}

// UpdateSchedule applies a partial schedule update.
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req UpdateScheduleRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, "Invalid schedule", err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		h.writeServiceError(w, r, "Invalid schedule", err)
		return
	}

	schedule, err := h.Service.UpdateSchedule(r.Context(), userID(r), patch)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, schedule.Doc())
}

// =============================================================================
// READ MODEL HANDLERS
// =============================================================================

// GetDashboard returns the dashboard for ?date= (default today).
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := userID(r)

	today := h.Service.Today()
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := clock.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		today = d
	}
	if _, err := h.Store.GetUser(ctx, id); err != nil {
		h.writeServiceError(w, r, "Failed to build dashboard", err)
		return
	}

	dash, err := h.Service.Dashboard(ctx, id, today)
	if err != nil {
		h.writeServiceError(w, r, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(dash))
}

// GetMonthlyReport returns the report for ?month=YYYY-MM (default this month).
func (h *Handler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := userID(r)

	month := h.Service.Today().MonthKey()
	if s := r.URL.Query().Get("month"); s != "" {
		m, err := clock.ParseMonthKey(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
			return
		}
		month = m
	}
	if _, err := h.Store.GetUser(ctx, id); err != nil {
		h.writeServiceError(w, r, "Failed to build report", err)
		return
	}

	report, err := h.Service.MonthlyReport(ctx, id, month)
	if err != nil {
		h.writeServiceError(w, r, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyReportDTO(report))
}

// GetPresence returns the year heatmap for ?year= (default this year).
func (h *Handler) GetPresence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := userID(r)

	year := h.Service.Today().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}
	if _, err := h.Store.GetUser(ctx, id); err != nil {
		h.writeServiceError(w, r, "Failed to build presence", err)
		return
	}

	presence, err := h.Service.Presence(ctx, id, year)
	if err != nil {
		h.writeServiceError(w, r, "Failed to build presence", err)
		return
	}
	writeJSON(w, http.StatusOK, toPresenceDTO(presence))
}

// ListPendingDays returns past days that have punches but no total.
func (h *Handler) ListPendingDays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := userID(r)

	if _, err := h.Store.GetUser(ctx, id); err != nil {
		h.writeServiceError(w, r, "Failed to list pending days", err)
		return
	}
	pending, err := h.Service.PendingDays(ctx, id, h.Service.Today())
	if err != nil {
		h.writeServiceError(w, r, "Failed to list pending days", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": toRecordDTOs(pending)})
}

// ExportRecords downloads the user's records as an .xlsx workbook.
// ?from= and ?to= bound the export; both or neither must be given.
func (h *Handler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := userID(r)

	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid export range", err)
		return
	}
	u, err := h.Store.GetUser(ctx, id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to export records", err)
		return
	}

	var buf bytes.Buffer
	sink := export.NewWorkbook(&buf, u.Name, h.Logger)
	if err := h.Service.Export(ctx, id, period, sink); err != nil {
		h.writeServiceError(w, r, "Failed to export records", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(id, period)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Warn("export download interrupted", zap.String("user_id", string(id)), zap.Error(err))
	}
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeServiceError(w, r, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func userID(r *http.Request) clock.UserID {
	return clock.UserID(chi.URLParam(r, "id"))
}

// snapshot loads the resolved snapshot of the path user, writing the error
// response itself when it fails.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (timesheet.Snapshot, bool) {
	ctx := r.Context()
	id := userID(r)
	if _, err := h.Store.GetUser(ctx, id); err != nil {
		h.writeServiceError(w, r, "Failed to load records", err)
		return timesheet.Snapshot{}, false
	}
	snap, err := h.Service.Snapshot(ctx, id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load records", err)
		return timesheet.Snapshot{}, false
	}
	return snap, true
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return h.validate.Struct(dst)
}

// periodParam reads ?from= and ?to=. Neither gives the zero period.
func periodParam(r *http.Request) (clock.Period, error) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		return clock.Period{}, nil
	}
	if from == "" || to == "" {
		return clock.Period{}, errors.New("from and to must be given together")
	}
	start, err := clock.ParseDate(from)
	if err != nil {
		return clock.Period{}, err
	}
	end, err := clock.ParseDate(to)
	if err != nil {
		return clock.Period{}, err
	}
	if end.Before(start) {
		return clock.Period{}, fmt.Errorf("to %s is before from %s", to, from)
	}
	return clock.Period{Start: start, End: end}, nil
}

// statusFor maps an error to its HTTP status and a stable code.
func statusFor(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, clock.ErrMalformedTime):
		return http.StatusBadRequest, "malformed_time"
	case errors.Is(err, clock.ErrInvalidPunchType):
		return http.StatusBadRequest, "invalid_punch_type"
	case errors.Is(err, clock.ErrInvalidSchedule):
		return http.StatusBadRequest, "invalid_schedule"
	case errors.Is(err, clock.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, clock.ErrRecordNotFound):
		return http.StatusNotFound, "record_not_found"
	case errors.Is(err, clock.ErrOutOfSequence):
		return http.StatusConflict, "out_of_sequence"
	case errors.Is(err, sqlite.ErrEmailTaken):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, clock.ErrInvalidInterval):
		return http.StatusUnprocessableEntity, "invalid_interval"
	}
	return http.StatusInternalServerError, "internal"
}

// writeServiceError writes err with the status statusFor picks. Validation
// failures list the failing field and rule; server errors are logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: message, Code: code, Details: err.Error()}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		resp.Details = fields
	}

	if status >= http.StatusInternalServerError {
		h.Logger.Error(message,
			zap.String("path", r.URL.Path),
			zap.String("user_id", chi.URLParam(r, "id")),
			zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
