package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DRPozdniakov/Tracker/internal/logging"
	"github.com/DRPozdniakov/Tracker/internal/models"
	"github.com/DRPozdniakov/Tracker/internal/repositories"
)

const (
	maxEventLimit    = 200
	maxTimesheetDays = 92
)

type statusResponse struct {
	UserID         string     `json:"user_id"`
	State          string     `json:"state"`
	Since          *time.Time `json:"since,omitempty"`
	OnShiftSeconds int64      `json:"on_shift_seconds,omitempty"`
}

type shiftResponse struct {
	Date            string                 `json:"date"`
	ClockIn         *time.Time             `json:"clock_in,omitempty"`
	ClockOut        *time.Time             `json:"clock_out,omitempty"`
	InLocation      *models.LocationSample `json:"in_location,omitempty"`
	OutLocation     *models.LocationSample `json:"out_location,omitempty"`
	DurationSeconds int64                  `json:"duration_seconds"`
	Notes           []string               `json:"notes,omitempty"`
	Open            bool                   `json:"open"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	status, err := s.timesheet.Status(r.Context(), userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := statusResponse{
		UserID: status.UserID,
		State:  string(status.State),
	}
	if status.LastEvent != nil {
		since := status.LastEvent.RecordedAt
		resp.Since = &since
	}
	if status.OnShift > 0 {
		resp.OnShiftSeconds = int64(status.OnShift / time.Second)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := queryInt(r, "limit", 50, maxEventLimit)

	events, err := s.timesheet.RecentEvents(r.Context(), userID, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if events == nil {
		events = []*models.AttendanceEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleTimesheet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	days := queryInt(r, "days", 7, maxTimesheetDays)

	shifts, err := s.timesheet.Timesheet(r.Context(), userID, days)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]shiftResponse, 0, len(shifts))
	for _, shift := range shifts {
		row := shiftResponse{
			Date:            shift.Date,
			ClockOut:        shift.ClockOut,
			InLocation:      shift.InLocation,
			OutLocation:     shift.OutLocation,
			DurationSeconds: int64(shift.Duration / time.Second),
			Notes:           shift.Notes,
			Open:            shift.Open,
		}
		if !shift.ClockIn.IsZero() {
			clockIn := shift.ClockIn
			row.ClockIn = &clockIn
		}
		resp = append(resp, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())
	switch {
	case errors.Is(err, repositories.ErrUnavailable):
		logger.Warn("store unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// queryInt reads an integer query parameter, falling back to def and
// clamping to max.
func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
