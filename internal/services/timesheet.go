package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/DRPozdniakov/Tracker/internal/models"
	"github.com/DRPozdniakov/Tracker/internal/repositories"
)

const defaultTimesheetDays = 7

// TimesheetService answers the read side: current status, folded day
// rows, recent raw events, and shift notes.
type TimesheetService struct {
	store repositories.AttendanceStore
	notes repositories.NoteStore

	now   func() time.Time
	newID func() string
}

func NewTimesheetService(store repositories.AttendanceStore, notes repositories.NoteStore) *TimesheetService {
	return &TimesheetService{
		store: store,
		notes: notes,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
}

// Status reports the user's derived attendance state. A user with no
// events is simply clocked out.
func (s *TimesheetService) Status(ctx context.Context, userID string) (*models.UserStatus, error) {
	last, err := s.store.LastEvent(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &models.UserStatus{UserID: userID, State: models.StateClockedOut}, nil
	}
	if err != nil {
		return nil, err
	}

	status := &models.UserStatus{
		UserID:    userID,
		State:     models.StateAfter(last),
		LastEvent: last,
	}
	if status.State == models.StateClockedIn {
		status.OnShift = s.now().Sub(last.RecordedAt)
	}
	return status, nil
}

// Timesheet folds the last days calendar days of events into day rows,
// newest first, with that window's notes merged in by date.
func (s *TimesheetService) Timesheet(ctx context.Context, userID string, days int) ([]*models.WorkShift, error) {
	if days <= 0 {
		days = defaultTimesheetDays
	}
	now := s.now().UTC()
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(days - 1))

	events, err := s.store.EventsSince(ctx, userID, windowStart)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.NotesSince(ctx, userID, windowStart)
	if err != nil {
		return nil, err
	}

	shifts, err := foldShifts(events, notes)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(shifts)-1; i < j; i, j = i+1, j-1 {
		shifts[i], shifts[j] = shifts[j], shifts[i]
	}
	return shifts, nil
}

// RecentEvents returns the raw tail of the user's event log, newest first.
func (s *TimesheetService) RecentEvents(ctx context.Context, userID string, limit int) ([]*models.AttendanceEvent, error) {
	return s.store.RecentEvents(ctx, userID, limit)
}

// RecordNote attaches a free-text note to today's shift. It is refused
// when the user has recorded nothing today.
func (s *TimesheetService) RecordNote(ctx context.Context, userID, text string) (*models.ShiftNote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("note text is empty")
	}

	last, err := s.store.LastEvent(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, reject(ReasonNoShiftToday, "no shift recorded today, clock in first")
	}
	if err != nil {
		return nil, err
	}

	today := models.DayOf(s.now())
	if models.DayOf(last.RecordedAt) != today {
		return nil, reject(ReasonNoShiftToday, "no shift recorded today, clock in first")
	}

	note := &models.ShiftNote{
		ID:      s.newID(),
		UserID:  userID,
		NotedOn: today,
		Text:    text,
	}
	if err := s.notes.AppendNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// foldShifts pairs clock-ins with their clock-outs into day rows. The
// window may open mid-shift: a leading clock-out becomes a row showing
// only its close. Alternation or sequence gaps inside the window mean the
// log is corrupt and surface as ErrMalformed.
func foldShifts(events []*models.AttendanceEvent, notes []*models.ShiftNote) ([]*models.WorkShift, error) {
	var shifts []*models.WorkShift
	var open *models.WorkShift
	var prev *models.AttendanceEvent

	for _, event := range events {
		if prev != nil {
			if event.Sequence != prev.Sequence+1 {
				return nil, fmt.Errorf("event log for user %s: sequence %d follows %d: %w",
					event.UserID, event.Sequence, prev.Sequence, repositories.ErrMalformed)
			}
			if event.Action == prev.Action {
				return nil, fmt.Errorf("event log for user %s: %s follows %s at sequence %d: %w",
					event.UserID, event.Action, prev.Action, event.Sequence, repositories.ErrMalformed)
			}
		}

		switch event.Action {
		case models.ActionClockIn:
			open = &models.WorkShift{
				Date:       models.DayOf(event.RecordedAt),
				ClockIn:    event.RecordedAt,
				InLocation: event.Location,
				Open:       true,
			}
			shifts = append(shifts, open)
		case models.ActionClockOut:
			out := event.RecordedAt
			if open == nil {
				// Shift opened before the window; show only its close.
				shifts = append(shifts, &models.WorkShift{
					Date:        models.DayOf(event.RecordedAt),
					ClockOut:    &out,
					OutLocation: event.Location,
				})
				break
			}
			open.ClockOut = &out
			open.OutLocation = event.Location
			open.Duration = out.Sub(open.ClockIn)
			open.Open = false
			open = nil
		}
		prev = event
	}

	attachNotes(shifts, notes)
	return shifts, nil
}

// attachNotes merges notes into the shift rows of their day. Several
// notes on one day join in arrival order.
func attachNotes(shifts []*models.WorkShift, notes []*models.ShiftNote) {
	if len(notes) == 0 {
		return
	}
	byDate := make(map[string]*models.WorkShift, len(shifts))
	for _, shift := range shifts {
		byDate[shift.Date] = shift
	}
	for _, note := range notes {
		if shift, ok := byDate[note.NotedOn]; ok {
			shift.Notes = append(shift.Notes, note.Text)
		}
	}
}
