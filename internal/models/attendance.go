package models

import (
	"time"
)

// Action is the kind of attendance event a user can record.
type Action string

const (
	ActionClockIn  Action = "clock_in"
	ActionClockOut Action = "clock_out"
)

func (a Action) Valid() bool {
	return a == ActionClockIn || a == ActionClockOut
}

// AttendanceState is the derived clocked-in/clocked-out state of a user.
type AttendanceState string

const (
	StateClockedOut AttendanceState = "clocked_out"
	StateClockedIn  AttendanceState = "clocked_in"
)

// StateAfter returns the state implied by the most recent committed event.
// A nil event means the user has never clocked in.
func StateAfter(last *AttendanceEvent) AttendanceState {
	if last == nil || last.Action == ActionClockOut {
		return StateClockedOut
	}
	return StateClockedIn
}

// LocationSample is a validated geolocation reading attached to an event.
type LocationSample struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
}

// AttendanceEvent is one committed row of the append-only attendance log.
// Events are immutable once committed.
type AttendanceEvent struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     Action          `json:"action"`
	RecordedAt time.Time       `json:"recorded_at"`
	Location   *LocationSample `json:"location,omitempty"`
	Sequence   int64           `json:"sequence"`
	Token      string          `json:"token"`
	CreatedAt  time.Time       `json:"created_at"`
}

// UserStatus is the derived attendance state reported to users.
type UserStatus struct {
	UserID    string           `json:"user_id"`
	State     AttendanceState  `json:"state"`
	OnShift   time.Duration    `json:"on_shift"`
	LastEvent *AttendanceEvent `json:"last_event,omitempty"`
}
