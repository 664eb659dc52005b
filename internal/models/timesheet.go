package models

import (
	"time"
)

// WorkShift is one day row of a user's timesheet, folded from the event
// log. A shift with a nil ClockOut is still open. A shift opened before
// the reporting window shows only its close (zero ClockIn).
type WorkShift struct {
	Date        string          `json:"date"`
	ClockIn     time.Time       `json:"clock_in"`
	ClockOut    *time.Time      `json:"clock_out,omitempty"`
	InLocation  *LocationSample `json:"in_location,omitempty"`
	OutLocation *LocationSample `json:"out_location,omitempty"`
	Duration    time.Duration   `json:"duration"`
	Notes       []string        `json:"notes,omitempty"`
	Open        bool            `json:"open"`
}
