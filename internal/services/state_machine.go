package services

import (
	"fmt"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

// EvaluateTransition decides whether a user whose latest committed event
// is last may record the requested action. A nil last means the user has
// never clocked in. Shifts must strictly alternate: in, out, in, out.
func EvaluateTransition(last *models.AttendanceEvent, requested models.Action) error {
	switch requested {
	case models.ActionClockIn:
		if models.StateAfter(last) == models.StateClockedIn {
			return reject(ReasonAlreadyClockedIn, "you are already clocked in, clock out first")
		}
	case models.ActionClockOut:
		if models.StateAfter(last) == models.StateClockedOut {
			return reject(ReasonNotClockedIn, "you are not clocked in")
		}
	default:
		return fmt.Errorf("unknown action %q", requested)
	}
	return nil
}
