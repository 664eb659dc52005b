package services

import (
	"errors"
	"fmt"
)

// RejectionReason identifies why an attendance request was refused.
type RejectionReason string

const (
	ReasonAlreadyClockedIn     RejectionReason = "already_clocked_in"
	ReasonNotClockedIn         RejectionReason = "not_clocked_in"
	ReasonInvalidLocation      RejectionReason = "invalid_location"
	ReasonStaleLocation        RejectionReason = "stale_location"
	ReasonLocationRequired     RejectionReason = "location_required"
	ReasonNoPendingAction      RejectionReason = "no_pending_action"
	ReasonActionExpired        RejectionReason = "action_expired"
	ReasonActionAlreadyPending RejectionReason = "action_already_pending"
	ReasonNoShiftToday         RejectionReason = "no_shift_today"
)

// RejectionError is a refusal the user can act on, as opposed to an
// internal failure. Transports render Message directly.
type RejectionError struct {
	Reason  RejectionReason
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func reject(reason RejectionReason, format string, args ...any) error {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a RejectionError, if it is one.
func AsRejection(err error) (*RejectionError, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
