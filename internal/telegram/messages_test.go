package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

var messageClock = time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)

func TestStatusTextClockedIn(t *testing.T) {
	status := &models.UserStatus{
		UserID:    "u1",
		State:     models.StateClockedIn,
		OnShift:   3*time.Hour + 27*time.Minute,
		LastEvent: &models.AttendanceEvent{Action: models.ActionClockIn, RecordedAt: messageClock},
	}

	text := statusText("Dmitri P.", status)

	assert.Contains(t, text, "Dmitri P.")
	assert.Contains(t, text, "clocked in")
	assert.Contains(t, text, "08:30")
	assert.Contains(t, text, "3h 27m")
}

func TestStatusTextClockedOut(t *testing.T) {
	status := &models.UserStatus{
		UserID:    "u1",
		State:     models.StateClockedOut,
		LastEvent: &models.AttendanceEvent{Action: models.ActionClockOut, RecordedAt: messageClock},
	}

	text := statusText("Dmitri P.", status)

	assert.Contains(t, text, "clocked out")
	assert.Contains(t, text, "08:30")
}

func TestStatusTextNoHistory(t *testing.T) {
	status := &models.UserStatus{UserID: "u1", State: models.StateClockedOut}

	text := statusText("Dmitri P.", status)

	assert.Contains(t, text, "No shifts recorded yet")
}

func TestConfirmationText(t *testing.T) {
	located := &models.AttendanceEvent{
		Action:     models.ActionClockIn,
		RecordedAt: messageClock,
		Location:   &models.LocationSample{Latitude: 40, Longitude: -74},
	}
	assert.Equal(t, "✅ Clocked in at 08:30.", confirmationText(located, nil))

	bare := &models.AttendanceEvent{Action: models.ActionClockOut, RecordedAt: messageClock}
	assert.Equal(t, "✅ Clocked out at 08:30 (no location).", confirmationText(bare, nil))

	profile := &models.Profile{ProjectName: "Riverside Tower"}
	withHeader := confirmationText(located, profile)
	assert.Contains(t, withHeader, "Riverside Tower")
}

func TestTimesheetText(t *testing.T) {
	clockOut := messageClock.Add(8 * time.Hour)
	shifts := []*models.WorkShift{
		{Date: "2025-03-10", ClockIn: messageClock.Add(24 * time.Hour), Open: true},
		{
			Date:     "2025-03-09",
			ClockIn:  messageClock,
			ClockOut: &clockOut,
			Duration: 8 * time.Hour,
			Notes:    []string{"replaced the coupling", "waiting on parts"},
		},
	}

	text := timesheetText(shifts)

	lines := strings.Split(text, "\n")
	assert.Contains(t, lines[0], "recent shifts")
	assert.Contains(t, text, "(on shift)")
	assert.Contains(t, text, "8h 0m")
	assert.Contains(t, text, "replaced the coupling; waiting on parts",
		"a day's notes join on one line")
	assert.Less(t, strings.Index(text, "2025-03-10"), strings.Index(text, "2025-03-09"),
		"newest shift renders first")
}

func TestTimesheetTextEmpty(t *testing.T) {
	assert.Contains(t, timesheetText(nil), "No shifts recorded")
}

func TestTimesheetTextWindowOpensMidShift(t *testing.T) {
	out := messageClock
	shifts := []*models.WorkShift{{Date: "2025-03-09", ClockOut: &out}}

	text := timesheetText(shifts)

	assert.Contains(t, text, "… → 08:30")
}

func TestPromptLocationText(t *testing.T) {
	assert.Contains(t, promptLocationText(models.ActionClockIn), "clock in")
	assert.Contains(t, promptLocationText(models.ActionClockOut), "clock out")
	assert.Contains(t, promptLocationText(models.ActionClockIn), "/skip")
}

func TestStartTextMentionsProfile(t *testing.T) {
	profile := &models.Profile{ProjectName: "Riverside Tower", ProjectSite: "Dock 4"}

	withProfile := startText("Dmitri P.", profile)
	assert.Contains(t, withProfile, "Riverside Tower")
	assert.Contains(t, withProfile, "Dock 4")

	without := startText("Dmitri P.", nil)
	assert.Contains(t, without, "/config")
}
