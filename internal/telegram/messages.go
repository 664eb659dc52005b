package telegram

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/DRPozdniakov/Tracker/internal/models"
	"github.com/DRPozdniakov/Tracker/internal/utils"
)

func helpText() string {
	return strings.Join([]string{
		"🕐 Time Tracker",
		"",
		"/start - show the clock buttons",
		"/status - your current status",
		"/records - your recent shifts",
		"/note <text> - add a note to today's shift",
		"/config - set up your project details",
		"/skip - record without a location",
		"/cancel - cancel a pending request",
		"/help - this message",
		"",
		"Press Clock In or Clock Out, then share your location when asked.",
	}, "\n")
}

func startText(name string, profile *models.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s! 👋\n", name)
	if profile != nil && profile.ProjectName != "" {
		sb.WriteString(profileSummary(profile))
		sb.WriteString("\n")
	} else {
		sb.WriteString("No project configured yet, use /config to set one up.\n")
	}
	sb.WriteString("What would you like to do?")
	return sb.String()
}

func profileSummary(profile *models.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Project: %s\n", profile.ProjectName)
	if profile.ProjectSite != "" {
		fmt.Fprintf(&sb, "📍 Site: %s\n", profile.ProjectSite)
	}
	if profile.Contractor != "" {
		fmt.Fprintf(&sb, "🏗 Contractor: %s\n", profile.Contractor)
	}
	if profile.LunchBreak != "" {
		fmt.Fprintf(&sb, "🍽 Lunch break: %s\n", profile.LunchBreak)
	}
	return sb.String()
}

func statusText(name string, status *models.UserStatus) string {
	if status.State == models.StateClockedIn {
		last := status.LastEvent
		return fmt.Sprintf("📊 %s, you are clocked in.\n🕐 Since %s (%s), on shift for %s.",
			name,
			utils.FormatClock(last.RecordedAt),
			humanize.Time(last.RecordedAt),
			utils.FormatDuration(status.OnShift))
	}
	if status.LastEvent == nil {
		return fmt.Sprintf("📊 %s, you are clocked out. No shifts recorded yet.", name)
	}
	return fmt.Sprintf("📊 %s, you are clocked out.\n🕐 Last clock-out at %s (%s).",
		name,
		utils.FormatClock(status.LastEvent.RecordedAt),
		humanize.Time(status.LastEvent.RecordedAt))
}

func confirmationText(event *models.AttendanceEvent, profile *models.Profile) string {
	verb := "Clocked in"
	if event.Action == models.ActionClockOut {
		verb = "Clocked out"
	}

	var sb strings.Builder
	if event.Location == nil {
		fmt.Fprintf(&sb, "✅ %s at %s (no location).", verb, utils.FormatClock(event.RecordedAt))
	} else {
		fmt.Fprintf(&sb, "✅ %s at %s.", verb, utils.FormatClock(event.RecordedAt))
	}
	if profile != nil && profile.ProjectName != "" {
		fmt.Fprintf(&sb, "\n📋 Project: %s", profile.ProjectName)
	}
	return sb.String()
}

func promptLocationText(action models.Action) string {
	verb := "clock in"
	if action == models.ActionClockOut {
		verb = "clock out"
	}
	return fmt.Sprintf("📍 Share your location to %s, or /skip to record without one.", verb)
}

func timesheetText(shifts []*models.WorkShift) string {
	if len(shifts) == 0 {
		return "No shifts recorded in the last week."
	}

	var sb strings.Builder
	sb.WriteString("🗓 Your recent shifts:\n")
	for _, shift := range shifts {
		sb.WriteString("\n")
		sb.WriteString(shiftLine(shift))
		if len(shift.Notes) > 0 {
			fmt.Fprintf(&sb, "\n   📝 %s", strings.Join(shift.Notes, "; "))
		}
	}
	return sb.String()
}

func shiftLine(shift *models.WorkShift) string {
	switch {
	case shift.Open:
		return fmt.Sprintf("%s — %s → … (on shift)",
			shift.Date, utils.FormatClock(shift.ClockIn))
	case shift.ClockIn.IsZero() && shift.ClockOut != nil:
		return fmt.Sprintf("%s — … → %s",
			shift.Date, utils.FormatClock(*shift.ClockOut))
	default:
		return fmt.Sprintf("%s — %s → %s (%s)",
			shift.Date,
			utils.FormatClock(shift.ClockIn),
			utils.FormatClock(*shift.ClockOut),
			utils.FormatDuration(shift.Duration))
	}
}
