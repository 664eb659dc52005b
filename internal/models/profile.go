package models

import (
	"time"
)

// Profile holds a user's project configuration, shown on status messages
// and timesheet headers. Upserted whole; last write wins.
type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	ProjectName string    `json:"project_name"`
	ProjectSite string    `json:"project_site"`
	Contractor  string    `json:"contractor"`
	LunchBreak  string    `json:"lunch_break"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DialogStep is a stage of the profile-capture conversation.
type DialogStep string

const (
	StepProjectName DialogStep = "project_name"
	StepProjectSite DialogStep = "project_site"
	StepContractor  DialogStep = "contractor"
	StepLunchBreak  DialogStep = "lunch_break"
)

// DialogState is the in-flight draft of the profile-capture conversation.
// It expires if the user walks away mid-dialog.
type DialogState struct {
	UserID    string     `json:"user_id"`
	Step      DialogStep `json:"step"`
	Draft     Profile    `json:"draft"`
	StartedAt time.Time  `json:"started_at"`
}
