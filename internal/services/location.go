package services

import (
	"math"
	"time"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

// RawLocation is an unvalidated sample as supplied by the transport.
type RawLocation struct {
	Latitude   float64
	Longitude  float64
	Accuracy   *float64
	CapturedAt time.Time
}

// LocationPolicy validates raw samples before they are attached to events.
type LocationPolicy struct {
	Required bool
	MaxSkew  time.Duration
}

// Validate normalizes raw into a LocationSample or refuses it. A nil raw
// is an explicit decline: allowed without a sample only when the policy
// does not require one. A zero CapturedAt means the transport did not
// timestamp the sample; the current time is used.
func (p LocationPolicy) Validate(raw *RawLocation, now time.Time) (*models.LocationSample, error) {
	if raw == nil {
		if p.Required {
			return nil, reject(ReasonLocationRequired, "a location is required to record attendance")
		}
		return nil, nil
	}

	if !finiteInRange(raw.Latitude, 90) || !finiteInRange(raw.Longitude, 180) {
		return nil, reject(ReasonInvalidLocation, "location coordinates are out of range")
	}
	if raw.Accuracy != nil && (math.IsNaN(*raw.Accuracy) || math.IsInf(*raw.Accuracy, 0) || *raw.Accuracy < 0) {
		return nil, reject(ReasonInvalidLocation, "location accuracy cannot be negative")
	}

	capturedAt := raw.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = now
	}
	if skew := now.Sub(capturedAt); skew > p.MaxSkew || -skew > p.MaxSkew {
		return nil, reject(ReasonStaleLocation, "the location sample is not fresh, share your location again")
	}

	return &models.LocationSample{
		Latitude:       raw.Latitude,
		Longitude:      raw.Longitude,
		AccuracyMeters: raw.Accuracy,
		CapturedAt:     capturedAt.UTC(),
	}, nil
}

func finiteInRange(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
}
